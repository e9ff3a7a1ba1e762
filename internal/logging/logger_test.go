//-------------------------------------------------------------------------
//
// pgEdge Sales Warehouse ETL
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStageTagsLines(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Output: &buf})
	t.Cleanup(func() { Init(DefaultConfig()) })

	Stage(StageLoad).Info().Str("table", "dim_date").Msg("Loaded dim_date")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "load", line["stage"])
	require.Equal(t, "dim_date", line["table"])
	require.Equal(t, "info", line["level"])
}

func TestInitLevel(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Output: &buf})
	t.Cleanup(func() { Init(DefaultConfig()) })

	Stage(StageExtract).Info().Msg("hidden")
	require.Zero(t, buf.Len())

	Init(Config{Level: "bogus", Output: &buf})
	Debug().Msg("hidden")
	Info().Msg("shown")
	require.Contains(t, buf.String(), "shown")
	require.NotContains(t, buf.String(), "hidden")
}
