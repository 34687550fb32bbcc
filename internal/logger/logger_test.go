package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSetLevel(t *testing.T) {
	t.Run("sets debug level", func(t *testing.T) {
		SetLevel("debug")
		require.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
	})

	t.Run("sets info level", func(t *testing.T) {
		SetLevel("info")
		require.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
	})

	t.Run("sets warn level", func(t *testing.T) {
		SetLevel("warn")
		require.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
	})

	t.Run("sets error level", func(t *testing.T) {
		SetLevel("error")
		require.Equal(t, zerolog.ErrorLevel, zerolog.GlobalLevel())
	})

	t.Run("defaults to info for unknown level", func(t *testing.T) {
		SetLevel("unknown")
		require.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
	})

	SetLevel("debug")
}

func TestConfigure(t *testing.T) {
	original := Log
	defer func() {
		Log = original
		SetLevel("debug")
	}()

	Configure("warn", "json")
	require.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
	require.NotNil(t, Log)
}

func TestSetOutput(t *testing.T) {
	original := Log
	defer func() { Log = original }()

	var buf bytes.Buffer
	SetOutput(&buf)
	Log.Info().Str("key", "value").Msg("captured")

	require.Contains(t, buf.String(), `"key":"value"`)
	require.Contains(t, buf.String(), "captured")
}
