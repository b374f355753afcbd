package metadata

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePayload(t *testing.T) {
	t.Run("missing document yields empty payload, not an error", func(t *testing.T) {
		fs := afero.NewMemMapFs()

		payload, err := EncodePayload(fs, "exports", 99)
		require.NoError(t, err)
		assert.Empty(t, payload)
	})

	t.Run("round-trip reproduces the original bytes", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		original := []byte(`<?xml version="1.0" encoding="UTF-8"?>` + "\n" + `<resource>déjà vu &amp; more</resource>`)
		require.NoError(t, afero.WriteFile(fs, FilePath("exports", 5), original, 0o644))

		payload, err := EncodePayload(fs, "exports", 5)
		require.NoError(t, err)
		require.NotEmpty(t, payload)

		decoded, err := base64.StdEncoding.DecodeString(payload)
		require.NoError(t, err)
		assert.Equal(t, original, decoded)
	})

	t.Run("reads the same path the exporter writes", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		exp, err := NewExporter(ExporterConfig{
			Renderer: &staticRenderer{doc: `<resource/>`},
			Dir:      "exports",
			FS:       fs,
		})
		require.NoError(t, err)

		path, err := exp.Export(context.Background(), 12)
		require.NoError(t, err)

		payload, err := EncodePayload(fs, "exports", 12)
		require.NoError(t, err)

		written, err := afero.ReadFile(fs, path)
		require.NoError(t, err)
		assert.Equal(t, base64.StdEncoding.EncodeToString(written), payload)
	})
}
