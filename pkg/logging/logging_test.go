package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_ContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := Logger(&buf, true, slog.LevelInfo)

	ctx := AppendCtx(context.Background(), slog.String("run", "abc"))
	ctx = AppendCtx(ctx, slog.Int("layer", 2))
	log.InfoContext(ctx, "decoded", "blocks", 4)
	log.DebugContext(ctx, "hidden")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "decoded", rec["msg"])
	assert.Equal(t, "abc", rec["run"])
	assert.Equal(t, float64(2), rec["layer"])
	assert.Equal(t, float64(4), rec["blocks"])
}

func TestLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	log := Logger(&buf, false, slog.LevelDebug).With("cmd", "extract")
	log.Debug("hello")
	assert.Contains(t, buf.String(), "msg=hello")
	assert.Contains(t, buf.String(), "cmd=extract")
}

func TestRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exrctl.log")
	w := RotatingFile(path, 1, 2)
	log := Logger(w, false, slog.LevelInfo)
	log.Info("written")
	require.NoError(t, w.Close())
	assert.FileExists(t, path)
}
