package compose

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"server/internal/domain"
)

func testRequest(t *testing.T) domain.RenderRequest {
	t.Helper()
	dir := t.TempDir()
	req := domain.RenderRequest{
		ID:           "render-test",
		TemplatePath: filepath.Join(dir, "template.mp4"),
		AudioPath:    filepath.Join(dir, "music.mp3"),
		ImagePath:    filepath.Join(dir, "subject.png"),
		OutputPath:   filepath.Join(dir, "out.mp4"),
	}
	for _, p := range []string{req.TemplatePath, req.AudioPath, req.ImagePath} {
		require.NoError(t, os.WriteFile(p, []byte("stub"), 0o644))
	}
	return req
}

func TestRenderMissingAssetFailsBeforeRenderer(t *testing.T) {
	c := New(DefaultOptions(), zerolog.Nop())
	ran := false
	c.run = func(ctx context.Context, cmd *exec.Cmd) error {
		ran = true
		return nil
	}

	req := testRequest(t)
	require.NoError(t, os.Remove(req.TemplatePath))

	_, err := c.Render(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, domain.KindAssetMissing, domain.KindOf(err))
	assert.False(t, ran, "renderer must not run with missing inputs")
}

func TestRenderBuildsConfiguredGraph(t *testing.T) {
	c := New(DefaultOptions(), zerolog.Nop())
	var captured []string
	c.run = func(ctx context.Context, cmd *exec.Cmd) error {
		captured = cmd.Args
		return os.WriteFile(cmd.Args[len(cmd.Args)-1], []byte("mp4"), 0o644)
	}

	req := testRequest(t)
	video, err := c.Render(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "render-test", video.ID)
	assert.Equal(t, req.OutputPath, video.Path)

	joined := strings.Join(captured, " ")
	assert.Contains(t, joined, "scale=480:854:force_original_aspect_ratio=increase")
	assert.Contains(t, joined, "crop=480:854")
	assert.Contains(t, joined, "overlay=")
	assert.Contains(t, joined, "gte(t")
	assert.Contains(t, joined, "volume=0.3")
	assert.Contains(t, joined, "-r 30")
	assert.Contains(t, joined, "-t 9")
	assert.Contains(t, joined, req.OutputPath)
}

func TestRenderFailureRemovesPartialOutput(t *testing.T) {
	c := New(DefaultOptions(), zerolog.Nop())
	c.run = func(ctx context.Context, cmd *exec.Cmd) error {
		// Simulate ffmpeg dying mid-encode with a partial file on disk.
		if err := os.WriteFile(cmd.Args[len(cmd.Args)-1], []byte("partial"), 0o644); err != nil {
			return err
		}
		return errors.New("codec error")
	}

	req := testRequest(t)
	_, err := c.Render(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, domain.KindRenderFailed, domain.KindOf(err))

	_, statErr := os.Stat(req.OutputPath)
	assert.True(t, os.IsNotExist(statErr), "partial output must be removed")
}

func TestRenderFailsWhenRendererProducesNothing(t *testing.T) {
	c := New(DefaultOptions(), zerolog.Nop())
	c.run = func(ctx context.Context, cmd *exec.Cmd) error { return nil }

	req := testRequest(t)
	_, err := c.Render(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, domain.KindRenderFailed, domain.KindOf(err))
}
