// Package pipeline sequences the stages: receive image, persist, compose
// video on demand, persist, hand back a locator. It owns the temp-file
// lifecycle and translates stage failures for the handler boundary.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"server/internal/domain"
	"server/internal/storage"
)

// Renderer is the video composition stage as the orchestrator sees it.
type Renderer interface {
	Render(ctx context.Context, req domain.RenderRequest) (domain.RenderedVideo, error)
}

// Options bound the external calls and name the fixed composition inputs.
type Options struct {
	SignedTTL     time.Duration
	StoreTimeout  time.Duration
	RenderTimeout time.Duration
	TemplatePath  string
	AudioPath     string
}

// IngestResult locates a stored upload.
type IngestResult struct {
	Key       string
	LocalPath string
	URL       string
}

// RenderResult locates a stored rendered video.
type RenderResult struct {
	VideoID string
	URL     string
}

type Orchestrator struct {
	store    storage.Store
	files    *storage.FileStore
	renderer Renderer
	opts     Options
	log      zerolog.Logger
}

func New(store storage.Store, files *storage.FileStore, renderer Renderer, opts Options, log zerolog.Logger) *Orchestrator {
	if opts.SignedTTL <= 0 {
		opts.SignedTTL = time.Hour
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = 30 * time.Second
	}
	if opts.RenderTimeout <= 0 {
		opts.RenderTimeout = 2 * time.Minute
	}
	return &Orchestrator{store: store, files: files, renderer: renderer, opts: opts, log: log}
}

// Ingest stores an already background-removed image and returns its key and
// a time-bounded access URL. A local copy lands under uploads/ for static
// serving; the object store holds the durable artifact.
func (o *Orchestrator) Ingest(ctx context.Context, data []byte, ext, contentType string) (IngestResult, error) {
	if len(data) == 0 {
		return IngestResult{}, domain.E(domain.KindInvalidImage, "empty image payload")
	}
	if ext == "" {
		ext = ".png"
	}
	key := storage.UploadPrefix + uuid.NewString() + ext

	if _, err := o.files.Write(ctx, key, data); err != nil {
		o.log.Warn().Err(err).Str("key", key).Msg("failed to keep local upload copy")
	}

	sctx, cancel := context.WithTimeout(ctx, o.opts.StoreTimeout)
	defer cancel()
	if err := o.store.Put(sctx, key, data, contentType); err != nil {
		return IngestResult{}, err
	}
	link, err := o.store.SignedURL(sctx, key, o.opts.SignedTTL)
	if err != nil {
		return IngestResult{}, err
	}
	return IngestResult{Key: key, LocalPath: "/" + key, URL: link.URL}, nil
}

// Render resolves the source image, materializes it to a scoped temp file,
// invokes the composition stage, uploads the result and mints the access
// URL. Temp files for the call are removed on every exit path.
func (o *Orchestrator) Render(ctx context.Context, src domain.ImageSource, text string) (RenderResult, error) {
	if src.IsZero() {
		return RenderResult{}, domain.E(domain.KindMissingSource, "either an object key or an image path is required")
	}

	data, err := o.resolveSource(ctx, src)
	if err != nil {
		return RenderResult{}, err
	}

	id := ksuid.New().String()
	tempImage := filepath.Join(o.files.TempPath(), "overlay-"+id+".png")
	tempVideo := filepath.Join(o.files.TempPath(), "video-"+id+".mp4")
	defer o.cleanup(tempImage)
	defer o.cleanup(tempVideo)

	if err := os.WriteFile(tempImage, data, 0o644); err != nil {
		return RenderResult{}, domain.Wrap(domain.KindRenderFailed, "materialize source image", err)
	}

	rctx, cancel := context.WithTimeout(ctx, o.opts.RenderTimeout)
	defer cancel()
	video, err := o.renderer.Render(rctx, domain.RenderRequest{
		ID:           id,
		TemplatePath: o.opts.TemplatePath,
		AudioPath:    o.opts.AudioPath,
		ImagePath:    tempImage,
		OutputPath:   tempVideo,
		Text:         text,
	})
	if err != nil {
		return RenderResult{}, err
	}

	rendered, err := os.ReadFile(video.Path)
	if err != nil {
		return RenderResult{}, domain.Wrap(domain.KindRenderFailed, "read rendered video", err)
	}

	videoKey := storage.VideoPrefix + "video-" + id + ".mp4"
	sctx, scancel := context.WithTimeout(ctx, o.opts.StoreTimeout)
	defer scancel()
	if err := o.store.Put(sctx, videoKey, rendered, "video/mp4"); err != nil {
		return RenderResult{}, err
	}
	if _, err := o.files.Write(ctx, videoKey, rendered); err != nil {
		o.log.Warn().Err(err).Str("key", videoKey).Msg("failed to keep local video copy")
	}

	link, err := o.store.SignedURL(sctx, videoKey, o.opts.SignedTTL)
	if err != nil {
		return RenderResult{}, err
	}
	return RenderResult{VideoID: id, URL: link.URL}, nil
}

// resolveSource reads the render input, preferring the object store key over
// the legacy local-path fallback.
func (o *Orchestrator) resolveSource(ctx context.Context, src domain.ImageSource) ([]byte, error) {
	if key, ok := src.Key(); ok {
		sctx, cancel := context.WithTimeout(ctx, o.opts.StoreTimeout)
		defer cancel()
		return o.store.Get(sctx, key)
	}
	path, _ := src.Path()
	cleanKey, err := o.files.ResolveUserPath(path)
	if err != nil {
		return nil, err
	}
	return o.files.Read(ctx, cleanKey)
}

func (o *Orchestrator) cleanup(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		// Never escalated over the primary error.
		o.log.Warn().Err(err).Str("path", path).Msg("temp cleanup failed")
	}
}
