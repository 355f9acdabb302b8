package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/pipeline"
	"server/internal/rembg"
)

// App carries the handler dependencies.
type App struct {
	Log      zerolog.Logger
	Pipeline *pipeline.Orchestrator
	Removal  *rembg.Service

	// MaxUploadBytes caps multipart image payloads.
	MaxUploadBytes int64

	// Fetch bounds remote image downloads for /upload-url.
	Fetch *http.Client
}

func NewApp(log zerolog.Logger, orch *pipeline.Orchestrator, removal *rembg.Service) *App {
	return &App{
		Log:            log,
		Pipeline:       orch,
		Removal:        removal,
		MaxUploadBytes: 25 << 20,
		Fetch:          &http.Client{Timeout: 30 * time.Second},
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// fail translates a stage failure into the uniform error response. Every
// pipeline failure is terminal for the request; nothing is retried.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	a.Log.Error().Err(err).Str("kind", string(kind)).Str("path", r.URL.Path).Msg("request failed")

	// Uniform contract: no partial success, one 500-class status for every
	// stage failure.
	a.json(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
}
