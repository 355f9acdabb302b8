package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"server/internal/http/handlers"
	"server/internal/middleware"
)

// Options configures the router assembly.
type Options struct {
	StaticDir       string
	UploadsDir      string
	VideosDir       string
	AllowedOrigins  []string
	RateLimitPerMin int
}

func NewRouter(app *handlers.App, log zerolog.Logger, opts Options) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, chimw.RealIP, chimw.Recoverer)
	r.Use(middleware.Logger(log))
	if len(opts.AllowedOrigins) > 0 {
		r.Use(middleware.CORS(opts.AllowedOrigins))
	}
	if opts.RateLimitPerMin > 0 {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
	}

	r.Get("/healthz", app.Health)
	r.Post("/upload", app.Upload)
	r.Post("/upload-url", app.UploadURL)
	r.Post("/remove-background", app.RemoveBackground)
	r.Post("/create-video", app.CreateVideo)

	// Client bundle and locally served artifacts.
	fileServer(r, "/uploads", opts.UploadsDir)
	fileServer(r, "/videos", opts.VideosDir)
	r.Handle("/*", stdhttp.FileServer(stdhttp.Dir(opts.StaticDir)))

	return r
}

func fileServer(r chi.Router, prefix, dir string) {
	fs := stdhttp.StripPrefix(prefix, stdhttp.FileServer(stdhttp.Dir(dir)))
	r.Get(prefix+"/*", func(w stdhttp.ResponseWriter, req *stdhttp.Request) {
		fs.ServeHTTP(w, req)
	})
}
