package infra

import (
	"time"

	"github.com/caarlos0/env/v11"

	"server/internal/domain"
)

// Storage backend selectors.
const (
	BackendS3     = "s3"
	BackendMemory = "memory"
)

// Config is the application configuration loaded from environment variables.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"development"`
	Port   string `env:"PORT" envDefault:"3000"`

	// Object store. All four AWS settings are required when the s3 backend
	// is selected; the memory backend exists for development and tests.
	StorageBackend     string `env:"STORAGE_BACKEND" envDefault:"s3"`
	AWSRegion          string `env:"AWS_REGION"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Bucket           string `env:"S3_BUCKET_NAME"`

	// Local disk layout and composition inputs.
	DataDir      string `env:"DATA_DIR" envDefault:"."`
	StaticDir    string `env:"STATIC_DIR" envDefault:"web/static"`
	TemplatePath string `env:"TEMPLATE_VIDEO_PATH" envDefault:"assets/template.mp4"`
	AudioPath    string `env:"AUDIO_TRACK_PATH" envDefault:"assets/music.mp3"`

	// Segmentation capability.
	SegmentEndpoint string        `env:"SEGMENT_ENDPOINT" envDefault:"http://localhost:8188/segment"`
	SegmentTimeout  time.Duration `env:"SEGMENT_TIMEOUT" envDefault:"30s"`

	// Bounded timeouts around the external stages.
	SignedURLTTL  time.Duration `env:"SIGNED_URL_TTL" envDefault:"1h"`
	StoreTimeout  time.Duration `env:"STORE_TIMEOUT" envDefault:"30s"`
	RenderTimeout time.Duration `env:"RENDER_TIMEOUT" envDefault:"2m"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	HTTPReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	HTTPWriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"3m"`
	HTTPIdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"60s"`
	RateLimitPerMin  int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"30"`

	SweepSchedule string        `env:"TEMP_SWEEP_SCHEDULE" envDefault:"@every 10m"`
	TempMaxAge    time.Duration `env:"TEMP_MAX_AGE" envDefault:"1h"`
}

// LoadConfig parses the environment and fails fast on an incomplete object
// store configuration so a missing credential surfaces here and not as a
// deep transport error.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, domain.Wrap(domain.KindConfiguration, "parse environment", err)
	}

	if cfg.StorageBackend != BackendS3 && cfg.StorageBackend != BackendMemory {
		return nil, domain.Ef(domain.KindConfiguration, "unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}
	if cfg.StorageBackend == BackendS3 {
		required := []struct{ name, value string }{
			{"AWS_REGION", cfg.AWSRegion},
			{"AWS_ACCESS_KEY_ID", cfg.AWSAccessKeyID},
			{"AWS_SECRET_ACCESS_KEY", cfg.AWSSecretAccessKey},
			{"S3_BUCKET_NAME", cfg.S3Bucket},
		}
		for _, r := range required {
			if r.value == "" {
				return nil, domain.Ef(domain.KindConfiguration, "%s is required", r.name)
			}
		}
	}
	return cfg, nil
}
