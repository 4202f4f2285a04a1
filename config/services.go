package config

import "time"

// StripeConfig contains Stripe payment provider configuration.
type StripeConfig struct {
	SecretKey     string `env:"SECRET_KEY"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`

	// OneTimePriceID and SubscriptionPriceID identify the checkout line items
	// for the two paid kinds.
	OneTimePriceID      string `env:"ONE_TIME_PRICE_ID"`
	SubscriptionPriceID string `env:"SUBSCRIPTION_PRICE_ID"`

	// SuccessURL and CancelURL are where checkout redirects the customer.
	SuccessURL string `env:"SUCCESS_URL" envDefault:"http://localhost:8080/?checkout=success&session_id={CHECKOUT_SESSION_ID}"`
	CancelURL  string `env:"CANCEL_URL"  envDefault:"http://localhost:8080/?checkout=cancelled"`
}

// OpenAIConfig contains listing copy generation configuration.
type OpenAIConfig struct {
	APIKey string `env:"API_KEY"`
	Model  string `env:"MODEL" envDefault:"gpt-4o-mini"`

	// Timeout bounds a single copy generation call.
	Timeout time.Duration `env:"TIMEOUT" envDefault:"60s"`
}

// S3Config contains object storage configuration for finished artifacts.
type S3Config struct {
	Bucket string `env:"BUCKET"`
	Region string `env:"REGION" envDefault:"us-east-1"`
	// Endpoint overrides the AWS endpoint (for minio/localstack). Empty uses AWS.
	Endpoint string `env:"ENDPOINT"`
	// KeyPrefix is prepended to every artifact key.
	KeyPrefix string `env:"KEY_PREFIX" envDefault:"kits"`

	// PresignTTL is the lifetime of generated download URLs.
	PresignTTL time.Duration `env:"PRESIGN_TTL" envDefault:"15m"`
}

// Sanitize applies guardrails to S3 configuration values.
func (s *S3Config) Sanitize() {
	if s.PresignTTL <= 0 {
		s.PresignTTL = 15 * time.Minute
	}
}

// SMTPConfig contains mail relay configuration. Notification mail is skipped
// entirely when Host is empty.
type SMTPConfig struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM" envDefault:"kits@propkit.io"`
}

// Configured reports whether a mail transport is available.
func (s SMTPConfig) Configured() bool {
	return s.Host != ""
}

// PipelineConfig tunes the artifact pipeline.
type PipelineConfig struct {
	// WorkDir is the root under which per-job working directories are created.
	WorkDir string `env:"WORK_DIR" envDefault:"/tmp/propkit"`

	// MaxUploadFiles caps the number of photos accepted per request.
	MaxUploadFiles int `env:"MAX_UPLOAD_FILES" envDefault:"20"`

	// MaxUploadBytes caps the total multipart request size.
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"104857600"`

	// EnhanceWorkers bounds concurrent per-image enhancement.
	EnhanceWorkers int `env:"ENHANCE_WORKERS" envDefault:"4"`

	// ImageMaxDim is the bounding box (px) images are fitted into.
	ImageMaxDim int `env:"IMAGE_MAX_DIM" envDefault:"2048"`

	// SecondsPerImage is how long each slide is shown in the video.
	SecondsPerImage int `env:"VIDEO_SECONDS_PER_IMAGE" envDefault:"3"`

	// FrameRate is the output video frame rate.
	FrameRate int `env:"VIDEO_FRAME_RATE" envDefault:"30"`

	// VideoMaxHeight bounds the output video height (aspect preserved).
	VideoMaxHeight int `env:"VIDEO_MAX_HEIGHT" envDefault:"720"`
}

const (
	minEnhanceWorkers = 1
	maxUploadFilesCap = 20
)

// Sanitize applies guardrails to pipeline configuration values.
func (p *PipelineConfig) Sanitize() {
	if p.MaxUploadFiles < 1 || p.MaxUploadFiles > maxUploadFilesCap {
		p.MaxUploadFiles = maxUploadFilesCap
	}
	if p.EnhanceWorkers < minEnhanceWorkers {
		p.EnhanceWorkers = minEnhanceWorkers
	}
	if p.ImageMaxDim < 256 {
		p.ImageMaxDim = 256
	}
	if p.SecondsPerImage < 1 {
		p.SecondsPerImage = 1
	}
	if p.FrameRate < 1 {
		p.FrameRate = 30
	}
	if p.VideoMaxHeight < 144 {
		p.VideoMaxHeight = 720
	}
}
