package config

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// BaseURL is the base URL of the application (e.g., "https://app.example.com").
	// Used for generating absolute download links in responses and notification mails.
	BaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`
}

// AdminConfig contains credentials for the operational admin endpoints.
type AdminConfig struct {
	// Token is the bearer token required by /api/admin routes.
	// Admin routes are disabled when empty.
	Token string `env:"TOKEN"`
}
