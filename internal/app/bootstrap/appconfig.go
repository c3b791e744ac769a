// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig keeps the
// framework-level settings (ports, TLS, log level); everything below is
// specific to the employee directory.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI      string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase string // Database name within MongoDB

	// Roster API (blank values force the spreadsheet source)
	UpdateAPI     string
	APIUsername   string
	APIPassword   string
	APITimeout    time.Duration // per attempt
	APIRetries    int           // additional attempts after the first
	APIRetryDelay time.Duration

	// Spreadsheet fallback
	DataDir       string // directory holding both workbooks
	RosterFile    string // e.g. eOffice.xlsx
	DirectoryFile string // e.g. directory.xlsx

	// Scheduling
	SyncInterval      time.Duration
	SyncOnStart       bool
	SyncConcurrency   int
	StorePingInterval time.Duration

	// Browser origins allowed to call the API, comma-separated
	CORSAllowedOrigins []string

	// Text generation used to rephrase chat replies
	AssistantProvider string // ollama, gemini or none
	OllamaURL         string
	OllamaModel       string
	GeminiAPIKey      string
	GeminiModel       string
	AssistantTimeout  time.Duration

	// Chat requests allowed per client per minute; 0 disables limiting
	ChatRateLimit int
}
