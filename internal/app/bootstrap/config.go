// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/cwcconnect/internal/app/system/assistant"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvPrefix prefixes every app key in the environment (CWCCONNECT_MONGO_URI, …).
const EnvPrefix = "CWCCONNECT"

// appConfigKeys defines the configuration keys for CWC Connect.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, update_api, etc.
//   - Environment variables: CWCCONNECT_MONGO_URI, CWCCONNECT_UPDATE_API, etc.
//   - Command-line flags: --mongo_uri, --update_api, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "cwc_connect", Desc: "MongoDB database name"},

	// Roster API
	{Name: "update_api", Default: "", Desc: "Roster API endpoint (blank uses spreadsheets)"},
	{Name: "api_username", Default: "", Desc: "Roster API username"},
	{Name: "api_password", Default: "", Desc: "Roster API password"},
	{Name: "api_timeout", Default: "30s", Desc: "Roster API per-attempt timeout"},
	{Name: "api_retries", Default: 3, Desc: "Roster API retries after the first attempt"},
	{Name: "api_retry_delay", Default: "5s", Desc: "Fixed delay between roster API attempts"},

	// Spreadsheets
	{Name: "data_dir", Default: "./data", Desc: "Directory holding the roster and directory workbooks"},
	{Name: "roster_file", Default: "eOffice.xlsx", Desc: "Roster workbook file name"},
	{Name: "directory_file", Default: "directory.xlsx", Desc: "Location directory workbook file name"},

	// Scheduling
	{Name: "sync_interval", Default: "6h", Desc: "Interval between sync cycles"},
	{Name: "sync_on_start", Default: true, Desc: "Run a sync cycle at startup"},
	{Name: "sync_concurrency", Default: 4, Desc: "Parallel upserts within one cycle"},
	{Name: "store_ping_interval", Default: "30s", Desc: "How often to re-check MongoDB availability"},

	{Name: "cors_allowed_origins", Default: "http://localhost:3000", Desc: "Comma-separated origins allowed by CORS"},

	// Assistant
	{Name: "assistant_provider", Default: "ollama", Desc: "Reply rephrasing provider: ollama, gemini or none"},
	{Name: "ollama_url", Default: "http://localhost:11434", Desc: "Ollama base URL"},
	{Name: "ollama_model", Default: "llama3", Desc: "Ollama model"},
	{Name: "gemini_api_key", Default: "", Desc: "Gemini API key"},
	{Name: "gemini_model", Default: "gemini-2.0-flash", Desc: "Gemini model"},
	{Name: "assistant_timeout", Default: "10s", Desc: "Bound on one rephrasing call"},

	{Name: "chat_rate_limit", Default: 60, Desc: "Chat requests per client per minute (0 disables)"},
}

// valueSource holds the accessors buildAppConfig reads through, so WAFFLE's
// loaded values and the plain environment share one mapping.
type valueSource struct {
	String   func(name string) string
	Int      func(name string) int
	Bool     func(name string) bool
	Duration func(name string, def time.Duration) time.Duration
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, CWCCONNECT_* for app) and flags,
// merging with precedence: flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}
	return coreCfg, buildAppConfig(valueSource{
		String:   func(n string) string { return appValues.String(n) },
		Int:      func(n string) int { return int(appValues.Int(n)) },
		Bool:     func(n string) bool { return appValues.Bool(n) },
		Duration: func(n string, d time.Duration) time.Duration { return appValues.Duration(n, d) },
	}), nil
}

// AppConfigFromEnv builds AppConfig from CWCCONNECT_* environment variables
// and the key defaults. The operator CLI uses it instead of LoadConfig so
// cobra owns the command line.
func AppConfigFromEnv() AppConfig {
	return envValues{lookup: os.LookupEnv}.source()
}

func buildAppConfig(v valueSource) AppConfig {
	return AppConfig{
		MongoURI:      v.String("mongo_uri"),
		MongoDatabase: v.String("mongo_database"),

		UpdateAPI:     strings.TrimSpace(v.String("update_api")),
		APIUsername:   v.String("api_username"),
		APIPassword:   v.String("api_password"),
		APITimeout:    v.Duration("api_timeout", 30*time.Second),
		APIRetries:    v.Int("api_retries"),
		APIRetryDelay: v.Duration("api_retry_delay", 5*time.Second),

		DataDir:       v.String("data_dir"),
		RosterFile:    v.String("roster_file"),
		DirectoryFile: v.String("directory_file"),

		SyncInterval:      v.Duration("sync_interval", 6*time.Hour),
		SyncOnStart:       v.Bool("sync_on_start"),
		SyncConcurrency:   v.Int("sync_concurrency"),
		StorePingInterval: v.Duration("store_ping_interval", 30*time.Second),

		CORSAllowedOrigins: splitList(v.String("cors_allowed_origins")),

		AssistantProvider: strings.ToLower(strings.TrimSpace(v.String("assistant_provider"))),
		OllamaURL:         v.String("ollama_url"),
		OllamaModel:       v.String("ollama_model"),
		GeminiAPIKey:      v.String("gemini_api_key"),
		GeminiModel:       v.String("gemini_model"),
		AssistantTimeout:  v.Duration("assistant_timeout", 10*time.Second),

		ChatRateLimit: v.Int("chat_rate_limit"),
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// envValues reads app keys straight from the environment, falling back to
// the defaults in appConfigKeys.
type envValues struct {
	lookup func(string) (string, bool)
}

func (e envValues) raw(name string) string {
	if v, ok := e.lookup(EnvPrefix + "_" + strings.ToUpper(name)); ok {
		return v
	}
	for _, k := range appConfigKeys {
		if k.Name == name {
			return fmt.Sprint(k.Default)
		}
	}
	return ""
}

func (e envValues) source() AppConfig {
	return buildAppConfig(valueSource{
		String:   e.raw,
		Int:      e.asInt,
		Bool:     e.asBool,
		Duration: e.asDuration,
	})
}

func (e envValues) asInt(name string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(e.raw(name)))
	return n
}

func (e envValues) asBool(name string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(e.raw(name)))
	return b
}

func (e envValues) asDuration(name string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(e.raw(name)))
	if err != nil {
		return def
	}
	return d
}

// ValidateConfig performs app-specific config validation.
//
// The Mongo URI format is checked before connecting. A roster API URL, when
// set, must be absolute http(s). Missing API credentials are not an error:
// they select the spreadsheet source.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database must be set")
	}

	if appCfg.UpdateAPI != "" {
		u, err := url.Parse(appCfg.UpdateAPI)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("update_api must be an absolute http(s) URL, got %q", appCfg.UpdateAPI)
		}
	}
	if appCfg.APIRetries < 0 {
		return fmt.Errorf("api_retries must not be negative")
	}
	if appCfg.SyncInterval <= 0 {
		return fmt.Errorf("sync_interval must be positive")
	}

	if !assistant.KnownProvider(appCfg.AssistantProvider) {
		return fmt.Errorf("assistant_provider must be one of ollama, gemini, none; got %q", appCfg.AssistantProvider)
	}
	if appCfg.AssistantProvider == assistant.ProviderGemini && appCfg.GeminiAPIKey == "" {
		return fmt.Errorf("assistant_provider gemini requires gemini_api_key")
	}
	if appCfg.ChatRateLimit < 0 {
		return fmt.Errorf("chat_rate_limit must not be negative")
	}
	return nil
}
