package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Port               string
	CORSAllowOrigin    []string
	Env                string
	DocStore           string
	DatabaseURL        string
	FirebaseProjectID  string
	FirebaseEmail      string
	FirebaseKey        string
	ObjectStoreType    string
	LocalStoreDir      string
	AWSRegion          string
	S3Bucket           string
	S3Prefix           string
	SSEKMSKeyID        string
	ScreenshotArchive  bool
	LLMProvider        string
	LLMModel           string
	LLMTimeout         time.Duration
	GeminiAPIKey       string
	OpenAIAPIKey       string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	UIRedirectURL      string
	JWTSecret          string
	PublicBaseURL      string
	AnalyzePerMinute   int
}

var defaults = map[string]any{
	"PORT":                       "8080",
	"ENV":                        "dev",
	"CORS_ALLOW_ORIGINS":         "http://localhost:3000",
	"DOCSTORE":                   "postgres",
	"OBJECT_STORE":               "local",
	"LOCAL_STORE_DIR":            "./data",
	"SCREENSHOT_ARCHIVE":         false,
	"LLM_PROVIDER":               "gemini",
	"LLM_TIMEOUT":                "120s",
	"RATE_LIMIT_ANALYZE_PER_MIN": 6,
}

// Load reads configuration from environment variables with sensible defaults.
// Values in .env files are merged first so real environment variables win.
func Load() Config {
	return load(viper.New(), ".env", "cmd/.env")
}

func load(v *viper.Viper, envFiles ...string) Config {
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.SetConfigType("env")
	for _, path := range envFiles {
		v.SetConfigFile(path)
		// Best-effort: missing files are normal outside local dev.
		_ = v.MergeInConfig()
	}
	v.AutomaticEnv()

	env := normalizeEnv(v.GetString("ENV"))
	provider := normalizeProvider(v.GetString("LLM_PROVIDER"))

	timeout := v.GetDuration("LLM_TIMEOUT")
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return Config{
		Port:               v.GetString("PORT"),
		CORSAllowOrigin:    splitAndTrim(v.GetString("CORS_ALLOW_ORIGINS")),
		Env:                env,
		DocStore:           normalizeDocStore(v.GetString("DOCSTORE")),
		DatabaseURL:        v.GetString("DATABASE_URL"),
		FirebaseProjectID:  v.GetString("FIREBASE_PROJECT_ID"),
		FirebaseEmail:      v.GetString("FIREBASE_CLIENT_EMAIL"),
		FirebaseKey:        v.GetString("FIREBASE_PRIVATE_KEY"),
		ObjectStoreType:    normalizeStoreType(v.GetString("OBJECT_STORE")),
		LocalStoreDir:      v.GetString("LOCAL_STORE_DIR"),
		AWSRegion:          v.GetString("AWS_REGION"),
		S3Bucket:           v.GetString("S3_BUCKET"),
		S3Prefix:           v.GetString("S3_PREFIX"),
		SSEKMSKeyID:        v.GetString("SSE_KMS_KEY_ID"),
		ScreenshotArchive:  v.GetBool("SCREENSHOT_ARCHIVE"),
		LLMProvider:        provider,
		LLMModel:           modelOrDefault(provider, v.GetString("LLM_MODEL")),
		LLMTimeout:         timeout,
		GeminiAPIKey:       v.GetString("GEMINI_API_KEY"),
		OpenAIAPIKey:       v.GetString("OPENAI_API_KEY"),
		GoogleClientID:     v.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  v.GetString("GOOGLE_REDIRECT_URL"),
		UIRedirectURL:      v.GetString("UI_REDIRECT_URL"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		PublicBaseURL:      strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		AnalyzePerMinute:   v.GetInt("RATE_LIMIT_ANALYZE_PER_MIN"),
	}
}

// IsDevLike reports whether env permits in-memory fallbacks.
func (c Config) IsDevLike() bool {
	return c.Env == "dev" || c.Env == "local"
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeDocStore(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "firestore", "firebase":
		return "firestore"
	case "memory", "mem":
		return "memory"
	default:
		return "postgres"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	default:
		return "gemini"
	}
}

func modelOrDefault(provider, model string) string {
	if m := strings.TrimSpace(model); m != "" {
		return m
	}
	if provider == "openai" {
		return "gpt-4o-mini"
	}
	return "gemini-2.5-flash"
}
