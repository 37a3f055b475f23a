package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr  string
	Environment string
	GCPProject  string

	SecretBackend      string
	ModelSecretName    string
	ClientIDSecretName string
	// DevSecretsFile maps secret names to values; read outside production only.
	DevSecretsFile string

	ArtifactBackend   string
	GCSBucket         string
	ArtifactLocalPath string
	PublicBaseURL     string

	MetadataBackend string
	DBPath          string
	MongoURI        string
	MongoDatabase   string

	GeminiNameModel  string
	GeminiImageModel string
	NamingBackend    string
	ClaudeAPIKey     string
	ClaudeModel      string

	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int

	LogLevel string
	LogFile  string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	listenAddr := getEnv("LISTEN_ADDR", ":8080")
	if port, ok := os.LookupEnv("PORT"); ok && port != "" {
		listenAddr = ":" + port
	}

	return &Config{
		ListenAddr:         listenAddr,
		Environment:        getEnv("APP_ENV", "development"),
		GCPProject:         getEnv("GCP_PROJECT", "kissthem"),
		SecretBackend:      getEnv("SECRET_BACKEND", "gsm"),
		ModelSecretName:    getEnv("MODEL_SECRET_NAME", "gemini-api-key"),
		ClientIDSecretName: getEnv("CLIENT_ID_SECRET_NAME", "oauth-client-id"),
		DevSecretsFile:     getEnv("DEV_SECRETS_FILE", ".secrets.dev"),
		ArtifactBackend:    getEnv("ARTIFACT_BACKEND", "local"),
		GCSBucket:          getEnv("GCS_BUCKET", "kissthem-images"),
		ArtifactLocalPath:  getEnv("ARTIFACT_LOCAL_PATH", "/data/artifacts"),
		PublicBaseURL:      strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		MetadataBackend:    getEnv("METADATA_BACKEND", "sqlite"),
		DBPath:             getEnv("DB_PATH", "/data/kissthem.db"),
		MongoURI:           getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:      getEnv("MONGO_DATABASE", "kissthem"),
		GeminiNameModel:    getEnv("GEMINI_NAME_MODEL", "gemini-1.5-flash"),
		GeminiImageModel:   getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image-preview"),
		NamingBackend:      getEnv("NAMING_BACKEND", "gemini"),
		ClaudeAPIKey:       getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:        getEnv("CLAUDE_MODEL", "claude-3-5-haiku-latest"),
		AllowedOrigins:     splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001")),
		RateLimitRPS:       getEnvFloat("RATE_LIMIT_RPS", 0.5),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 5),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFile:            getEnv("LOG_FILE", ""),
	}
}

// IsProduction reports whether development-only conveniences must be off.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvFloat(key string, defaultVal float64) float64 {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
