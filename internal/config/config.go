package config

import "os"

// Config carries all environment-backed settings for the tracker.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	Admin  AdminConfig
	Vonage VonageConfig
	Agent  AgentConfig
}

// ServerConfig holds the listen settings. The session secret and gin
// mode stay env-only (SESSION_SECRET, GIN_MODE); gin and the session
// middleware read them directly.
type ServerConfig struct {
	Port string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// AdminConfig seeds the first admin account when the users table is empty.
type AdminConfig struct {
	Username string
	Password string
}

type VonageConfig struct {
	APIKey     string
	APISecret  string
	FromNumber string
}

type AgentConfig struct {
	// DownloadURL overrides the self-referencing /agent/download link in
	// onboarding SMS bodies when set.
	DownloadURL string
	// Dir is the directory zipped up by GET /agent/download.
	Dir string
}

// Load reads the configuration from the environment, applying
// development defaults. Call godotenv.Load beforehand if a .env file
// should contribute.
func Load() Config {
	return Config{
		Server: ServerConfig{
			Port: getenv("PORT", "8080"),
		},
		DB: DBConfig{
			Host:     getenv("DB_HOST", "localhost"),
			Port:     getenv("DB_PORT", "5432"),
			User:     getenv("DB_USER", "postgres"),
			Password: getenv("DB_PASSWORD", "postgres"),
			Name:     getenv("DB_NAME", "tracker"),
			SSLMode:  getenv("DB_SSLMODE", "disable"),
		},
		Admin: AdminConfig{
			Username: getenv("ADMIN_USERNAME", "admin"),
			Password: getenv("ADMIN_PASSWORD", "admin"),
		},
		Vonage: VonageConfig{
			APIKey:     os.Getenv("VONAGE_API_KEY"),
			APISecret:  os.Getenv("VONAGE_API_SECRET"),
			FromNumber: os.Getenv("VONAGE_FROM_NUMBER"),
		},
		Agent: AgentConfig{
			DownloadURL: os.Getenv("AGENT_DOWNLOAD_URL"),
			Dir:         getenv("AGENT_DIR", "agent_examples/android"),
		},
	}
}

// DSN builds the Postgres connection string the way the server expects it.
func (c DBConfig) DSN() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + c.Port + "/" + c.Name + "?sslmode=" + c.SSLMode
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
