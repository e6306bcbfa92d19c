package config

import (
	"fmt"
	"os"
)

const defaultDiscordAPIBaseURL = "https://discord.com/api/v10"

type Config struct {
	Server   ServerConfig
	Supabase SupabaseConfig
	Discord  DiscordConfig
	Database DatabaseConfig
}

type ServerConfig struct {
	Port string
	Host string
}

// SupabaseConfig holds the event store / identity provider credentials.
// AnonKey is used together with the caller's delegated token; the
// ServiceRoleKey is only ever used server-side for the role lookup, so a
// caller can never spoof its own role.
type SupabaseConfig struct {
	ProjectURL     string
	AnonKey        string
	ServiceRoleKey string
}

// DiscordConfig holds the bot credential and the single channel the relay
// mirrors events into. APIBaseURL is overridable so tests can point the
// client at a local server.
type DiscordConfig struct {
	APIBaseURL string
	BotToken   string
	ChannelID  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func Load() (*Config, error) {
	var missing []string

	get := func(key string) string {
		val := os.Getenv(key)
		if val == "" {
			missing = append(missing, key)
		}
		return val
	}

	config := &Config{
		Server: ServerConfig{
			Port: get("SERVER_PORT"),
			Host: get("SERVER_HOST"),
		},
		Supabase: SupabaseConfig{
			ProjectURL:     get("PROJECT_URL"),
			AnonKey:        get("PROJECT_ANON_KEY"),
			ServiceRoleKey: get("PROJECT_SERVICE_ROLE_KEY"),
		},
		Discord: DiscordConfig{
			APIBaseURL: os.Getenv("DISCORD_API_BASE_URL"),
			BotToken:   get("DISCORD_BOT_TOKEN"),
			ChannelID:  get("DISCORD_CHANNEL_ID"),
		},
		Database: DatabaseConfig{
			Host:     get("DB_HOST"),
			Port:     get("DB_PORT"),
			User:     get("DB_USER"),
			Password: get("DB_PASSWORD"),
			DBName:   get("DB_NAME"),
			SSLMode:  get("DB_SSLMODE"),
		},
	}

	if config.Discord.APIBaseURL == "" {
		config.Discord.APIBaseURL = defaultDiscordAPIBaseURL
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %v", missing)
	}

	return config, nil
}

// ConnectionString returns a DSN string for GORM
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.Host, c.User, c.Password, c.DBName, c.Port, c.SSLMode)
}
