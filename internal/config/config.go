package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type AppConfig struct {
	API       *APIConfig       `mapstructure:"api"`
	Gin       *GinConfig       `mapstructure:"gin"`
	Log       *LogConfig       `mapstructure:"log"`
	Database  *DatabaseConfig  `mapstructure:"database"`
	Postgres  *PostgresConfig  `mapstructure:"postgres"`
	Notifier  *NotifierConfig  `mapstructure:"notifier"`
	FileStore *FileStoreConfig `mapstructure:"filestore"`
	Ticket    *TicketConfig    `mapstructure:"ticket"`
	Admin     *AdminConfig     `mapstructure:"admin"`
}

type APIConfig struct {
	Environment        string        `mapstructure:"environment"`
	Port               string        `mapstructure:"port"`
	BaseURL            string        `mapstructure:"base_url"`
	AllowedCORSDomains []string      `mapstructure:"allowed_cors_domains"`
	JWTSigningKey      string        `mapstructure:"jwt_signing_key"`
	JWTTTL             time.Duration `mapstructure:"jwt_ttl"`
}

type GinConfig struct {
	Mode string `mapstructure:"mode"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type DatabaseConfig struct {
	Driver     string `mapstructure:"driver"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type NotifierConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	Email   EmailConfig   `mapstructure:"email"`
	NATS    NATSConfig    `mapstructure:"nats"`
	Discord DiscordConfig `mapstructure:"discord"`
}

type EmailConfig struct {
	APIURL string `mapstructure:"api_url"`
	APIKey string `mapstructure:"api_key"`
	From   string `mapstructure:"from"`
}

type NATSConfig struct {
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

type DiscordConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type FileStoreConfig struct {
	Driver        string           `mapstructure:"driver"`
	LocalDir      string           `mapstructure:"local_dir"`
	PublicBaseURL string           `mapstructure:"public_base_url"`
	Cloudinary    CloudinaryConfig `mapstructure:"cloudinary"`
}

type CloudinaryConfig struct {
	CloudName string `mapstructure:"cloud_name"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	Folder    string `mapstructure:"folder"`
}

type TicketConfig struct {
	Prefix string `mapstructure:"prefix"`
}

// AdminConfig seeds the admin account on first boot. Set the password
// through FEST_ADMIN_PASSWORD rather than the file.
type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

const envPrefix = "FEST"

func Load(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("v.ReadInConfig -> %w", err)
	}

	return decode(v)
}

// Watch re-reads the file on change and hands the fresh config to onChange.
// Only settings that are safe to swap at runtime should be applied by callers.
func Watch(path string, onChange func(*AppConfig)) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		conf, err := decode(v)
		if err != nil {
			return
		}
		onChange(conf)
	})
	v.WatchConfig()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.environment", "development")
	v.SetDefault("api.port", "8080")
	v.SetDefault("api.jwt_ttl", 24*time.Hour)
	v.SetDefault("gin.mode", "debug")
	v.SetDefault("log.level", "info")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.sqlite_path", "fest.db")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("notifier.timeout", 10*time.Second)
	v.SetDefault("notifier.nats.subject_prefix", "fest.notifications")
	v.SetDefault("filestore.driver", "local")
	v.SetDefault("filestore.local_dir", "uploads")
	v.SetDefault("ticket.prefix", "TICKET-")
	v.SetDefault("admin.email", "admin@felicity.com")
	v.SetDefault("admin.password", "")
}

func decode(v *viper.Viper) (*AppConfig, error) {
	conf := &AppConfig{
		API:       &APIConfig{},
		Gin:       &GinConfig{},
		Log:       &LogConfig{},
		Database:  &DatabaseConfig{},
		Postgres:  &PostgresConfig{},
		Notifier:  &NotifierConfig{},
		FileStore: &FileStoreConfig{},
		Ticket:    &TicketConfig{},
		Admin:     &AdminConfig{},
	}

	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("v.Unmarshal -> %w", err)
	}

	if conf.API.JWTSigningKey == "" {
		return nil, fmt.Errorf("api.jwt_signing_key is required")
	}

	return conf, nil
}
