package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// Server.PublicBaseURL is the driver front end, not this API. Its /driver
	// page posts the #driver= fragment to /api/driver.
	Server struct {
		Port               int      `mapstructure:"port"`
		PublicBaseURL      string   `mapstructure:"public_base_url"`
		CorsAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
		CorsAllowedMethods []string `mapstructure:"cors_allowed_methods"`
		CorsAllowedHeaders []string `mapstructure:"cors_allowed_headers"`
	} `mapstructure:"server"`

	Database DatabaseConfig `mapstructure:"database"`

	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Handoff struct {
		Secret string `mapstructure:"secret"`
		Issuer string `mapstructure:"issuer"`
	} `mapstructure:"handoff"`

	Company struct {
		Name  string `mapstructure:"name"`
		Phone string `mapstructure:"phone"`
	} `mapstructure:"company"`

	Documents DocumentsConfig `mapstructure:"documents"`
}

func Load() *Config {
	// Load .env file if exists (ignore error in production)
	godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile("configs/config.yaml")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults let the binary run without a config file
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.public_base_url", "http://localhost:8080")
	v.SetDefault("server.cors_allowed_origins", []string{"*"})
	v.SetDefault("server.cors_allowed_methods", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	v.SetDefault("server.cors_allowed_headers", []string{"Content-Type", "Authorization"})
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "delivery_db")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("handoff.issuer", "delivery-backend")
	v.SetDefault("company.name", "Delivery")
	v.SetDefault("documents.region", "auto")
	v.SetDefault("documents.prefix", "prints/")

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		log.Printf("[Config] No config file found, using defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("config unmarshal error: %v", err)
	}

	applyEnvOverrides(&cfg)
	return &cfg
}

func applyEnvOverrides(cfg *Config) {
	if port := os.Getenv("PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil && n > 0 {
			cfg.Server.Port = n
		}
	}
	if base := os.Getenv("PUBLIC_BASE_URL"); base != "" {
		cfg.Server.PublicBaseURL = base
	}

	// Database settings from DB_* environment variables
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Database.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil && n > 0 {
			cfg.Database.Port = n
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.Database.User = user
	}
	if pass := os.Getenv("DB_PASSWORD"); pass != "" {
		cfg.Database.Password = pass
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.Database.Name = name
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	} else if host := os.Getenv("REDIS_SERVICE_HOST"); host != "" {
		// K8s service discovery
		port := os.Getenv("REDIS_SERVICE_PORT")
		if port == "" {
			port = "6379"
		}
		cfg.Redis.Addr = host + ":" + port
	}
	if pass := os.Getenv("REDIS_PASSWORD"); pass != "" {
		cfg.Redis.Password = pass
	}

	if secret := os.Getenv("HANDOFF_SECRET"); secret != "" {
		cfg.Handoff.Secret = secret
	}
	if cfg.Handoff.Secret == "" {
		log.Printf("[Config] HANDOFF_SECRET not set, driver links use the built-in key")
	}
	if phone := os.Getenv("COMPANY_PHONE"); phone != "" {
		cfg.Company.Phone = phone
	}

	if bucket := os.Getenv("DOCS_BUCKET"); bucket != "" {
		cfg.Documents.Bucket = bucket
	}
	if endpoint := os.Getenv("DOCS_ENDPOINT"); endpoint != "" {
		cfg.Documents.Endpoint = endpoint
	}
	if key := os.Getenv("DOCS_ACCESS_KEY"); key != "" {
		cfg.Documents.AccessKey = key
	}
	if secret := os.Getenv("DOCS_SECRET_KEY"); secret != "" {
		cfg.Documents.SecretKey = secret
	}
}
