package config

import (
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const devJWTSecret = "propertyhub-dev-secret"

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Storage  StorageConfig
	Redis    RedisConfig
	Cleanup  CleanupConfig
	Listing  ListingConfig
	Seed     SeedConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Driver     string // postgres, sqlite
	URL        string
	SQLitePath string
}

type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

type StorageConfig struct {
	Driver         string // local, s3, r2
	UploadDir      string
	URLPrefix      string
	OptimizeImages bool

	S3Bucket    string
	S3Region    string
	R2AccountID string
	R2AccessKey string
	R2SecretKey string
	CDNBaseURL  string
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type CleanupConfig struct {
	Schedule    string
	MaxAttempts int
	BatchSize   int
}

type ListingConfig struct {
	DefaultStatus string
}

// SeedConfig controls the reference data inserted at startup. The admin
// account is only created when both fields are set.
type SeedConfig struct {
	Enabled       bool
	AdminEmail    string
	AdminPassword string
}

func Load() *Config {
	// .env is optional; real environment variables win over it
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment and defaults")
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("PORT"),
		},
		Database: DatabaseConfig{
			Driver:     strings.ToLower(v.GetString("DB_DRIVER")),
			URL:        v.GetString("DATABASE_URL"),
			SQLitePath: v.GetString("SQLITE_PATH"),
		},
		JWT: JWTConfig{
			Secret:          v.GetString("JWT_SECRET"),
			ExpirationHours: v.GetInt("JWT_EXPIRATION_HOURS"),
		},
		Storage: StorageConfig{
			Driver:         strings.ToLower(v.GetString("STORAGE_DRIVER")),
			UploadDir:      v.GetString("UPLOAD_DIR"),
			URLPrefix:      v.GetString("UPLOAD_URL_PREFIX"),
			OptimizeImages: v.GetBool("OPTIMIZE_IMAGES"),
			S3Bucket:       v.GetString("S3_BUCKET"),
			S3Region:       v.GetString("S3_REGION"),
			R2AccountID:    v.GetString("R2_ACCOUNT_ID"),
			R2AccessKey:    v.GetString("R2_ACCESS_KEY"),
			R2SecretKey:    v.GetString("R2_SECRET_KEY"),
			CDNBaseURL:     v.GetString("CDN_BASE_URL"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("REDIS_ENABLED"),
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Cleanup: CleanupConfig{
			Schedule:    v.GetString("CLEANUP_CRON"),
			MaxAttempts: v.GetInt("CLEANUP_MAX_ATTEMPTS"),
			BatchSize:   v.GetInt("CLEANUP_BATCH_SIZE"),
		},
		Listing: ListingConfig{
			DefaultStatus: v.GetString("DEFAULT_PROPERTY_STATUS"),
		},
		Seed: SeedConfig{
			Enabled:       v.GetBool("SEED_DATA"),
			AdminEmail:    v.GetString("ADMIN_EMAIL"),
			AdminPassword: v.GetString("ADMIN_PASSWORD"),
		},
	}

	if cfg.JWT.Secret == "" {
		log.Println("JWT_SECRET is not set, falling back to the insecure development secret")
		cfg.JWT.Secret = devJWTSecret
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "3000")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("SQLITE_PATH", "data/property.db")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_EXPIRATION_HOURS", 24)
	v.SetDefault("STORAGE_DRIVER", "local")
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("UPLOAD_URL_PREFIX", "/uploads")
	v.SetDefault("OPTIMIZE_IMAGES", false)
	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_REGION", "eu-central-1")
	v.SetDefault("R2_ACCOUNT_ID", "")
	v.SetDefault("R2_ACCESS_KEY", "")
	v.SetDefault("R2_SECRET_KEY", "")
	v.SetDefault("CDN_BASE_URL", "")
	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_ADDR", "127.0.0.1:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CLEANUP_CRON", "@every 1m")
	v.SetDefault("CLEANUP_MAX_ATTEMPTS", 5)
	v.SetDefault("CLEANUP_BATCH_SIZE", 100)
	v.SetDefault("DEFAULT_PROPERTY_STATUS", "draft")
	v.SetDefault("SEED_DATA", true)
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")
}
