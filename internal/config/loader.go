package config

import (
	"log"
	"path/filepath"
	"time"

	"github.com/admitra/leadflow/internal/db"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config gathers everything the server needs at startup.
type Config struct {
	ListenAddr     string
	MigrationsPath string
	Database       db.Config
	Import         ImportConfig
}

// ImportConfig tunes the bulk import pipeline.
type ImportConfig struct {
	UploadDir         string
	ChunkSize         int
	WorkerConcurrency int
	QueueCapacity     int
	SessionTTL        time.Duration
	PreviewRows       int
	// PreviewMaxBytes is the file size above which inspect skips preview
	// generation (the session is still created).
	PreviewMaxBytes  int64
	ProgressInterval time.Duration
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		ListenAddr:     ":8080",
		MigrationsPath: "./migrations",
		Database:       db.DefaultConfig(),
		Import: ImportConfig{
			UploadDir:         filepath.Join("data", "uploads"),
			ChunkSize:         2000,
			WorkerConcurrency: 1,
			QueueCapacity:     100,
			SessionTTL:        30 * time.Minute,
			PreviewRows:       5,
			PreviewMaxBytes:   55 * 1024 * 1024,
			ProgressInterval:  5 * time.Second,
		},
	}
}

// Load reads config.yaml from configPath with env overrides. A local .env is
// honored first so DB credentials can live outside the yaml.
func Load(configPath string) (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on process environment")
	}

	cfg := Defaults()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("LEADFLOW")

	v.BindEnv("server.addr")
	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("import.upload_dir")
	v.BindEnv("import.worker_concurrency")

	if err := v.ReadInConfig(); err != nil {
		log.Println("No config.yaml found, using defaults and env vars")
	} else {
		log.Println("Loaded config.yaml")
	}

	if v.IsSet("server.addr") {
		cfg.ListenAddr = v.GetString("server.addr")
	}
	if v.IsSet("server.migrations_path") {
		cfg.MigrationsPath = v.GetString("server.migrations_path")
	}
	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("import.upload_dir") {
		cfg.Import.UploadDir = v.GetString("import.upload_dir")
	}
	if v.IsSet("import.chunk_size") {
		cfg.Import.ChunkSize = v.GetInt("import.chunk_size")
	}
	if v.IsSet("import.worker_concurrency") {
		cfg.Import.WorkerConcurrency = v.GetInt("import.worker_concurrency")
	}
	if v.IsSet("import.queue_capacity") {
		cfg.Import.QueueCapacity = v.GetInt("import.queue_capacity")
	}
	if v.IsSet("import.session_ttl") {
		cfg.Import.SessionTTL = v.GetDuration("import.session_ttl")
	}
	if v.IsSet("import.preview_rows") {
		cfg.Import.PreviewRows = v.GetInt("import.preview_rows")
	}
	if v.IsSet("import.preview_max_bytes") {
		cfg.Import.PreviewMaxBytes = v.GetInt64("import.preview_max_bytes")
	}
	if v.IsSet("import.progress_interval") {
		cfg.Import.ProgressInterval = v.GetDuration("import.progress_interval")
	}

	return cfg, nil
}
