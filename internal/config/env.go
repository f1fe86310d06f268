package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "RELKIT_"

// loadEnvFile loads environment variables from .env/.env.local in dir.
// It attempts each supported filename in order and stops at the first file found.
// Existing process environment variables are not overwritten.
func loadEnvFile(dir string) error {
	for _, name := range []string{".env", ".env.local"} {
		envPath := filepath.Join(dir, name)
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err != nil {
			return fmt.Errorf("load %s: %w", envPath, err)
		}
		slog.Debug("Loaded environment variables", "path", envPath)
		return nil
	}
	return fmt.Errorf("no .env file found in %s", dir)
}

// envOverrides lists the settings that may come from RELKIT_* variables.
// Unset variables leave the file/default value in place.
type envOverrides struct {
	ProjectName     string `env:"PROJECT_NAME"`
	OutputDir       string `env:"OUTPUT_DIR"`
	ServePort       int    `env:"SERVE_PORT"`
	ServeDir        string `env:"SERVE_DIR"`
	HistoryPath     string `env:"HISTORY_PATH"`
	HistoryDisabled bool   `env:"HISTORY_DISABLED"`
	NATSURL         string `env:"NATS_URL"`
	S3Bucket        string `env:"S3_BUCKET"`
	S3Prefix        string `env:"S3_PREFIX"`
	S3Region        string `env:"S3_REGION"`
	S3Endpoint      string `env:"S3_ENDPOINT"`
	S3AccessKeyID   string `env:"S3_ACCESS_KEY_ID"`
	S3SecretKey     string `env:"S3_SECRET_ACCESS_KEY"`
}

// applyEnvOverrides overlays RELKIT_* environment variables onto cfg.
func applyEnvOverrides(cfg *Config) error {
	var o envOverrides
	if err := env.ParseWithOptions(&o, env.Options{Prefix: EnvPrefix}); err != nil {
		return err
	}

	setString(&cfg.Project.Name, o.ProjectName)
	setString(&cfg.Export.OutputDir, o.OutputDir)
	if o.ServePort > 0 {
		cfg.Serve.Port = o.ServePort
	}
	setString(&cfg.Serve.Dir, o.ServeDir)
	setString(&cfg.History.Path, o.HistoryPath)
	if o.HistoryDisabled {
		cfg.History.Enabled = false
	}
	setString(&cfg.Notify.NATSURL, o.NATSURL)
	setString(&cfg.Publish.Bucket, o.S3Bucket)
	setString(&cfg.Publish.Prefix, o.S3Prefix)
	setString(&cfg.Publish.Region, o.S3Region)
	setString(&cfg.Publish.Endpoint, o.S3Endpoint)
	setString(&cfg.Publish.AccessKeyID, o.S3AccessKeyID)
	setString(&cfg.Publish.SecretAccessKey, o.S3SecretKey)
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
