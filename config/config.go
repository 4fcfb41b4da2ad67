package config

import (
	"errors"
	"os"

	"github.com/SaiNageswarS/gcs-transfer/dotenv"
	"github.com/caarlos0/env/v11"
	"github.com/go-ini/ini"
)

// TransferConfig holds the bucket and credential the CLI operates on.
// The credential is a path to a service-account key, never the key itself.
// Leave it empty to fall back to Application Default Credentials.
type TransferConfig struct {
	Bucket          string `ini:"bucket" env:"BUCKET"`
	CredentialsFile string `ini:"credentials_file" env:"CREDENTIALS_FILE"`

	// Secret Manager
	GcpProjectId string `ini:"gcp_project_id" env:"GCP_PROJECT_ID"`
	LoadSecrets  bool   `ini:"load_secrets" env:"LOAD_SECRETS"`

	// node_exporter textfile collector target
	MetricsFile string `ini:"metrics_file" env:"METRICS_FILE"`
}

// Loads config into the target struct from the given path - an INI file.
// A missing INI file is not an error. The section is picked by the ENV variable
// (default section when unset), after which .env and process environment
// variables override the INI values.
func LoadConfig[T any](path string, target *T) error {
	if target == nil {
		return errors.New("target cannot be nil")
	}

	// Step 1: .env first so it can select the run mode.
	if err := dotenv.LoadEnv(); err != nil {
		return err
	}

	file, err := ini.LooseLoad(path)
	if err != nil {
		return err
	}

	// Step 2: Load from INI
	runMode := os.Getenv("ENV")
	if err := file.Section(runMode).MapTo(target); err != nil {
		return err
	}

	// Step 3: Override from ENV
	return ApplyEnv(target)
}

// ApplyEnv overrides target fields from environment variables. Call it again
// after secrets have been loaded into the environment.
func ApplyEnv[T any](target *T) error {
	if target == nil {
		return errors.New("target cannot be nil")
	}
	return env.Parse(target)
}
