package dotenv

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv loads environment variables from the given files, ".env" when none
// are passed. Missing files are skipped and variables already present in the
// process environment win.
func LoadEnv(envPath ...string) error {
	if len(envPath) == 0 {
		envPath = append(envPath, ".env")
	}

	var existing []string
	for _, filename := range envPath {
		if _, err := os.Stat(filename); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		existing = append(existing, filename)
	}

	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

func LoadEnvFromString(env string) error {
	values, err := godotenv.Unmarshal(env)
	if err != nil {
		return err
	}

	for key, value := range values {
		if _, found := os.LookupEnv(key); found {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}
	return nil
}
