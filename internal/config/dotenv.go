package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// DotEnvFile is the name of the optional environment file.
const DotEnvFile = ".env"

// LoadDotEnv loads .env from the working directory and then from the
// directory containing configPath. Variables that are already set are never
// overridden, so the real environment wins, then the working directory's
// file, then the config directory's. Missing files are ignored.
func LoadDotEnv(configPath string) []string {
	candidates := []string{DotEnvFile}
	if configPath != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(configPath), DotEnvFile))
	}

	var loaded []string
	seen := make(map[string]bool)
	for _, path := range candidates {
		abs, err := filepath.Abs(path)
		if err != nil || seen[abs] {
			continue
		}
		seen[abs] = true
		if _, err := os.Stat(abs); err != nil {
			continue
		}
		if err := godotenv.Load(abs); err != nil {
			slog.Warn("failed to load env file", "path", abs, "error", err)
			continue
		}
		loaded = append(loaded, abs)
	}
	return loaded
}
