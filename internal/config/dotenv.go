package config

import (
	"os"

	"github.com/joho/godotenv"
)

// dotEnvCandidates 우선순위 순서: .env.<env>.local > .env.<env> > .env.local > .env
func dotEnvCandidates(env string) []string {
	files := make([]string, 0, 4)
	if env != "" {
		files = append(files, ".env."+env+".local", ".env."+env)
	}
	return append(files, ".env.local", ".env")
}

// LoadDotEnv loads the existing dotenv files for APP_ENV. Variables already
// present in the process environment are never overwritten, and an earlier
// file wins over a later one. Returns the files that were loaded.
func LoadDotEnv() []string {
	var loaded []string
	for _, f := range dotEnvCandidates(os.Getenv("APP_ENV")) {
		if _, err := os.Stat(f); err == nil {
			loaded = append(loaded, f)
		}
	}
	if len(loaded) > 0 {
		_ = godotenv.Load(loaded...)
	}
	return loaded
}
