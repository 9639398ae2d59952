package env

import (
	"os"

	"github.com/gofiber/fiber/v2/log"
	"github.com/joho/godotenv"
)

var values map[string]string

// GetEnv returns the value for key from the loaded .env file, falling back
// to the process environment and then the given default.
func GetEnv(key, def string) string {
	if val, ok := values[key]; ok {
		return val
	}
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// SetupEnvFile loads the first .env file it finds, searching from the
// working directory up to the project root. Running without one is fine
// in containers, where everything arrives via the process environment.
func SetupEnvFile() {
	candidates := []string{
		".env",
		"../../.env",
		"../../../.env",
	}

	for _, path := range candidates {
		loaded, err := godotenv.Read(path)
		if err == nil {
			values = loaded
			return
		}
	}

	log.Info("[Env] no .env file found, using process environment only")
}

func IsDev() bool {
	return GetEnv("APP_ENV", "prod") == "dev"
}
