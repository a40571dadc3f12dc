package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time parses sweep interval durations
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations and costs.
type Config struct {
	Env                string        // application environment (e.g. "dev", "prod")
	Port               string        // HTTP port to listen on
	DBUser             string        // database username
	DBPass             string        // database password (optional)
	DBHost             string        // database host address
	DBPort             string        // database port number
	DBName             string        // database name
	AccessTTLMin       int           // access token time-to-live in minutes
	RefreshTTLDays     int           // refresh token time-to-live in days
	BcryptCost         int           // bcrypt cost for password hashing
	TokenSweepInterval time.Duration // interval between expired-token sweeps (0 disables)
	WeatherAPIKey      string        // OpenWeatherMap API key
	GroqAPIKey         string        // Groq LLM API key
	DiseaseModelURL    string        // base URL of the crop disease inference service
	IrrigationModelURL string        // base URL of the irrigation regression service
	STTModelURL        string        // base URL of the speech recognition service
	AudioDir           string        // directory for synthesized assistant audio files
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message. Token TTLs and the
// bcrypt cost fall back to defaults when unset.
func Load() Config {
	return Config{
		Env:                must("APP_ENV"),
		Port:               must("APP_PORT"),
		DBUser:             must("DB_USER"),
		DBPass:             os.Getenv("DB_PASS"),
		DBHost:             must("DB_HOST"),
		DBPort:             must("DB_PORT"),
		DBName:             must("DB_NAME"),
		AccessTTLMin:       intOr("ACCESS_TOKEN_TTL_MIN", 30),
		RefreshTTLDays:     intOr("REFRESH_TOKEN_TTL_DAYS", 7),
		BcryptCost:         intOr("BCRYPT_COST", 10),
		TokenSweepInterval: durOr("TOKEN_SWEEP_INTERVAL", time.Hour),
		WeatherAPIKey:      os.Getenv("WEATHER_API_KEY"),
		GroqAPIKey:         os.Getenv("GROQ_API_KEY"),
		DiseaseModelURL:    os.Getenv("DISEASE_MODEL_URL"),
		IrrigationModelURL: os.Getenv("IRRIGATION_MODEL_URL"),
		STTModelURL:        os.Getenv("STT_MODEL_URL"),
		AudioDir:           strOr("AUDIO_DIR", "static/audio"),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// intOr converts the variable to an integer, falling back to def when the
// variable is unset. A malformed value is a fatal configuration error.
func intOr(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// durOr parses the variable as a Go duration, falling back to def when
// unset. "0" or "off" disables the associated feature.
func durOr(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	if s == "0" || s == "off" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Fatalf("invalid duration for %s: %q", key, s)
	}
	return d
}

func strOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
