package config

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Addr          string
	DirectionsURL string
	PlacesURL     string
	Latitude      float64 // fallback viewport coordinate
	Longitude     float64
	DBPath        string
	SessionTTL    time.Duration // session location cache expiry
	MockMode      bool
	Debug         bool
}

// Load parses command line flags and environment variables to populate Config.
// Flags take precedence over environment variables.
func Load() *Config {
	cfg := &Config{}

	// Defaults and Environment Variables
	cfg.Addr = getEnv("SAFEROUTE_ADDR", ":8080")
	cfg.DirectionsURL = getEnv("SAFEROUTE_DIRECTIONS_URL", "https://moyak.store/direction")
	cfg.PlacesURL = getEnv("SAFEROUTE_PLACES_URL", "https://moyak.store/api")
	// Daegu city center; used when every acquisition tier fails.
	cfg.Latitude = getEnvFloat("SAFEROUTE_LAT", 35.8714)
	cfg.Longitude = getEnvFloat("SAFEROUTE_LNG", 128.6014)
	cfg.DBPath = getEnv("SAFEROUTE_DB", getDefaultDBPath())
	cfg.MockMode = getEnvBool("SAFEROUTE_MOCK", false)
	sessionTTLHours := getEnvFloat("SAFEROUTE_SESSION_TTL_HOURS", 1)

	// Command Line Flags (Override Env)
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP server address")
	flag.StringVar(&cfg.DirectionsURL, "directions-url", cfg.DirectionsURL, "Route computation service base URL")
	flag.StringVar(&cfg.PlacesURL, "places-url", cfg.PlacesURL, "POI services base URL")
	flag.Float64Var(&cfg.Latitude, "lat", cfg.Latitude, "Fallback Latitude")
	flag.Float64Var(&cfg.Longitude, "lng", cfg.Longitude, "Fallback Longitude")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to session store SQLite database")
	flag.BoolVar(&cfg.MockMode, "mock", cfg.MockMode, "Run with a simulated sensor and route/place services")
	flag.BoolVar(&cfg.Debug, "debug", false, "Enable verbose debug logging")
	flag.Float64Var(&sessionTTLHours, "session-ttl", sessionTTLHours, "Session location cache TTL in hours (1-48)")

	flag.Parse()

	if sessionTTLHours < 1 {
		sessionTTLHours = 1
	}
	if sessionTTLHours > 48 {
		sessionTTLHours = 48
	}
	cfg.SessionTTL = time.Duration(sessionTTLHours * float64(time.Hour))

	return cfg
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getDefaultDBPath returns the default database path in user's home directory.
// Creates the directory if it doesn't exist.
func getDefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Printf("Warning: Could not get user home directory, using current dir: %v", err)
		return "saferoute.db"
	}

	dir := filepath.Join(home, ".saferoute")
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("Warning: Could not create .saferoute directory, using current dir: %v", err)
		return "saferoute.db"
	}

	return filepath.Join(dir, "saferoute.db")
}
