package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Host string
	Port string

	// Database settings
	DatabasePath string

	// Logging settings
	LogLevel  string
	LogFormat string

	// Portal settings
	PortalURL    string
	LookbackDays int

	// Output locations
	PDFDir      string
	CSVDir      string
	CaptchaPath string

	// Browser settings
	HeadlessMode bool
	UserAgent    string
	BrowserPath  string

	// Scraper timeouts
	ScraperTimeout      time.Duration
	TableWaitTimeout    time.Duration
	DownloadWaitTimeout time.Duration
	MaxPages            int
	RunTimeout          time.Duration

	// Live sessions kept for the operator UI
	SessionTTL  time.Duration
	MaxSessions int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	cfg := &Config{
		Host:         getEnv("HOST", "127.0.0.1"),
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./logs/data.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "text"),
		PortalURL:    getEnv("PORTAL_URL", "https://judgments.ecourts.gov.in/pdfsearch/"),
		PDFDir:       getEnv("PDF_DIR", "PDFs"),
		CSVDir:       getEnv("CSV_DIR", "CSVs"),
		CaptchaPath:  getEnv("CAPTCHA_PATH", "captcha.png"),
		UserAgent:    getEnv("USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"),
		BrowserPath:  getEnv("ROD_BROWSER_PATH", ""),
	}

	var err error
	cfg.LookbackDays, err = strconv.Atoi(getEnv("LOOKBACK_DAYS", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOOKBACK_DAYS: %w", err)
	}

	cfg.MaxPages, err = strconv.Atoi(getEnv("MAX_PAGES", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_PAGES: %w", err)
	}

	if cfg.ScraperTimeout, err = seconds("SCRAPER_TIMEOUT", "30"); err != nil {
		return nil, err
	}
	if cfg.TableWaitTimeout, err = seconds("TABLE_WAIT_TIMEOUT", "15"); err != nil {
		return nil, err
	}
	if cfg.DownloadWaitTimeout, err = seconds("DOWNLOAD_WAIT_TIMEOUT", "20"); err != nil {
		return nil, err
	}

	runTimeout, err := strconv.Atoi(getEnv("RUN_TIMEOUT", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid RUN_TIMEOUT: %w", err)
	}
	cfg.RunTimeout = time.Duration(runTimeout) * time.Minute

	sessionTTL, err := strconv.Atoi(getEnv("SESSION_TTL", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}
	cfg.SessionTTL = time.Duration(sessionTTL) * time.Minute

	cfg.MaxSessions, err = strconv.Atoi(getEnv("MAX_SESSIONS", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_SESSIONS: %w", err)
	}

	// Operators solve the CAPTCHA next to a visible browser by default
	cfg.HeadlessMode = getEnv("HEADLESS_MODE", "false") == "true"

	return cfg, nil
}

func seconds(key, defaultValue string) (time.Duration, error) {
	n, err := strconv.Atoi(getEnv(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return time.Duration(n) * time.Second, nil
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
