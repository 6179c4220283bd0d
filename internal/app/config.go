package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"touch_daily/internal/config"
	"touch_daily/internal/costindex"
	"touch_daily/internal/notifications"
	"touch_daily/internal/processing"
	"touch_daily/internal/touch"
	"touch_daily/internal/workbook"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// SetupEnvironment loads .env file, configures zerolog output and log level
// and tags every event with a fresh run id.
func SetupEnvironment() string {
	// Load .env file if it exists
	err := godotenv.Load()

	// Configure logging
	if os.Getenv("ENV") == "production" {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = log.Output(os.Stderr)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	runID := uuid.NewString()
	log.Logger = log.With().Str("run_id", runID).Logger()

	levelStr := strings.ToLower(os.Getenv("LOGLEVEL"))
	switch levelStr {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	case "panic":
		zerolog.SetGlobalLevel(zerolog.PanicLevel)
	case "disabled":
		zerolog.SetGlobalLevel(zerolog.Disabled)
	case "":
		// Default based on environment
		if os.Getenv("ENV") == "production" {
			zerolog.SetGlobalLevel(zerolog.WarnLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Warn().Msgf("Unknown LOGLEVEL '%s', defaulting to info.", levelStr)
	}

	// wait until now to report on the .env file so we have the chance to set up logging first
	if err == nil {
		log.Debug().Msg("Loaded environment variables from .env file.")
	} else {
		log.Debug().Msg("No .env file found or error loading .env file; proceeding with existing environment variables.")
	}
	return runID
}

// Configuration keys. Each is read from the environment and may be
// overridden by the matching command-line flag.
const (
	KeyTouchBase     = "TOUCH_BASE"
	KeyTouchUser     = "TOUCH_USER"
	KeyTouchPassword = "TOUCH_PASSWORD"
	KeyTouchTimeout  = "TOUCH_TIMEOUT"
	KeyTouchStores   = "TOUCH_TIENDAS"
	KeyDate          = "DAILY_DATE"
	KeyTemplate      = "DAILY_TEMPLATE"
	KeyOutputDir     = "DAILY_OUTPUT_DIR"
	KeyTargetSheet   = "TARGET_SHEET"
	KeyWindowAnchor  = "COST_WINDOW_ANCHOR"
	KeyScanLimit     = "SCAN_ROW_LIMIT"
	KeyGoogleCreds   = "GOOGLE_SA_JSON"
	KeyGoogleSheetID = "GOOGLE_SHEET_ID"
	KeyDriveFolderID = "GDRIVE_FOLDER_ID"
	KeyNtfyEnabled   = "NTFY_ENABLED"
	KeyNtfyURL       = "NTFY_URL"
	KeyNtfyTopic     = "NTFY_TOPIC"
	KeyNtfyPriority  = "NTFY_PRIORITY"
)

// NewViper returns a viper instance reading the environment with every
// default set.
func NewViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault(KeyTouchBase, touch.DefaultBaseURL)
	v.SetDefault(KeyTouchTimeout, 45)
	v.SetDefault(KeyTemplate, "Daily plantilla 2025.xlsx")
	v.SetDefault(KeyOutputDir, ".")
	v.SetDefault(KeyTargetSheet, "BBDDcoste")
	v.SetDefault(KeyWindowAnchor, string(costindex.AnchorCurrentMonth))
	v.SetDefault(KeyScanLimit, workbook.DefaultScanLimit)
	v.SetDefault(KeyNtfyEnabled, false)
	v.SetDefault(KeyNtfyURL, "https://ntfy.sh")
	v.SetDefault(KeyNtfyTopic, "touch-daily")
	return v
}

type Config struct {
	TouchBase     string
	TouchUser     string
	TouchPassword string
	TouchTimeout  time.Duration
	// Stores is empty when every store reported by the API is processed.
	Stores []int

	Date         time.Time
	Template     string
	OutputDir    string
	TargetSheet  string
	WindowAnchor costindex.Anchor
	ScanLimit    int

	GoogleCreds   string
	GoogleSheetID string
	DriveFolderID string

	NtfyEnabled  bool
	NtfyURL      string
	NtfyTopic    string
	NtfyPriority string

	Resilience config.ResilienceConfig
}

// LoadConfig validates and converts the values held by v. now supplies the
// default date.
func LoadConfig(v *viper.Viper, now time.Time) (*Config, error) {
	stores, err := ParseStores(v.GetString(KeyTouchStores))
	if err != nil {
		return nil, err
	}
	date, err := ParseDate(v.GetString(KeyDate), now)
	if err != nil {
		return nil, err
	}
	anchor, err := costindex.ParseAnchor(v.GetString(KeyWindowAnchor))
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(v.GetInt(KeyTouchTimeout)) * time.Second
	if timeout <= 0 {
		return nil, fmt.Errorf("%s must be a positive number of seconds", KeyTouchTimeout)
	}

	cfg := &Config{
		TouchBase:     v.GetString(KeyTouchBase),
		TouchUser:     v.GetString(KeyTouchUser),
		TouchPassword: v.GetString(KeyTouchPassword),
		TouchTimeout:  timeout,
		Stores:        stores,
		Date:          date,
		Template:      v.GetString(KeyTemplate),
		OutputDir:     v.GetString(KeyOutputDir),
		TargetSheet:   v.GetString(KeyTargetSheet),
		WindowAnchor:  anchor,
		ScanLimit:     v.GetInt(KeyScanLimit),
		GoogleCreds:   v.GetString(KeyGoogleCreds),
		GoogleSheetID: v.GetString(KeyGoogleSheetID),
		DriveFolderID: v.GetString(KeyDriveFolderID),
		NtfyEnabled:   v.GetBool(KeyNtfyEnabled),
		NtfyURL:       v.GetString(KeyNtfyURL),
		NtfyTopic:     v.GetString(KeyNtfyTopic),
		NtfyPriority:  v.GetString(KeyNtfyPriority),
		Resilience:    config.WithAPITimeout(timeout),
	}

	log.Debug().
		Str("date", cfg.Date.Format("2006-01-02")).
		Ints("stores", cfg.Stores).
		Str("anchor", string(cfg.WindowAnchor)).
		Int("scan_limit", cfg.ScanLimit).
		Str("output_dir", cfg.OutputDir).
		Msg("Configuration loaded")
	return cfg, nil
}

// ParseStores parses a comma separated list of store ids. Blank input means
// every store.
func ParseStores(s string) ([]int, error) {
	var ids []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid store id %q in %s", part, KeyTouchStores)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ParseDate parses an ISO date. Blank input selects the calendar day of now.
func ParseDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return costindex.Day(now), nil
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be YYYY-MM-DD: %w", KeyDate, err)
	}
	return d, nil
}

// CSVPath is the sales export for the configured date.
func (c *Config) CSVPath() string {
	return filepath.Join(c.OutputDir, processing.CSVName(c.Date))
}

// WorkbookPath is the generated workbook for the configured date.
func (c *Config) WorkbookPath() string {
	return filepath.Join(c.OutputDir, WorkbookName(c.Date))
}

// NewTouchClient creates the TouchExpress client from the configuration.
func (c *Config) NewTouchClient() *touch.Client {
	if c.TouchUser == "" || c.TouchPassword == "" {
		log.Warn().Msg("TOUCH_USER or TOUCH_PASSWORD is empty; requests will likely be rejected")
	}
	return touch.NewClient(c.TouchBase, c.TouchUser, c.TouchPassword, c.TouchTimeout)
}

// NewNotificationClient creates the ntfy client from the configuration.
func (c *Config) NewNotificationClient() *notifications.Client {
	log.Debug().
		Bool("enabled", c.NtfyEnabled).
		Str("base_url", c.NtfyURL).
		Str("topic", c.NtfyTopic).
		Msg("Initializing notification client")

	client := notifications.NewClient(c.NtfyURL, c.NtfyTopic, c.NtfyPriority, c.NtfyEnabled, c.Resilience.Notification)

	if c.NtfyEnabled {
		log.Info().Str("topic", c.NtfyTopic).Msg("Notifications enabled")
	} else {
		log.Debug().Msg("Notifications disabled")
	}
	return client
}

// WorkbookName is the file name of the generated workbook for a day.
func WorkbookName(day time.Time) string {
	return fmt.Sprintf("Daily_%s.xlsx", day.Format("2006-01-02"))
}
