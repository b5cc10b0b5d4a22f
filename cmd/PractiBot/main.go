package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/YoPracticando/PractiBot/internal/api"
	"github.com/YoPracticando/PractiBot/internal/bot"
	"github.com/YoPracticando/PractiBot/internal/chatwoot"
	"github.com/YoPracticando/PractiBot/internal/genai"
	"github.com/YoPracticando/PractiBot/internal/phone"
	"github.com/YoPracticando/PractiBot/internal/store"
	"github.com/YoPracticando/PractiBot/internal/twiliowhatsapp"
	"github.com/YoPracticando/PractiBot/internal/util"
	"github.com/YoPracticando/PractiBot/internal/webhook"
	"github.com/YoPracticando/PractiBot/internal/whatsapp"
	"github.com/joho/godotenv"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for PractiBot state data
	DefaultStateDir = "/var/lib/practibot"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "practibot.db"
)

func main() {
	// Initialize structured logger
	initializeLogger()

	// Load environment configuration
	config := loadEnvironmentConfig()

	// Parse command line flags
	flags := parseCommandLineFlags(config)

	// Ensure required directories exist
	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	opts := bot.Opts{
		StateDir:     *flags.stateDir,
		UseTwilio:    *flags.useTwilio,
		PhoneOpts:    buildPhoneOptions(flags),
		WhatsAppOpts: buildWhatsAppOptions(flags),
		TwilioOpts:   buildTwilioOptions(config),
		StoreOpts:    buildStoreOptions(flags),
		GenAIOpts:    buildGenAIOptions(flags),
		ChatwootOpts: buildChatwootOptions(config),
		WebhookOpts:  buildWebhookOptions(flags),
		APIOpts:      buildAPIOptions(flags),
	}

	// Start the service
	slog.Info("Bootstrapping PractiBot with configured modules")
	slog.Debug("Final configuration",
		"state_dir", *flags.stateDir,
		"dsn_set", *flags.dbDSN != "",
		"twilio", *flags.useTwilio,
		"webhook_addr", *flags.webhookAddr,
		"api_addr", *flags.apiAddr)
	if err := bot.Run(opts); err != nil {
		slog.Error("PractiBot failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("PractiBot exited successfully")
}

// Config holds environment configuration
type Config struct {
	WhatsAppDSN     string
	DatabaseURL     string
	StateDir        string
	OpenAIKey       string
	WebhookAddr     string
	APIAddr         string
	CountryCode     string
	MobilePrefix    string
	UseTwilio       bool
	TwilioSID       string
	TwilioToken     string
	TwilioFrom      string
	ChatwootBaseURL string
	ChatwootToken   string
	ChatwootInbox   string
	ChatwootAccount string
}

// Flags holds command line flag values
type Flags struct {
	qrOutput     *string
	numeric      *bool
	stateDir     *string
	dbDSN        *string
	openaiKey    *string
	webhookAddr  *string
	apiAddr      *string
	countryCode  *string
	mobilePrefix *string
	useTwilio    *bool
}

// initializeLogger sets up structured logging with debug level
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		WhatsAppDSN:     os.Getenv("WHATSAPP_DB_DSN"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		StateDir:        os.Getenv("PRACTIBOT_STATE_DIR"),
		OpenAIKey:       os.Getenv("OPENAI_API_KEY"),
		WebhookAddr:     os.Getenv("WEBHOOK_ADDR"),
		APIAddr:         os.Getenv("API_ADDR"),
		CountryCode:     os.Getenv("PHONE_COUNTRY_CODE"),
		MobilePrefix:    os.Getenv("PHONE_MOBILE_PREFIX"),
		UseTwilio:       util.ParseBoolEnv("USE_TWILIO", false),
		TwilioSID:       os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioToken:     os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFrom:      os.Getenv("TWILIO_FROM_NUMBER"),
		ChatwootBaseURL: os.Getenv("CHATWOOT_BASE_URL"),
		ChatwootToken:   os.Getenv("CHATWOOT_API_TOKEN"),
		ChatwootInbox:   os.Getenv("CHATWOOT_INBOX_ID"),
		ChatwootAccount: os.Getenv("CHATWOOT_ACCOUNT_ID"),
	}

	// Set default state directory if not specified
	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No PRACTIBOT_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	} else {
		slog.Debug("PRACTIBOT_STATE_DIR found in environment", "state_dir", config.StateDir)
	}

	// Default to the shared database URL if a WhatsApp-specific DSN is not set
	if config.WhatsAppDSN == "" {
		config.WhatsAppDSN = config.DatabaseURL
		if config.DatabaseURL != "" {
			slog.Debug("Using DATABASE_URL as WHATSAPP_DB_DSN", "dsn_set", true)
		}
	}

	// If no database URL is provided, default to SQLite in the state directory
	if config.WhatsAppDSN == "" {
		config.WhatsAppDSN = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.WhatsAppDSN)
	}

	slog.Debug("environment variables loaded",
		"WHATSAPP_DB_DSN_SET", config.WhatsAppDSN != "",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"PRACTIBOT_STATE_DIR", config.StateDir,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"WEBHOOK_ADDR", config.WebhookAddr,
		"API_ADDR", config.APIAddr,
		"USE_TWILIO", config.UseTwilio,
		"CHATWOOT_BASE_URL_SET", config.ChatwootBaseURL != "",
		"CHATWOOT_API_TOKEN_SET", config.ChatwootToken != "")

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		qrOutput:     flag.String("qr-output", "", "path to write login QR code"),
		numeric:      flag.Bool("numeric-code", false, "use numeric login code instead of QR code"),
		stateDir:     flag.String("state-dir", config.StateDir, "state directory for PractiBot data (overrides $PRACTIBOT_STATE_DIR)"),
		dbDSN:        flag.String("db-dsn", config.WhatsAppDSN, "database DSN for WhatsApp and vacancy store (overrides $WHATSAPP_DB_DSN or $DATABASE_URL)"),
		openaiKey:    flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		webhookAddr:  flag.String("webhook-addr", config.WebhookAddr, "Chatwoot webhook listen address (overrides $WEBHOOK_ADDR)"),
		apiAddr:      flag.String("api-addr", config.APIAddr, "admin API listen address (overrides $API_ADDR)"),
		countryCode:  flag.String("country-code", config.CountryCode, "home-country dialing code (overrides $PHONE_COUNTRY_CODE)"),
		mobilePrefix: flag.String("mobile-prefix", config.MobilePrefix, "mobile indicator digits after the country code (overrides $PHONE_MOBILE_PREFIX)"),
		useTwilio:    flag.Bool("twilio", config.UseTwilio, "use Twilio as the WhatsApp provider (overrides $USE_TWILIO)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"qrOutput", *flags.qrOutput,
		"numeric", *flags.numeric,
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"openaiKeySet", *flags.openaiKey != "",
		"webhookAddr", *flags.webhookAddr,
		"apiAddr", *flags.apiAddr,
		"useTwilio", *flags.useTwilio)

	// Update database DSN if not explicitly set but state directory is provided
	if *flags.dbDSN == config.WhatsAppDSN && config.WhatsAppDSN == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "dsn_updated", true, "old_state_dir", config.StateDir, "new_state_dir", *flags.stateDir)
	}

	return flags
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	if err := os.MkdirAll(*flags.stateDir, 0755); err != nil {
		slog.Error("Failed to create state directory", "error", err, "state_dir", *flags.stateDir)
		return err
	}
	// Ensure the database directory exists if we're using a file-based DSN
	if !strings.Contains(*flags.dbDSN, "postgres://") && !strings.Contains(*flags.dbDSN, "host=") {
		dbDir := filepath.Dir(*flags.dbDSN)
		slog.Debug("Creating directory for file-based database", "db_dir", dbDir)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			slog.Error("Failed to create database directory", "error", err, "db_dir", dbDir)
			return err
		}
	}
	return nil
}

// buildPhoneOptions constructs phone normalizer options
func buildPhoneOptions(flags Flags) []phone.Option {
	var phoneOpts []phone.Option
	if *flags.countryCode != "" {
		phoneOpts = append(phoneOpts, phone.WithCountryCode(*flags.countryCode))
	}
	if *flags.mobilePrefix != "" {
		phoneOpts = append(phoneOpts, phone.WithMobilePrefix(*flags.mobilePrefix))
	}
	return phoneOpts
}

// buildWhatsAppOptions constructs WhatsApp configuration options
func buildWhatsAppOptions(flags Flags) []whatsapp.Option {
	var waOpts []whatsapp.Option
	if *flags.qrOutput != "" {
		waOpts = append(waOpts, whatsapp.WithQRCodeOutput(*flags.qrOutput))
	}
	if *flags.numeric {
		waOpts = append(waOpts, whatsapp.WithNumericCode())
	}
	if *flags.dbDSN != "" {
		waOpts = append(waOpts, whatsapp.WithDBDSN(*flags.dbDSN))
	}
	return waOpts
}

// buildTwilioOptions constructs Twilio client options
func buildTwilioOptions(config Config) []twiliowhatsapp.Option {
	var twilioOpts []twiliowhatsapp.Option
	if config.TwilioSID != "" {
		twilioOpts = append(twilioOpts, twiliowhatsapp.WithAccountSID(config.TwilioSID))
	}
	if config.TwilioToken != "" {
		twilioOpts = append(twilioOpts, twiliowhatsapp.WithAuthToken(config.TwilioToken))
	}
	if config.TwilioFrom != "" {
		twilioOpts = append(twilioOpts, twiliowhatsapp.WithFromWhats(config.TwilioFrom))
	}
	return twilioOpts
}

// buildStoreOptions constructs vacancy store configuration options
func buildStoreOptions(flags Flags) []store.Option {
	var storeOpts []store.Option
	if *flags.dbDSN != "" {
		if store.DetectDSNType(*flags.dbDSN) == "postgres" {
			slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store", "dsn_type", "postgres", "dsn_set", true)
		} else {
			slog.Debug("Detected SQLite DSN, configuring SQLite store", "dsn_type", "sqlite", "db_path", *flags.dbDSN)
		}
		storeOpts = append(storeOpts, store.WithDSN(*flags.dbDSN))
	} else {
		slog.Debug("No database DSN provided, store will use its default path")
	}
	return storeOpts
}

// buildGenAIOptions constructs GenAI configuration options
func buildGenAIOptions(flags Flags) []genai.Option {
	var genaiOpts []genai.Option
	if *flags.openaiKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(*flags.openaiKey))
	}
	return genaiOpts
}

// buildChatwootOptions constructs support-inbox client options
func buildChatwootOptions(config Config) []chatwoot.Option {
	var cwOpts []chatwoot.Option
	if config.ChatwootBaseURL != "" {
		cwOpts = append(cwOpts, chatwoot.WithBaseURL(config.ChatwootBaseURL))
	}
	if config.ChatwootToken != "" {
		cwOpts = append(cwOpts, chatwoot.WithAPIToken(config.ChatwootToken))
	}
	if config.ChatwootInbox != "" {
		cwOpts = append(cwOpts, chatwoot.WithInboxID(config.ChatwootInbox))
	}
	if config.ChatwootAccount != "" {
		cwOpts = append(cwOpts, chatwoot.WithAccountID(config.ChatwootAccount))
	}
	return cwOpts
}

// buildWebhookOptions constructs webhook server options
func buildWebhookOptions(flags Flags) []webhook.Option {
	var whOpts []webhook.Option
	if *flags.webhookAddr != "" {
		whOpts = append(whOpts, webhook.WithAddr(*flags.webhookAddr))
	}
	return whOpts
}

// buildAPIOptions constructs admin API server options
func buildAPIOptions(flags Flags) []api.Option {
	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	return apiOpts
}
