package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/visadesk/visadesk/internal/api"
	"github.com/visadesk/visadesk/internal/flow"
	"github.com/visadesk/visadesk/internal/leads"
	"github.com/visadesk/visadesk/internal/lockfile"
	"github.com/visadesk/visadesk/internal/messaging"
	"github.com/visadesk/visadesk/internal/scheduler"
	"github.com/visadesk/visadesk/internal/store"
	"github.com/visadesk/visadesk/internal/twiliowhatsapp"
	"github.com/visadesk/visadesk/internal/util"
	"github.com/visadesk/visadesk/internal/whatsapp"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for VisaDesk state data
	DefaultStateDir = "/var/lib/visadesk"
	// DefaultWhatsAppDBFileName is the default SQLite database filename for the WhatsApp session
	DefaultWhatsAppDBFileName = "whatsmeow.db"
	// DefaultPruneCron is the default schedule for the stale-session maintenance job
	DefaultPruneCron = "0 3 * * *"
	// BackendWhatsApp selects the Whatsmeow transport
	BackendWhatsApp = "whatsapp"
	// BackendTwilio selects the Twilio transport
	BackendTwilio = "twilio"
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

	slog.Info("Bootstrapping VisaDesk", "backend", *flags.backend)
	if err := run(flags); err != nil {
		slog.Error("VisaDesk failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("VisaDesk exited successfully")
}

// Config holds environment configuration
type Config struct {
	StateDir     string
	DBDSN        string
	WhatsAppDSN  string
	AdminNumber  string
	WelcomeImage string
	Backend      string
	APIAddr      string
	PruneCron    string
	NumericCode  bool
}

// Flags holds command line flag values
type Flags struct {
	qrOutput     *string
	numeric      *bool
	stateDir     *string
	dbDSN        *string
	whatsappDSN  *string
	adminNumber  *string
	welcomeImage *string
	backend      *string
	apiAddr      *string
	pruneCron    *string
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
		StateDir:     os.Getenv("VISADESK_STATE_DIR"),
		DBDSN:        os.Getenv("VISADESK_DB_DSN"),
		WhatsAppDSN:  os.Getenv("WHATSAPP_DB_DSN"),
		AdminNumber:  os.Getenv("ADMIN_NUMBER"),
		WelcomeImage: os.Getenv("WELCOME_IMAGE"),
		Backend:      os.Getenv("MESSAGING_BACKEND"),
		APIAddr:      os.Getenv("API_ADDR"),
		PruneCron:    os.Getenv("VISADESK_PRUNE_SCHEDULE"),
		NumericCode:  util.ParseBoolEnv("VISADESK_NUMERIC_CODE", false),
	}

	// Set default state directory if not specified
	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No VISADESK_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}

	// Fall back to the shared DATABASE_URL for both stores
	if config.DBDSN == "" {
		config.DBDSN = os.Getenv("DATABASE_URL")
		if config.DBDSN != "" {
			slog.Debug("Using DATABASE_URL as VISADESK_DB_DSN", "dsn_set", true)
		}
	}
	if config.WhatsAppDSN == "" {
		if store.DetectDSNType(config.DBDSN) == "postgres" {
			config.WhatsAppDSN = config.DBDSN
		} else {
			config.WhatsAppDSN = filepath.Join(config.StateDir, DefaultWhatsAppDBFileName)
			slog.Debug("No WhatsApp DSN provided, defaulting to SQLite", "sqlite_path", config.WhatsAppDSN)
		}
	}

	if config.Backend == "" {
		config.Backend = BackendWhatsApp
	}
	if config.APIAddr == "" {
		config.APIAddr = api.DefaultAddr
	}
	if config.PruneCron == "" {
		config.PruneCron = DefaultPruneCron
	}

	slog.Debug("environment variables loaded",
		"VISADESK_STATE_DIR", config.StateDir,
		"VISADESK_DB_DSN_SET", config.DBDSN != "",
		"WHATSAPP_DB_DSN_SET", config.WhatsAppDSN != "",
		"ADMIN_NUMBER_SET", config.AdminNumber != "",
		"WELCOME_IMAGE", config.WelcomeImage,
		"MESSAGING_BACKEND", config.Backend,
		"API_ADDR", config.APIAddr,
		"VISADESK_PRUNE_SCHEDULE", config.PruneCron,
		"VISADESK_NUMERIC_CODE", config.NumericCode)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		qrOutput:     flag.String("qr-output", "", "path to write login QR code"),
		numeric:      flag.Bool("numeric-code", config.NumericCode, "use numeric login code instead of QR code (overrides $VISADESK_NUMERIC_CODE)"),
		stateDir:     flag.String("state-dir", config.StateDir, "state directory for VisaDesk data (overrides $VISADESK_STATE_DIR)"),
		dbDSN:        flag.String("db-dsn", config.DBDSN, "database DSN for session and lead storage (overrides $VISADESK_DB_DSN or $DATABASE_URL)"),
		whatsappDSN:  flag.String("whatsapp-db-dsn", config.WhatsAppDSN, "database DSN for the WhatsApp session store (overrides $WHATSAPP_DB_DSN)"),
		adminNumber:  flag.String("admin-number", config.AdminNumber, "chat ID notified about new leads (overrides $ADMIN_NUMBER)"),
		welcomeImage: flag.String("welcome-image", config.WelcomeImage, "path to the greeting image (overrides $WELCOME_IMAGE)"),
		backend:      flag.String("backend", config.Backend, "messaging backend, whatsapp or twilio (overrides $MESSAGING_BACKEND)"),
		apiAddr:      flag.String("api-addr", config.APIAddr, "operator API listen address (overrides $API_ADDR)"),
		pruneCron:    flag.String("prune-cron", config.PruneCron, "cron schedule for stale-session pruning (overrides $VISADESK_PRUNE_SCHEDULE)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"qrOutput", *flags.qrOutput,
		"numeric", *flags.numeric,
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"whatsappDSN_set", *flags.whatsappDSN != "",
		"adminNumberSet", *flags.adminNumber != "",
		"welcomeImage", *flags.welcomeImage,
		"backend", *flags.backend,
		"apiAddr", *flags.apiAddr,
		"pruneCron", *flags.pruneCron)

	return flags
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	if store.DetectDSNType(*flags.dbDSN) != "postgres" {
		slog.Debug("Creating state directory for file-based storage", "state_dir", *flags.stateDir)
		if err := os.MkdirAll(*flags.stateDir, store.DefaultDirPermissions); err != nil {
			slog.Error("Failed to create state directory", "error", err, "state_dir", *flags.stateDir)
			return err
		}
	}
	if store.DetectDSNType(*flags.whatsappDSN) == "sqlite" {
		dir := filepath.Dir(*flags.whatsappDSN)
		if err := os.MkdirAll(dir, store.DefaultDirPermissions); err != nil {
			slog.Error("Failed to create WhatsApp database directory", "error", err, "dir", dir)
			return err
		}
	}
	return nil
}

// buildStoreOptions constructs store configuration options
func buildStoreOptions(flags Flags) []store.Option {
	storeOpts := []store.Option{store.WithStateDir(*flags.stateDir)}
	if *flags.dbDSN != "" {
		slog.Debug("Configuring database store", "dsn_type", store.DetectDSNType(*flags.dbDSN))
		storeOpts = append(storeOpts, store.WithDSN(*flags.dbDSN))
	} else {
		slog.Debug("No database DSN provided, using file store", "state_dir", *flags.stateDir)
	}
	return storeOpts
}

// buildWhatsAppOptions constructs WhatsApp client configuration options
func buildWhatsAppOptions(flags Flags) []whatsapp.Option {
	var waOpts []whatsapp.Option
	if *flags.qrOutput != "" {
		waOpts = append(waOpts, whatsapp.WithQRCodeOutput(*flags.qrOutput))
	}
	if *flags.numeric {
		waOpts = append(waOpts, whatsapp.WithNumericCode())
	}
	if *flags.whatsappDSN != "" {
		waOpts = append(waOpts, whatsapp.WithDBDSN(*flags.whatsappDSN))
	}
	return waOpts
}

// buildMessagingService constructs the messaging backend selected by flags.
// The returned webhook handler is non-nil only for backends that receive
// inbound messages over HTTP.
func buildMessagingService(flags Flags) (messaging.Service, http.HandlerFunc, error) {
	switch *flags.backend {
	case BackendWhatsApp:
		client, err := whatsapp.NewClient(buildWhatsAppOptions(flags)...)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create WhatsApp client: %w", err)
		}
		return messaging.NewWhatsAppService(client), nil, nil

	case BackendTwilio:
		client, err := twiliowhatsapp.NewClient()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Twilio client: %w", err)
		}
		svc := messaging.NewTwilioService(client)
		return svc, svc.TwilioWebhookHandler, nil

	default:
		return nil, nil, fmt.Errorf("unknown messaging backend %q", *flags.backend)
	}
}

// run wires the store, messaging backend, lead sink, flow router, operator
// API, and maintenance scheduler together and processes inbound messages
// until the process is signalled to stop.
func run(flags Flags) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// One instance per state directory: snapshots are rewritten whole.
	lock, err := lockfile.AcquireLock(*flags.stateDir)
	if err != nil {
		return fmt.Errorf("failed to acquire state directory lock: %w", err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			slog.Error("Failed to release state directory lock", "error", err)
		}
	}()

	st, err := store.NewStore(buildStoreOptions(flags)...)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			slog.Error("Failed to close store", "error", err)
		}
	}()

	svc, webhook, err := buildMessagingService(flags)
	if err != nil {
		return err
	}

	sink := leads.NewSink(st, svc, *flags.adminNumber)
	router := flow.NewRouter(st, svc, sink, *flags.welcomeImage)

	apiOpts := []api.Option{api.WithAddr(*flags.apiAddr)}
	if webhook != nil {
		apiOpts = append(apiOpts, api.WithWebhook(webhook))
	}
	api.NewServer(st, apiOpts...).Start(ctx)

	sched := scheduler.NewScheduler()
	defer sched.Stop()
	if err := sched.AddJob(*flags.pruneCron, func() {
		if _, err := store.PruneStaleSessions(st, store.DefaultSessionMaxIdle); err != nil {
			slog.Error("Session pruning failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule session pruning: %w", err)
	}

	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start messaging service: %w", err)
	}
	defer func() {
		if err := svc.Stop(); err != nil {
			slog.Error("Failed to stop messaging service", "error", err)
		}
	}()

	slog.Info("VisaDesk ready, waiting for messages")

	// Messages are handled sequentially: each turn loads the snapshot, mutates
	// one session, and saves before the next message is processed.
	for {
		select {
		case <-ctx.Done():
			slog.Info("Shutdown signal received")
			return nil
		case resp, ok := <-svc.Responses():
			if !ok {
				slog.Info("Response channel closed")
				return nil
			}
			if err := router.HandleResponse(ctx, resp); err != nil {
				slog.Error("Failed to handle message", "error", err, "from", resp.From)
			}
		case receipt, ok := <-svc.Receipts():
			if !ok {
				slog.Info("Receipt channel closed")
				return nil
			}
			slog.Debug("Receipt received", "recipient", receipt.To, "status", receipt.Status)
		}
	}
}
