package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nilm987521/gofep/internal/admin/auth"
	"github.com/nilm987521/gofep/internal/events"
	"github.com/nilm987521/gofep/internal/logger"
	"github.com/nilm987521/gofep/internal/protocol/iso8583"
	"github.com/nilm987521/gofep/internal/telemetry"
	"github.com/nilm987521/gofep/pkg/adapter/iso"
	"github.com/nilm987521/gofep/pkg/admin"
	"github.com/nilm987521/gofep/pkg/config"
	"github.com/nilm987521/gofep/pkg/gateway"
	"github.com/nilm987521/gofep/pkg/metrics"
	"github.com/nilm987521/gofep/pkg/metrics/prometheus"
	"github.com/spf13/cobra"
)

var (
	daemonize bool
	pidFile   string
	logFile   string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the GoFEP processor",
	Long: `Start the GoFEP front-end processor with the specified configuration.

By default, the processor runs in the foreground. Use --daemon to fork into
the background with a PID file, or run it under a process supervisor.

Use --config to specify a custom configuration file, or it will use the
default location at $HOME/.gofep/config.yaml.

Examples:
  # Start in foreground (default)
  gofep start

  # Start in background
  gofep start --daemon

  # Start with custom config file
  gofep start --config /etc/gofep/config.yaml

  # Start with environment variable overrides
  GOFEP_LOGGING_LEVEL=DEBUG gofep start`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().BoolVarP(&daemonize, "daemon", "d", false, "Run in background (daemon mode)")
	startCmd.Flags().StringVar(&pidFile, "pid-file", "", "Path to PID file (default: $XDG_STATE_HOME/gofep/gofep.pid)")
	startCmd.Flags().StringVar(&logFile, "log-file", "", "Path to log file for daemon mode (default: $XDG_STATE_HOME/gofep/gofep.log)")
}

func runStart(cmd *cobra.Command, args []string) error {
	// Handle daemon mode (background)
	if daemonize {
		return startDaemon()
	}

	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	// Initialize the structured logger
	if err := InitLogger(cfg); err != nil {
		return err
	}

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry (if enabled)
	telemetryCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "gofep",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	}
	telemetryShutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	// Initialize Pyroscope profiling (if enabled)
	profilingCfg := telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "gofep",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	}
	profilingShutdown, err := telemetry.InitProfiling(profilingCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	fmt.Println("GoFEP - ISO 8583 front-end processor")
	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	} else {
		logger.Info("Telemetry disabled")
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint, "profile_types", cfg.Telemetry.Profiling.ProfileTypes)
	} else {
		logger.Info("Profiling disabled")
	}

	// Initialize metrics (if enabled)
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		logger.Info("Metrics collection enabled")
	} else {
		logger.Info("Metrics collection disabled")
	}

	// Event bus feeds the admin websocket, the Kafka mirror and the
	// workflow handler
	bus := events.NewBus(cfg.Events.BufferSize)
	defer bus.Close()

	if cfg.Events.Kafka.Enabled {
		forwarder := events.NewKafkaForwarder(events.KafkaConfig{
			Brokers:      cfg.Events.Kafka.Brokers,
			Topic:        cfg.Events.Kafka.Topic,
			BatchSize:    cfg.Events.Kafka.BatchSize,
			BatchTimeout: cfg.Events.Kafka.BatchTimeout,
			Types:        cfg.Events.Kafka.Types,
		}, bus)
		defer func() {
			if err := forwarder.Close(); err != nil {
				logger.Error("kafka forwarder shutdown error", "error", err)
			}
		}()
		logger.Info("Kafka event mirror enabled", "brokers", cfg.Events.Kafka.Brokers, "topic", cfg.Events.Kafka.Topic)
	}

	// Load field definition tables
	tables, err := buildTableRegistry(cfg)
	if err != nil {
		return err
	}

	if cfg.Fields.Watch && len(cfg.Fields.Tables) > 0 {
		watcher, err := iso8583.NewTableWatcher(tables)
		if err != nil {
			return fmt.Errorf("failed to start field table watcher: %w", err)
		}
		defer func() { _ = watcher.Close() }()
		for name := range cfg.Fields.Tables {
			if err := watcher.Watch(name); err != nil {
				return fmt.Errorf("failed to watch field table %q: %w", name, err)
			}
		}
		logger.Info("Field table hot reload enabled", "tables", len(cfg.Fields.Tables))
	}

	// Metrics recorders return nil when the registry is disabled; the
	// components treat nil as "collect nothing". Built once: the
	// underlying collectors register with the process registry.
	gatewayMetrics := prometheus.NewGatewayMetrics()
	serverMetrics := prometheus.NewServerMetrics()

	// Outbound host link
	var gw *gateway.Gateway
	if cfg.Gateway.IsEnabled() {
		gwTable, err := tables.Table(cfg.Gateway.Provider)
		if err != nil {
			return fmt.Errorf("gateway field table: %w", err)
		}
		policy, err := gateway.ParseFailurePolicy(cfg.Gateway.FailureStrategy)
		if err != nil {
			return err
		}

		gw = gateway.New(gateway.Config{
			SendHost:             cfg.Gateway.SendHost,
			SendPort:             cfg.Gateway.SendPort,
			ReceiveHost:          cfg.Gateway.ReceiveHost,
			ReceivePort:          cfg.Gateway.ReceivePort,
			ConnectTimeout:       cfg.Gateway.ConnectTimeout,
			ReadTimeout:          cfg.Gateway.ReadTimeout,
			HeartbeatInterval:    cfg.Gateway.HeartbeatInterval,
			AutoReconnect:        cfg.Gateway.IsAutoReconnect(),
			ReconnectMaxAttempts: cfg.Gateway.ReconnectMaxAttempts,
			FailureStrategy:      policy,
			InstitutionID:        cfg.Gateway.InstitutionID,
			MaxInFlight:          cfg.Gateway.MaxInFlight,
		}, iso8583.NewCodec(gwTable),
			gateway.WithMetrics(gatewayMetrics),
			gateway.WithEvents(bus))
		defer func() {
			if err := gw.Close(); err != nil {
				logger.Error("gateway shutdown error", "error", err)
			}
		}()
		logger.Info("Gateway configured",
			"send", fmt.Sprintf("%s:%d", cfg.Gateway.SendHost, cfg.Gateway.SendPort),
			"receive", fmt.Sprintf("%s:%d", cfg.Gateway.ReceiveHost, cfg.Gateway.ReceivePort),
			"policy", policy, "provider", cfg.Gateway.Provider)
	} else {
		logger.Info("Gateway disabled")
	}

	// Inbound ISO 8583 listener
	var listener *iso.Adapter
	if cfg.Server.IsEnabled() {
		srvTable, err := tables.Table(cfg.Server.Provider)
		if err != nil {
			return fmt.Errorf("server field table: %w", err)
		}

		var handler iso.Handler
		switch {
		case cfg.Server.Workflow.Enabled:
			wf := iso.NewWorkflowHandler(iso.WorkflowConfig{
				TTL: cfg.Server.Workflow.TTL,
			}, bus, iso.WithWorkflowMetrics(serverMetrics))
			defer wf.Close()
			handler = wf
			logger.Info("Workflow handler enabled", "ttl", cfg.Server.Workflow.TTL)
		case gw != nil:
			handler = iso.NewForwardHandler(gw, cfg.Server.ResponseTimeout)
		default:
			logger.Warn("No financial handler configured, requests get the invalid-transaction reply",
				"hint", "enable the gateway or server.workflow")
		}

		listener = iso.New(iso.Config{
			BindAddress:           cfg.Server.BindAddress,
			Port:                  cfg.Server.Port,
			Channel:               cfg.Server.Channel,
			MaxConnections:        cfg.Server.MaxConnections,
			MaxRequestsPerSession: cfg.Server.MaxRequestsPerSession,
			ResponseTimeout:       cfg.Server.ResponseTimeout,
			IdleTimeout:           cfg.Server.IdleTimeout,
			WriteTimeout:          cfg.Server.WriteTimeout,
			ShutdownTimeout:       cfg.ShutdownTimeout,
		}, iso8583.NewCodec(srvTable), handler,
			iso.WithMetrics(serverMetrics),
			iso.WithEvents(bus))
		logger.Info("Inbound server configured",
			"port", cfg.Server.Port, "channel", cfg.Server.Channel, "provider", cfg.Server.Provider)
	} else {
		logger.Info("Inbound server disabled")
	}

	// Admin API
	var adminServer *admin.Server
	if cfg.Admin.IsEnabled() {
		rt := &admin.Runtime{
			Tables:  tables,
			Bus:     bus,
			Version: Version,
		}
		// Assign through locals so a disabled component stays a nil
		// interface inside the runtime.
		if gw != nil {
			rt.Gateway = gw
		}
		if listener != nil {
			rt.Listener = listener
		}

		adminServer, err = admin.NewServer(admin.Config{
			Host:                 cfg.Admin.Host,
			Port:                 cfg.Admin.Port,
			JWTSecret:            cfg.Admin.JWTSecret,
			AccessTokenDuration:  cfg.Admin.AccessTokenDuration,
			RefreshTokenDuration: cfg.Admin.RefreshTokenDuration,
			ReadTimeout:          cfg.Admin.ReadTimeout,
			WriteTimeout:         cfg.Admin.WriteTimeout,
			IdleTimeout:          cfg.Admin.IdleTimeout,
			Users:                adminUsers(cfg.Admin.Users),
		}, rt)
		if err != nil {
			return fmt.Errorf("failed to create admin server: %w", err)
		}
		logger.Info("Admin API configured", "host", cfg.Admin.Host, "port", cfg.Admin.Port, "users", len(cfg.Admin.Users))
	} else {
		logger.Info("Admin API disabled")
	}

	// Write PID file if specified
	if pidFile != "" {
		if err := os.WriteFile(pidFile, []byte(fmt.Sprintf("%d", os.Getpid())), 0644); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
		defer func() { _ = os.Remove(pidFile) }()
	}

	var services []service
	if gw != nil {
		host := gw
		services = append(services, service{"gateway", func(ctx context.Context) error {
			if err := host.Connect(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("gateway connect: %w", err)
			}
			if err := host.SignOn(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("initial sign-on failed, continuing without session", "error", err)
			}
			<-ctx.Done()
			return nil
		}})
	}
	if listener != nil {
		services = append(services, service{"server", listener.Serve})
	}
	if adminServer != nil {
		services = append(services, service{"admin", adminServer.Start})
	}
	if len(services) == 0 {
		return errors.New("nothing to run: gateway, server and admin API are all disabled")
	}

	// Start components in background
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- runServices(ctx, services)
	}()

	// Wait for interrupt signal or component error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Processor is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()

		// Wait for components to shut down gracefully
		if err := <-serverDone; err != nil {
			logger.Error("Processor shutdown error", "error", err)
			return err
		}
		logger.Info("Processor stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("Processor error", "error", err)
			return err
		}
		logger.Info("Processor stopped")
	}

	return nil
}

// service is one long-running component of the processor. run blocks until
// the context is cancelled or the component fails.
type service struct {
	name string
	run  func(context.Context) error
}

// runServices runs every service until the first failure or context
// cancellation, then waits for the rest to stop. Returns the first error.
func runServices(ctx context.Context, services []service) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errs := make(chan error, len(services))
	for _, svc := range services {
		go func() {
			err := svc.run(ctx)
			if err != nil {
				logger.Error("component stopped with error", "component", svc.name, "error", err)
			} else {
				logger.Debug("component stopped", "component", svc.name)
			}
			errs <- err
		}()
	}

	var first error
	for range services {
		if err := <-errs; err != nil && first == nil {
			first = err
			cancel()
		}
	}
	return first
}

// buildTableRegistry loads the built-in FISC layout plus every table from
// configuration. Configured tables load eagerly so a broken definition file
// fails startup instead of the first transaction.
func buildTableRegistry(cfg *config.Config) (*iso8583.TableRegistry, error) {
	tables := iso8583.NewTableRegistry()
	tables.RegisterTable(iso8583.DefaultTable())

	for name, path := range cfg.Fields.Tables {
		tables.Register(name, path)
		t, err := tables.Table(name)
		if err != nil {
			return nil, fmt.Errorf("failed to load field table %q: %w", name, err)
		}
		logger.Info("Field table loaded", "provider", t.Provider(), "path", path, "fields", t.Len())
	}
	return tables, nil
}

// adminUsers converts the configured operator accounts to the auth layer's
// representation.
func adminUsers(users []config.AdminUser) []auth.UserSpec {
	specs := make([]auth.UserSpec, 0, len(users))
	for _, u := range users {
		specs = append(specs, auth.UserSpec{
			Username:     u.Username,
			PasswordHash: u.PasswordHash,
			Role:         u.Role,
		})
	}
	return specs
}

// getConfigSource returns a description of where the config was loaded from.
func getConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}
