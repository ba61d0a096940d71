package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/username/workdays-api/internal/api"
	"github.com/username/workdays-api/internal/businesstime"
	"github.com/username/workdays-api/internal/calendar"
	"github.com/username/workdays-api/internal/config"
	"github.com/username/workdays-api/internal/daemon"
	"github.com/username/workdays-api/internal/holiday"
	"github.com/username/workdays-api/pkg/dateutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	configPath string
	logger     *zap.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "workdays-api",
		Short: "Business days and hours calculator",
		Long:  "Add business days and hours to an instant, skipping weekends, holidays and the lunch break",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load config to get log file path
			cfg, err := config.Load(configPath)
			if err == nil && cfg.Log.File != "" {
				logger, err = initFileLogger(cfg.Log.File, cfg.Log.Level)
				if err != nil {
					initLogger("info") // Fallback to console
				}
			} else if err == nil {
				initLogger(cfg.Log.Level)
			} else {
				initLogger("info") // Default console logger
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (default: search ./config.yaml)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(calcCmd())
	rootCmd.AddCommand(holidaysCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with scheduled holiday refresh",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			svc, err := initializeServices(cfg)
			if err != nil {
				return err
			}

			handler := api.NewHandler(svc.calculator, svc.holidays, logger)

			d, err := daemon.NewDaemon(handler, svc.holidays, daemon.Options{
				Listen:          cfg.Server.Listen,
				ReadTimeout:     cfg.Server.GetReadTimeout(),
				WriteTimeout:    cfg.Server.GetWriteTimeout(),
				ShutdownTimeout: cfg.Server.GetShutdownTimeout(),
				RefreshCron:     cfg.Holidays.RefreshCron,
			}, logger)
			if err != nil {
				return err
			}

			return d.Start()
		},
	}
}

func calcCmd() *cobra.Command {
	var days, hours int
	var date string

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Compute one business date and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := businesstime.ValidateParameters(days, hours); err != nil {
				return err
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			svc, err := initializeServices(cfg)
			if err != nil {
				return err
			}

			start := svc.rules.Now()
			if date != "" {
				if start, err = dateutil.ParseISOZ(date); err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
			}

			res, err := svc.calculator.CalculateBusinessDate(context.Background(), start, days, hours)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), dateutil.FormatISOZ(res.ResultUTC()))
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "Business days to add")
	cmd.Flags().IntVar(&hours, "hours", 0, "Business hours to add")
	cmd.Flags().StringVar(&date, "date", "", "Start instant, e.g. 2025-01-01T10:00:00Z (default: now)")

	return cmd
}

func holidaysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "holidays",
		Short: "Fetch and print the holiday list in use",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			svc, err := initializeServices(cfg)
			if err != nil {
				return err
			}

			snap := svc.holidays.Refresh(context.Background())

			source := "remote"
			if snap.FromFallback {
				source = "fallback"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d holidays (%s)\n", snap.Holidays.Len(), source)
			fmt.Fprintln(out, strings.Join(snap.Holidays.Dates(), "\n"))
			return nil
		},
	}
}

type services struct {
	holidays   *holiday.Source
	rules      *calendar.Rules
	calculator *businesstime.Calculator
}

func initializeServices(cfg *config.Config) (*services, error) {
	// Fallback list: file override or built-in
	var fallback []string
	if cfg.Holidays.FallbackFile != "" {
		dates, err := holiday.LoadFallbackFile(cfg.Holidays.FallbackFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load fallback holidays: %w", err)
		}
		fallback = dates
	}

	fetcher := holiday.NewHTTPFetcher(cfg.Holidays.URL, cfg.Holidays.GetTimeout(), logger)
	source := holiday.NewSource(fetcher, cfg.Holidays.GetCacheTTL(), dateutil.RealClock{}, fallback, logger)
	source.SetRetryBackoff(cfg.Holidays.GetRetryBackoff())

	hours, err := cfg.Calendar.WorkingHours()
	if err != nil {
		return nil, err
	}

	rules, err := calendar.NewRules(source, calendar.Config{
		Location:      cfg.Calendar.Location(),
		Hours:         hours,
		MaxIterations: cfg.Calendar.MaxIterations,
		Clock:         dateutil.RealClock{},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar rules: %w", err)
	}

	logger.Debug("Calendar configured",
		zap.String("zone", cfg.Calendar.Location().String()),
		zap.Duration("daily_hours", hours.DailyHours()),
		zap.Int("max_iterations", cfg.Calendar.MaxIterations))

	return &services{
		holidays:   source,
		rules:      rules,
		calculator: businesstime.NewCalculator(rules, logger),
	}, nil
}

func initLogger(level string) {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err == nil {
		config.Level = zap.NewAtomicLevelAt(zapLevel)
	}

	var err error
	logger, err = config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
}

func initFileLogger(logFile string, level string) (*zap.Logger, error) {
	// Setup lumberjack for log rotation
	logWriter := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    100,  // MB
		MaxBackups: 3,    // Keep max 3 old log files
		MaxAge:     28,   // days
		Compress:   true, // Compress old logs with gzip
	}

	// Setup encoder
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	// Parse log level
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	// Create core with lumberjack writer
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(logWriter),
		zapLevel,
	)

	return zap.New(core), nil
}
