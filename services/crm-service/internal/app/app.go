package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/stoik/simplecrm/services/crm-service/internal/auth"
	"github.com/stoik/simplecrm/services/crm-service/internal/config"
	"github.com/stoik/simplecrm/services/crm-service/internal/db"
	"github.com/stoik/simplecrm/services/crm-service/internal/logging"
	"github.com/stoik/simplecrm/services/crm-service/internal/people"
	"github.com/stoik/simplecrm/services/crm-service/internal/provider"
	"github.com/stoik/simplecrm/services/crm-service/internal/server"
	"github.com/stoik/simplecrm/services/crm-service/internal/users"
)

var rootCmd = &cobra.Command{
	Use:   "crm",
	Short: "Simple CRM",
	Long:  "Contact management service with Google sign-in",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the CRM web service",
	Long:  "Serves the contacts UI, the auth routes and the people API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}

		logger, err := logging.New(cfg.Log)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		config.Report(viper.GetViper(), logger)
		if err := cfg.Validate(); err != nil {
			return err
		}

		clients, err := db.Connect(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer clients.Close()

		idp, err := provider.NewProvider(cfg.Provider)
		if err != nil {
			return err
		}

		sessions, err := auth.NewSessionManager(cfg.Session)
		if err != nil {
			return err
		}

		var userRepo users.Repository
		if clients.Privileged != nil {
			userRepo = users.NewPostgresRepository(clients.Privileged.DB)
		} else {
			logger.Warn("database.service_key not set; sign-ins will be denied")
		}

		router, err := server.NewRouter(server.Deps{
			Logger:           logger,
			AppURL:           cfg.AppURL,
			Provider:         idp,
			Sessions:         sessions,
			Sync:             auth.NewSynchronizer(userRepo, logger),
			People:           people.NewPostgresRepository(clients.Restricted.DB),
			EnforceOwnership: cfg.EnforceOwnership,
		})
		if err != nil {
			return err
		}

		logger.Info("CRM service configured",
			zap.String("app_url", cfg.AppURL),
			zap.String("provider", idp.Name()),
			zap.Bool("enforce_ownership", cfg.EnforceOwnership),
		)

		return server.New(cfg.Addr, router, logger).Run(ctx)
	},
}

var persistentFlags = []struct {
	key   string
	value string
	usage string
}{
	{"server.addr", ":8080", "HTTP listen address"},
	{"app.url", "http://localhost:8080", "Public base URL of the app"},
	{"database.url", "", "Database connection URL"},
	{"provider.type", "google", "Identity provider type"},
	{"provider.api_url", "", "Identity provider base URL override (mock server)"},
	{"log.level", "info", "Log level: debug, info, warn, error"},
	{"log.format", "json", "Log format: json or console"},
}

func init() {
	cobra.OnInitialize(initConfig)

	for _, f := range persistentFlags {
		rootCmd.PersistentFlags().String(f.key, f.value, f.usage)
		viper.BindPFlag(f.key, rootCmd.PersistentFlags().Lookup(f.key))
	}
	rootCmd.PersistentFlags().Bool("api.enforce_ownership", false, "Require a session and scope people to their owner")
	viper.BindPFlag("api.enforce_ownership", rootCmd.PersistentFlags().Lookup("api.enforce_ownership"))

	rootCmd.AddCommand(runCmd)
}

func initConfig() {
	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	config.SetDefaults(viper.GetViper())
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./services/crm-service")
	config.BindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
