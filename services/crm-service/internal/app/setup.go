package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stoik/simplecrm/services/crm-service/internal/config"
	"github.com/stoik/simplecrm/services/crm-service/internal/db"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create the database schema",
	Long:  "Creates the users and people tables through the privileged client and grants the restricted role access to people",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		cfg, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		if cfg.Database.ServiceKey == "" {
			return fmt.Errorf("database.service_key not configured")
		}

		clients, err := db.Connect(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer clients.Close()

		fmt.Println("Creating schema...")
		granted, err := db.EnsureSchema(ctx, clients.Privileged.DB, cfg.Database.AnonRole)
		if err != nil {
			return err
		}

		if granted {
			fmt.Printf("✓ Database setup complete. Role %q can read and insert people.\n", cfg.Database.AnonRole)
		} else {
			fmt.Printf("✓ Database setup complete. Role %q does not exist; no grants applied.\n", cfg.Database.AnonRole)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
