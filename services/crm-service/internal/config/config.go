package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/stoik/simplecrm/services/crm-service/internal/auth"
	"github.com/stoik/simplecrm/services/crm-service/internal/db"
	"github.com/stoik/simplecrm/services/crm-service/internal/logging"
	"github.com/stoik/simplecrm/services/crm-service/internal/provider"
)

// Config is the full runtime configuration of the CRM service.
type Config struct {
	Addr             string
	AppURL           string
	EnforceOwnership bool
	Database         db.Config
	Provider         provider.Config
	Session          auth.SessionConfig
	Log              logging.Config
}

// Keys lists every setting the service consumes.
var Keys = []string{
	"server.addr",
	"app.url",
	"database.url",
	"database.anon_role",
	"database.anon_key",
	"database.service_role",
	"database.service_key",
	"google.client_id",
	"google.client_secret",
	"auth.secret",
	"auth.cookie_name",
	"auth.max_age",
	"provider.type",
	"provider.api_url",
	"api.enforce_ownership",
	"log.level",
	"log.format",
}

// SetDefaults registers the default of every optional key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("app.url", "http://localhost:8080")
	v.SetDefault("database.anon_role", "anon")
	v.SetDefault("database.service_role", "service_role")
	v.SetDefault("auth.cookie_name", "crm_session")
	v.SetDefault("auth.max_age", "720h")
	v.SetDefault("provider.type", provider.TypeGoogle)
	v.SetDefault("api.enforce_ownership", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", logging.FormatJSON)
}

// BindEnv makes every key resolvable from its upper-cased environment
// variable, with dots replaced by underscores.
func BindEnv(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range Keys {
		_ = v.BindEnv(key)
	}
}

// Load reads the configuration from v. It does not validate; call Validate
// before serving.
func Load(v *viper.Viper) (Config, error) {
	maxAge, err := time.ParseDuration(v.GetString("auth.max_age"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid auth.max_age: %w", err)
	}

	appURL := strings.TrimRight(v.GetString("app.url"), "/")

	return Config{
		Addr:             v.GetString("server.addr"),
		AppURL:           appURL,
		EnforceOwnership: v.GetBool("api.enforce_ownership"),
		Database: db.Config{
			URL:         v.GetString("database.url"),
			AnonRole:    v.GetString("database.anon_role"),
			AnonKey:     v.GetString("database.anon_key"),
			ServiceRole: v.GetString("database.service_role"),
			ServiceKey:  v.GetString("database.service_key"),
		},
		Provider: provider.Config{
			Type:         v.GetString("provider.type"),
			ClientID:     v.GetString("google.client_id"),
			ClientSecret: v.GetString("google.client_secret"),
			AppURL:       appURL,
			APIURL:       v.GetString("provider.api_url"),
		},
		Session: auth.SessionConfig{
			Secret:     v.GetString("auth.secret"),
			CookieName: v.GetString("auth.cookie_name"),
			MaxAge:     maxAge,
			AppURL:     appURL,
		},
		Log: logging.Config{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}, nil
}

// Validate checks everything the run command needs.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("server.addr not configured")
	}
	if c.AppURL == "" {
		return fmt.Errorf("app.url not configured")
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Provider.Validate(); err != nil {
		return err
	}
	return c.Session.Validate()
}

// Report logs whether each setting is present without revealing values.
func Report(v *viper.Viper, logger *zap.Logger) {
	for _, key := range Keys {
		state := "NOT SET"
		if v.IsSet(key) && v.GetString(key) != "" {
			state = "SET"
		}
		logger.Info("Config", zap.String("key", key), zap.String("state", state))
	}
}
