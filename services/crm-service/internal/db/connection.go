package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// Config describes how to reach the data store. Each tier logs in to the
// same database with its own role and key.
type Config struct {
	URL         string
	AnonRole    string
	AnonKey     string
	ServiceRole string
	ServiceKey  string
}

// Client is one connection tier to the data store.
type Client struct {
	Role string
	Pool *pgxpool.Pool
	DB   *sql.DB
}

// Clients holds the restricted tier used by request handlers and the
// privileged tier that bypasses row-level security. Privileged is nil when no
// service key is configured.
type Clients struct {
	Restricted *Client
	Privileged *Client
}

func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("database.url not configured")
	}
	if c.AnonKey == "" {
		return fmt.Errorf("database.anon_key not configured")
	}
	if c.AnonRole == "" {
		return fmt.Errorf("database.anon_role not configured")
	}
	if c.ServiceKey != "" && c.ServiceRole == "" {
		return fmt.Errorf("database.service_role not configured")
	}
	return nil
}

// Connect opens and pings every configured tier.
func Connect(ctx context.Context, cfg Config) (*Clients, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	restricted, err := open(ctx, cfg.URL, cfg.AnonRole, cfg.AnonKey)
	if err != nil {
		return nil, fmt.Errorf("failed to open restricted client: %w", err)
	}

	clients := &Clients{Restricted: restricted}

	if cfg.ServiceKey != "" {
		privileged, err := open(ctx, cfg.URL, cfg.ServiceRole, cfg.ServiceKey)
		if err != nil {
			clients.Close()
			return nil, fmt.Errorf("failed to open privileged client: %w", err)
		}
		clients.Privileged = privileged
	}

	return clients, nil
}

// Close releases every open tier.
func (c *Clients) Close() {
	for _, client := range []*Client{c.Restricted, c.Privileged} {
		if client == nil {
			continue
		}
		client.DB.Close()
		client.Pool.Close()
	}
}

func open(ctx context.Context, rawURL, role, key string) (*Client, error) {
	connString, err := withCredentials(rawURL, role, key)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database as %s: %w", role, err)
	}

	return &Client{Role: role, Pool: pool, DB: stdlib.OpenDBFromPool(pool)}, nil
}

// withCredentials replaces the user info of a postgres URL with role:key.
func withCredentials(rawURL, role, key string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid database.url: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("invalid database.url: unsupported scheme %q", u.Scheme)
	}
	u.User = url.UserPassword(role, key)
	return u.String(), nil
}
