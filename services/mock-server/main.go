package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stoik/simplecrm/services/mock-server/internal/mock"
)

const defaultAccounts = 50

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	port := os.Getenv("PORT")
	if port == "" {
		port = "9090"
	}

	accounts := defaultAccounts
	if v := os.Getenv("MOCK_ACCOUNTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			accounts = n
		}
	}

	r := gin.Default()

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	provider := mock.NewProvider(accounts)
	provider.Register(r)

	addr := fmt.Sprintf(":%s", port)
	logger.Info("Starting mock Google OAuth server", zap.String("addr", addr), zap.Int("accounts", accounts))
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}
