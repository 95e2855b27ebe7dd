package main

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewHTTPServer(t *testing.T) {
	config := &Config{}
	config.Server.Host = "127.0.0.1"
	require.NoError(t, InitConfig(config, "", "", ""))
	srv := newHTTPServer(config, zap.NewNop(), http.NotFoundHandler())
	assert.Equal(t, "127.0.0.1:3000", srv.Addr)
	assert.Equal(t, 10*time.Second, srv.ReadTimeout)
	assert.Equal(t, 15*time.Second, srv.WriteTimeout)
	assert.Equal(t, 60*time.Second, srv.IdleTimeout)
}

func TestSetupAppLogger(t *testing.T) {
	config := &Config{LogFile: filepath.Join(t.TempDir(), "logs", "books-api.log")}
	logger, cleanups, err := setupAppLogger(config, NewMockClocker())
	require.NoError(t, err)
	require.Len(t, cleanups, 2)
	logger.Info("book created", zap.String("book.id", "b:0"))
	(&App{cleanups: cleanups}).Clean()

	data, err := os.ReadFile(config.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"book.id":"b:0"`)
}
