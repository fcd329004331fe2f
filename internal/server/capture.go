package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ryecroft/amsync/internal/shared"
)

// CaptureUserToken runs the browser authorization flow: it serves the
// MusicKit page on the given address, opens the system browser, and
// blocks until the page posts a token back or the context ends.
func CaptureUserToken(ctx context.Context, host string, port int, developerToken string, logger *log.Logger) (string, error) {
	if developerToken == "" {
		return "", fmt.Errorf("%w: developer token is required for authorization", shared.ErrNotConfigured)
	}

	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	handler := NewTokenHandler(developerToken)

	router := NewBasicRouter()
	router.Use(Logging(logger))
	router.Handler(handler)

	addr := fmt.Sprintf("%s:%d", host, port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{Handler: router}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	url := fmt.Sprintf("http://%s/", addr)
	logger.Info("waiting for browser authorization", "url", url)

	if err := shared.OpenBrowser(url); err != nil {
		logger.Warn("could not open browser, visit the URL manually", "url", url, "error", err)
	}

	select {
	case result := <-handler.Result():
		if err := result.Error(); err != nil {
			return "", err
		}
		return result.UserToken, nil
	case err := <-serveErr:
		return "", fmt.Errorf("authorization server failed: %w", err)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
