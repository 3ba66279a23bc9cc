// Command inventoryd serves the inventory REST API from a SQLite file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/rpggio/stocksync/internal/config"
	"github.com/rpggio/stocksync/internal/fakeapi"
	"github.com/rpggio/stocksync/internal/logging"
	"github.com/rpggio/stocksync/internal/repository"
	"github.com/rpggio/stocksync/internal/sqlite"
)

func main() {
	issue := flag.String("issue-key", "", "issue an API key for USER[:TENANT[:ROLE]] and exit; TENANT defaults to the user's personal scope, * leaves it unpinned")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog, err := logging.New(cfg.Log, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		logger.Error("failed to prepare database path", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	api := fakeapi.NewServer(db, logger)

	if *issue != "" {
		if err := issueKey(api.Keys, *issue); err != nil {
			logger.Error("failed to issue key", "error", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           api.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := serve(ctx, logger, httpServer); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

type keySpec struct {
	userID   string
	tenantID string
	role     repository.Role
}

// parseKeySpec parses USER[:TENANT[:ROLE]]. An omitted tenant pins the key
// to the user's personal scope; "*" leaves it unpinned.
func parseKeySpec(arg string) (keySpec, error) {
	parts := strings.SplitN(arg, ":", 3)
	ks := keySpec{userID: strings.TrimSpace(parts[0]), role: repository.RoleAdmin}
	if ks.userID == "" {
		return keySpec{}, errors.New("user id is required")
	}
	ks.tenantID = ks.userID
	if len(parts) > 1 && parts[1] != "" {
		ks.tenantID = parts[1]
	}
	if ks.tenantID == "*" {
		ks.tenantID = ""
	}
	if len(parts) > 2 && parts[2] != "" {
		ks.role = repository.Role(parts[2])
	}
	if ks.role != repository.RoleAdmin && ks.role != repository.RoleMember {
		return keySpec{}, fmt.Errorf("unknown role %q", ks.role)
	}
	return ks, nil
}

// issueKey stores a fresh key for arg and prints the raw token once.
func issueKey(keys *fakeapi.KeyResolver, arg string) error {
	ks, err := parseKeySpec(arg)
	if err != nil {
		return err
	}
	token := "ssk_" + uuid.NewString()
	if err := keys.Issue(context.Background(), token, ks.userID, ks.tenantID, ks.role); err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

// serve runs server until ctx is cancelled or the listener fails.
func serve(ctx context.Context, logger *slog.Logger, server *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	return server.Shutdown(shutdownCtx)
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
