package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/foliodev/folio/internal/config"
	"github.com/foliodev/folio/internal/store"

	// Register store backends.
	_ "github.com/foliodev/folio/internal/store/mongostore"
	_ "github.com/foliodev/folio/internal/store/sqlstore"
)

// newDevSecret returns a random signing key for --dev runs without a
// configured secret.
func newDevSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate dev secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// findConfigFile returns the first folio.yaml in the search path, or "".
func findConfigFile() string {
	dirs := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".folio"))
	}
	for _, dir := range dirs {
		for _, ext := range []string{".yaml", ".yml"} {
			p := filepath.Join(dir, config.FileName+ext)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}
	return ""
}

// loadConfig resolves the merged viper settings.
func loadConfig(dev bool) (*config.Config, error) {
	return config.Load(viper.GetViper(), dev)
}

// newLogger builds the process logger. dev forces debug level.
func newLogger(w io.Writer, cfg *config.Config, dev bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if dev {
		opts.Level = slog.LevelDebug
	}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// withStore opens the configured store, runs fn and closes the store.
func withStore(fn func(ctx context.Context, st store.Store) error) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	ctx := context.Background()
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	return fn(ctx, st)
}

// promptPassword reads a password from the terminal without echo. With
// confirm it asks twice and requires both entries to match.
func promptPassword(label string, confirm bool) (string, error) {
	fmt.Print(label + ": ")
	pwBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Println()
	if !confirm {
		return string(pwBytes), nil
	}

	fmt.Print("Confirm password: ")
	confirmBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}
	fmt.Println()

	if string(pwBytes) != string(confirmBytes) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(pwBytes), nil
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}
