package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/foliodev/folio/internal/security"
	"github.com/foliodev/folio/internal/server"
	"github.com/foliodev/folio/internal/service"
	"github.com/foliodev/folio/internal/storage"
	"github.com/foliodev/folio/internal/store"
)

const banner = `
  __       _ _
 / _| ___ | (_) ___
| |_ / _ \| | |/ _ \
|  _| (_) | | | (_) |
|_|  \___/|_|_|\___/
`

func newServeCmd() *cobra.Command {
	var (
		port int
		host string
		dev  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Folio API server",
		Long:  "Start the HTTP server that exposes the public portfolio API and the authenticated admin API.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(dev)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (debug logging, throwaway JWT secret)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(dev bool) error {
	fmt.Print(banner)
	fmt.Println()

	cfg, err := loadConfig(dev)
	if err != nil {
		return err
	}
	logger := newLogger(os.Stderr, cfg, dev)
	if usedFile != "" {
		logger.Info("config loaded", "path", usedFile)
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		if secret, err = newDevSecret(); err != nil {
			return err
		}
		logger.Warn("auth.jwt_secret not set - signing with a random per-process secret, sessions end on restart")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. Open the content and account store
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	logger.Info("store opened", "driver", cfg.Store.Driver)

	// 2. Bootstrap the first admin account
	accounts := service.NewAccountService(st)
	created, err := accounts.EnsureBootstrap(ctx, cfg.Auth.BootstrapUsername, cfg.Auth.BootstrapPassword, cfg.Auth.BootstrapEmail)
	if err != nil {
		return err
	}
	if created {
		logger.Info("bootstrap admin created", "username", cfg.Auth.BootstrapUsername)
	} else if n, err := st.CountAccounts(ctx); err == nil && n == 0 {
		logger.Warn("no admin account found - set auth.bootstrap_password or run: folio admin create")
	}

	// 3. Login security: limiter, tokens, lockout
	limiter := security.NewRateLimiter(security.WithSweepInterval(cfg.SweepInterval))
	go limiter.Run(ctx)

	authSvc := service.NewAuthService(secret, cfg.Auth.TokenTTL)
	login, err := service.NewLoginService(st, authSvc, limiter,
		service.WithRateLimit(cfg.LoginLimit),
		service.WithLockoutPolicy(cfg.Lockout),
		service.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	deps := server.Deps{Store: st, Auth: authSvc, Login: login}

	// 4. Object storage for uploads (optional)
	if cfg.Storage.Enabled() {
		objects, err := storage.NewMinioStore(cfg.Storage)
		if err != nil {
			return err
		}
		deps.Objects = objects
		logger.Info("object storage enabled", "endpoint", cfg.Storage.Endpoint, "bucket", cfg.Storage.Bucket)
	} else {
		logger.Warn("object storage not configured - image uploads are disabled")
	}

	// 5. Build and start HTTP server
	srvCfg := cfg.Server
	srvCfg.Version = versionString()
	srv := server.New(srvCfg, deps, logger)

	fmt.Printf("→ Folio %s\n", versionString())
	fmt.Printf("→ Listening on http://%s:%d\n", srvCfg.Host, srvCfg.Port)
	fmt.Printf("→ Admin API:  http://%s:%d/api/admin\n", srvCfg.Host, srvCfg.Port)
	fmt.Printf("→ OpenAPI:    http://%s:%d/openapi.json\n", srvCfg.Host, srvCfg.Port)
	fmt.Printf("→ Health:     http://%s:%d/healthz\n", srvCfg.Host, srvCfg.Port)
	fmt.Println()

	return srv.ListenAndServe()
}
