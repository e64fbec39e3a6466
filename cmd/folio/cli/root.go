package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/foliodev/folio/internal/config"
)

var (
	cfgFile    string
	usedFile   string // config file actually loaded, if any
	appVersion string // set in Execute, reported by serve and mcp
)

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	appVersion = version
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folio",
		Short: "Portfolio site backend with a hardened admin login",
		Long: `Folio serves a portfolio site's public content API and its admin API.

Admin sessions are protected by input sanitization, per-client login rate
limiting, account lockout and signed session tokens. Content lives in SQLite,
PostgreSQL or MongoDB; uploaded images go to S3-compatible object storage.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./folio.yaml or ~/.folio/folio.yaml)")

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd(commit, date))
	cmd.AddCommand(newAdminCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newOpenAPICmd())
	cmd.AddCommand(newMCPCmd())

	return cmd
}

func initConfig() {
	v := viper.GetViper()
	config.SetDefaults(v)
	config.ConfigureEnv(v)

	path := cfgFile
	if path == "" {
		path = findConfigFile()
	}
	if path == "" {
		return // config file is optional
	}
	if err := config.ReadFileInto(v, path); err != nil {
		if cfgFile != "" {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
		return
	}
	usedFile = path
}
