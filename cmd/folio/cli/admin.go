package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/foliodev/folio/internal/service"
	"github.com/foliodev/folio/internal/store"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin accounts",
		Long:  "Create, list and maintain the accounts that can log in to the Folio admin API.",
	}

	cmd.AddCommand(newAdminCreateCmd())
	cmd.AddCommand(newAdminListCmd())
	cmd.AddCommand(newAdminResetPasswordCmd())
	cmd.AddCommand(newAdminUnlockCmd())
	cmd.AddCommand(newAdminSetActiveCmd("disable", "Disable an admin account", false))
	cmd.AddCommand(newAdminSetActiveCmd("enable", "Re-enable a disabled admin account", true))

	return cmd
}

// ---------- admin create ----------

func newAdminCreateCmd() *cobra.Command {
	var (
		username string
		email    string
		password string
		name     string
		role     string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new admin account",
		Example: `  folio admin create --username admin --email admin@example.com --password secret123
  folio admin create --username admin --email admin@example.com  # prompts for password`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = promptPassword("Password", true); err != nil {
					return err
				}
			}
			return withStore(func(ctx context.Context, st store.Store) error {
				a, err := service.NewAccountService(st).Create(ctx, service.NewAccount{
					Username:    username,
					Email:       email,
					Password:    password,
					DisplayName: name,
					Role:        role,
				})
				if err != nil {
					if errors.Is(err, store.ErrConflict) {
						return fmt.Errorf("username or email already in use")
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created admin account %q (id %s)\n", a.Username, a.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Login name (required)")
	cmd.Flags().StringVar(&email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted if omitted)")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&role, "role", "admin", "Account role")
	cmd.MarkFlagRequired("username")
	cmd.MarkFlagRequired("email")

	return cmd
}

// ---------- admin list ----------

func newAdminListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all admin accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, st store.Store) error {
				return runAdminList(ctx, st, jsonOutput)
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runAdminList(ctx context.Context, st store.Store, jsonOutput bool) error {
	accounts, err := service.NewAccountService(st).List(ctx)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(accounts)
	}

	if len(accounts) == 0 {
		fmt.Println("No admin accounts. Use 'folio admin create' to create one.")
		return nil
	}

	now := time.Now()
	fmt.Printf("%-20s %-30s %-12s %-8s %-8s\n", "USERNAME", "EMAIL", "ROLE", "ACTIVE", "LOCKED")
	fmt.Printf("%-20s %-30s %-12s %-8s %-8s\n", "--------", "-----", "----", "------", "------")
	for _, a := range accounts {
		active := "yes"
		if !a.IsActive {
			active = "no"
		}
		locked := "no"
		if a.LockedUntil != nil && a.LockedUntil.After(now) {
			locked = "yes"
		}
		fmt.Printf("%-20s %-30s %-12s %-8s %-8s\n", a.Username, a.Email, a.Role, active, locked)
	}

	return nil
}

// ---------- admin reset-password ----------

func newAdminResetPasswordCmd() *cobra.Command {
	var (
		username string
		password string
	)

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password and clear any lock",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = promptPassword("New password", true); err != nil {
					return err
				}
			}
			return withStore(func(ctx context.Context, st store.Store) error {
				if err := service.NewAccountService(st).ResetPassword(ctx, username, password); err != nil {
					return notFoundAs(err, username)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Password reset for %q\n", username)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Account to update (required)")
	cmd.Flags().StringVar(&password, "password", "", "New password (prompted if omitted)")
	cmd.MarkFlagRequired("username")

	return cmd
}

// ---------- admin unlock ----------

func newAdminUnlockCmd() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "unlock",
		Short: "Clear the failed-login counter and lock of an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, st store.Store) error {
				if err := service.NewAccountService(st).Unlock(ctx, username); err != nil {
					return notFoundAs(err, username)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Unlocked %q\n", username)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Account to unlock (required)")
	cmd.MarkFlagRequired("username")

	return cmd
}

// ---------- admin enable / disable ----------

func newAdminSetActiveCmd(use, short string, active bool) *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, st store.Store) error {
				if err := service.NewAccountService(st).SetActive(ctx, username, active); err != nil {
					return notFoundAs(err, username)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Account %q %sd\n", username, use)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Account to update (required)")
	cmd.MarkFlagRequired("username")

	return cmd
}

// notFoundAs turns store.ErrNotFound into a message naming the account.
func notFoundAs(err error, username string) error {
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no admin account named %q", username)
	}
	return err
}
