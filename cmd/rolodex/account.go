package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mwhitlock/rolodex/internal/domain/model"
)

func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage search accounts and their stored sessions",
	}
	cmd.AddCommand(newAccountAddCmd(), newAccountRevokeCmd(), newAccountListCmd())
	return cmd
}

func newAccountAddCmd() *cobra.Command {
	var skipValidate bool

	cmd := &cobra.Command{
		Use:   "add <id>",
		Short: "Store an account's session secret (read from stdin) and validate it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()
			id := args[0]

			// The secret comes over stdin so it never lands in shell history
			// or process listings.
			reader := bufio.NewReader(cmd.InOrStdin())
			line, err := reader.ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read secret from stdin: %w", err)
			}
			secret := strings.TrimSpace(line)

			if err := a.secrets.Put(ctx, id, secret); err != nil {
				return err
			}

			account, err := a.accounts.Get(ctx, id)
			if err != nil {
				return err
			}
			if account == nil {
				account = &model.Account{ID: id, Status: model.AccountStatusUnknown}
			}
			if err := a.accounts.Upsert(ctx, *account); err != nil {
				return err
			}

			if skipValidate {
				fmt.Fprintf(cmd.OutOrStdout(), "account %s stored (status %s)\n", id, account.Status)
				return nil
			}

			validator, err := a.validator()
			if err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "account %s stored; validation skipped: %v\n", id, err)
				return nil
			}
			status, probeErr := validator.Validate(ctx, *account)
			if probeErr != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "account %s stored (status %s: %v)\n", id, status, probeErr)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "account %s stored (status %s)\n", id, status)
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipValidate, "no-validate", false, "store without probing the session")
	return cmd
}

func newAccountRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <id>",
		Short: "Permanently retire an account from search rotation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()
			id := args[0]

			account, err := a.accounts.Get(ctx, id)
			if err != nil {
				return err
			}
			if account == nil {
				return fmt.Errorf("account %q not found", id)
			}
			if account.Revoked() {
				fmt.Fprintf(cmd.OutOrStdout(), "account %s already revoked\n", id)
				return nil
			}

			now := nowUTC()
			account.RevokedAt = &now
			if err := a.accounts.Upsert(ctx, *account); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "account %s revoked\n", id)
			return nil
		},
	}
}

func newAccountListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts with lifecycle state and remaining daily budget",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := cmd.Context()

			accounts, err := a.accounts.List(ctx)
			if err != nil {
				return err
			}
			if len(accounts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no accounts stored")
				return nil
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-20s %-12s %-10s %s\n", "ID", "STATUS", "REMAINING", "LAST VALIDATED")
			for _, account := range accounts {
				status := string(account.Status)
				if account.Revoked() {
					status = "revoked"
				}

				remaining, err := a.limiter.Remaining(ctx, account.ID, model.ActionSearch)
				if err != nil {
					return err
				}

				lastValidated := "never"
				if account.LastValidatedAt != nil {
					lastValidated = account.LastValidatedAt.UTC().Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(w, "%-20s %-12s %-10d %s\n", account.ID, status, remaining, lastValidated)
			}
			return nil
		},
	}
}
