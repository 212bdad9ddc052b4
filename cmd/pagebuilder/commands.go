package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pagebuilder/internal/authpw"
	"pagebuilder/internal/seed"
	"pagebuilder/internal/store"
)

var migrateDown bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply or roll back database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		_, logger, db, dialect, err := setup(ctx, false)
		if err != nil {
			return err
		}
		defer db.Close()

		if migrateDown {
			if err := store.RollbackMigrations(ctx, db, dialect); err != nil {
				return err
			}
			logger.Info("migrations rolled back", zap.String("database", string(dialect)))
			return nil
		}
		if err := store.ApplyMigrations(ctx, db, dialect); err != nil {
			return err
		}
		logger.Info("migrations applied", zap.String("database", string(dialect)))
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace all proposals with the demo proposals",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		_, logger, db, dialect, err := setup(ctx, true)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := seed.Run(ctx, store.NewSQLStore(db, dialect)); err != nil {
			return err
		}
		logger.Info("seeded demo proposals", zap.Strings("slugs", []string{seed.SlugEnglish, seed.SlugArabic}))
		return nil
	},
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print a bcrypt hash for ADMIN_PASS_BCRYPT",
	Long: `Print a bcrypt hash of the operator password, suitable for
ADMIN_PASS_BCRYPT. The password is read from stdin when not given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password := ""
		if len(args) == 1 {
			password = args[0]
		} else {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read password: %w", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}
		hash, err := authpw.HashPassword(password)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
		return err
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDown, "down", false, "roll back every applied migration")
}
