package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/sheikharifulislam/OpnForm/internal/config"
	"github.com/sheikharifulislam/OpnForm/internal/user"

	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Operational commands for the OpnForm backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newDisableTwoFactorCommand())

	if err := root.Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}

func newDisableTwoFactorCommand() *cobra.Command {
	var (
		force      bool
		allowAdmin bool
	)

	cmd := &cobra.Command{
		Use:   "disable-two-factor <email>",
		Short: "Disable two-factor authentication for a locked out user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if force && allowAdmin {
				return fmt.Errorf("--force cannot be combined with --allow-admin, admin accounts require explicit confirmation")
			}

			email := args[0]
			if !force {
				if !confirm(fmt.Sprintf("Disable two-factor authentication for %s?", email)) {
					fmt.Println("Aborted.")
					return nil
				}
			}

			cfg, cfgLog := config.Load()
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			logger, err := logutil.ZapProductionConfig().Build()
			if err != nil {
				return err
			}
			defer func() {
				_ = logger.Sync()
			}()
			cfgLog.FlushToZap(logger)

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			dbPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer dbPool.Close()

			userService := user.NewService(logger, dbPool)

			updated, err := userService.DisableTwoFactor(ctx, email, allowAdmin)
			if err != nil {
				return err
			}

			logger.Info("Two-factor authentication disabled",
				zap.String("user_id", updated.ID.String()),
				zap.String("email", updated.Email))
			fmt.Printf("Two-factor authentication disabled for %s\n", updated.Email)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "skip the confirmation prompt")
	cmd.Flags().BoolVar(&allowAdmin, "allow-admin", false, "allow disabling two-factor on admin accounts")

	return cmd
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
