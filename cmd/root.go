package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"remsort/internal/app"
	"remsort/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "remsort",
	Short: "Referral document sorter",
	Long: `Remsort classifies scanned referral documents, routes each one to its
recipient department folder, and queues low-confidence documents for manual
review. Operator corrections feed the statistical classifier.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		appInstance, err := app.NewApp(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize app: %w", err)
		}

		ctx := context.WithValue(cmd.Context(), appKey, appInstance)
		cmd.SetContext(ctx)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if appInstance, err := GetAppFromContext(cmd.Context()); err == nil {
			return appInstance.Close()
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type contextKey string

const appKey contextKey = "app"

// GetAppFromContext retrieves the app instance stashed by PersistentPreRunE.
func GetAppFromContext(ctx context.Context) (*app.App, error) {
	appInstance, ok := ctx.Value(appKey).(*app.App)
	if !ok || appInstance == nil {
		return nil, fmt.Errorf("application instance not found in context")
	}
	return appInstance, nil
}
