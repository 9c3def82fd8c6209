package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var backendCmd = &cobra.Command{
	Use:   "backend",
	Short: "Inspect or switch the external-model backend",
}

var backendStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		active := appInstance.Backends.Active()
		if active == "" {
			fmt.Println("No external backend active; cascade starts at phrase matching.")
			return nil
		}
		fmt.Printf("Active backend: %s\n", active)
		return nil
	},
}

var backendSwitchCmd = &cobra.Command{
	Use:   "switch <name>",
	Short: "Switch the active backend (openai, gemini, ollama, embedding, onnx, or \"\" to deactivate)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		if err := appInstance.Backends.Switch(args[0]); err != nil {
			return err
		}
		if args[0] == "" {
			fmt.Println("External backend deactivated.")
		} else {
			fmt.Printf("Switched to backend %s\n", args[0])
		}
		return nil
	},
}

func init() {
	backendCmd.AddCommand(backendStatusCmd)
	backendCmd.AddCommand(backendSwitchCmd)
	rootCmd.AddCommand(backendCmd)
}
