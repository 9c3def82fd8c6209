package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the statistical classifier",
	Long: `Fits the statistical classifier on the synthetic keyword corpus plus
every accumulated correction, evaluates it on a holdout split, and persists
the model.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		accuracy, err := appInstance.Feedback.RetrainFromCorrections(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Model trained (holdout accuracy %.1f%%)\n", accuracy*100)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(trainCmd)
}
