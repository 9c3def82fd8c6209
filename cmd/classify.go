package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <file>",
	Short: "Classify a document without routing it",
	Long: `Runs the identification cascade over a document and prints the result.
The file is not moved and nothing is queued; use "process" for that.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		text, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}

		res := appInstance.Classify.Classify(cmd.Context(), string(text))

		name := color.GreenString(res.Category)
		if res.Confidence < appInstance.Config.Threshold {
			name = color.YellowString(res.Category)
		}
		fmt.Printf("Category:   %s\n", name)
		fmt.Printf("Confidence: %.1f%%\n", res.Confidence)
		fmt.Printf("Source:     %s\n", res.Source)
		if res.Rationale != "" {
			fmt.Printf("Rationale:  %s\n", res.Rationale)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}
