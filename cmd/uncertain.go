package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var uncertainIncludeCorrected bool

var uncertainCmd = &cobra.Command{
	Use:   "uncertain",
	Short: "Review and correct low-confidence documents",
}

var uncertainListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents waiting for manual review",
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		entries, err := appInstance.Feedback.ListUncertain(cmd.Context(), uncertainIncludeCorrected)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("Uncertain queue is empty.")
			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"ID", "File", "Guess", "Confidence", "Source", "Queued"})
		table.SetBorder(true)
		for _, e := range entries {
			guess := e.Category
			if e.Corrected {
				guess = e.Category + " -> " + e.CorrectedCategory
			}
			table.Append([]string{
				e.ID,
				e.Path,
				guess,
				fmt.Sprintf("%.1f%%", e.Confidence),
				e.Source,
				e.CreatedAt.Format(time.RFC3339),
			})
		}
		table.Render()
		return nil
	},
}

var uncertainCorrectCmd = &cobra.Command{
	Use:   "correct <id> <category>",
	Short: "Assign the true category to a queued document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		if err := appInstance.Feedback.Correct(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Printf("Corrected %s to %s\n", args[0], args[1])
		return nil
	},
}

var uncertainSuggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Ask the active backend to propose a new category for the queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		suggestion, err := appInstance.Feedback.SuggestCategory(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Suggested category: %s\n", suggestion.Name)
		fmt.Printf("Keywords: %s\n", strings.Join(suggestion.Keywords, ", "))
		fmt.Println("Register it with: remsort category add", suggestion.Name, strings.Join(suggestion.Keywords, " "))
		return nil
	},
}

func init() {
	uncertainListCmd.Flags().BoolVar(&uncertainIncludeCorrected, "all", false, "include already corrected entries")
	uncertainCmd.AddCommand(uncertainListCmd)
	uncertainCmd.AddCommand(uncertainCorrectCmd)
	uncertainCmd.AddCommand(uncertainSuggestCmd)
	rootCmd.AddCommand(uncertainCmd)
}
