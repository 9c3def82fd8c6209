package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var categoryCmd = &cobra.Command{
	Use:   "category",
	Short: "Manage the category registry",
}

var categoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered categories and their keywords",
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		cats := appInstance.Registry.Categories()
		if len(cats) == 0 {
			fmt.Println("No categories registered.")
			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Category", "Keywords"})
		table.SetBorder(true)
		table.SetRowLine(true)
		for _, cat := range cats {
			table.Append([]string{cat.Name, strings.Join(cat.Keywords, ", ")})
		}
		table.Render()
		return nil
	},
}

var categoryAddCmd = &cobra.Command{
	Use:   "add <name> <keyword> [keyword...]",
	Short: "Register a new category",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		if err := appInstance.Registry.Add(cmd.Context(), args[0], args[1:]); err != nil {
			return err
		}
		fmt.Printf("Added category %q with %d keywords\n", args[0], len(args)-1)
		return nil
	},
}

var categoryRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		removed, err := appInstance.Registry.Remove(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Removed category %q\n", removed.Name)
		return nil
	},
}

func init() {
	categoryCmd.AddCommand(categoryListCmd)
	categoryCmd.AddCommand(categoryAddCmd)
	categoryCmd.AddCommand(categoryRemoveCmd)
	rootCmd.AddCommand(categoryCmd)
}
