package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var processAsync bool

var processCmd = &cobra.Command{
	Use:   "process [file]",
	Short: "Classify and route documents",
	Long: `Runs the full pipeline on a document: text extraction, classification,
field extraction and routing. Without an argument, every document in the
configured input directory is processed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		if len(args) == 0 {
			succeeded, failed, err := appInstance.Process.ProcessDir(cmd.Context(), appInstance.Config.Paths.Input)
			if err != nil {
				return err
			}
			fmt.Printf("%s %d processed, %d failed\n", color.GreenString("Done:"), succeeded, failed)
			return nil
		}

		if processAsync {
			if err := appInstance.JobClient.ScheduleDocumentProcess(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to enqueue document: %w", err)
			}
			fmt.Printf("Enqueued %s for background processing\n", args[0])
			return nil
		}

		res, err := appInstance.Process.ProcessFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if res.Accepted {
			fmt.Printf("%s %s -> %s (%.1f%%)\n", color.GreenString("Routed:"), args[0], res.Destination, res.Result.Confidence)
		} else {
			fmt.Printf("%s %s -> uncertain queue (%.1f%%, entry %s)\n", color.YellowString("Uncertain:"), args[0], res.Result.Confidence, res.UncertainID)
		}
		return nil
	},
}

func init() {
	processCmd.Flags().BoolVar(&processAsync, "async", false, "enqueue the document for background processing")
	rootCmd.AddCommand(processCmd)
}
