package cmd

import (
	"fmt"

	"github.com/soundbenchlab/tracktape/internal/service"

	"github.com/spf13/cobra"
)

var takesCmd = &cobra.Command{
	Use:   "takes",
	Short: "List recordings in the destination folder",
	RunE: func(cmd *cobra.Command, args []string) error {
		folder := resolveDestination()

		recordings, err := service.ListRecordingsIn(folder)
		if err != nil {
			return err
		}

		if len(recordings) == 0 {
			fmt.Printf("No recordings in %s\n", folder)
			return nil
		}

		fmt.Printf("📁 Recordings in %s:\n\n", folder)
		for _, rec := range recordings {
			fmt.Printf("  %s  %8s  %s\n", rec.ModTimeHuman, rec.SizeHuman, rec.Name)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(takesCmd)
}
