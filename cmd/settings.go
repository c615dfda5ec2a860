package cmd

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/soundbenchlab/tracktape/internal/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect the settings document",
	Long: `View the settings document and the session state it resolves to.
TrackTape never writes this file itself.`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved session state",
	Long: `Show the session state after the settings document has been applied
against the live device list, with stale selections clamped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newSession()
		if err != nil {
			return err
		}
		defer svc.Cleanup()

		out, err := yaml.Marshal(svc.Snapshot())
		if err != nil {
			return fmt.Errorf("error marshaling session state: %w", err)
		}
		fmt.Print(string(out))
		return nil
	},
}

var settingsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show which settings file is in use",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.ResolvePath(settingsFile)
		if _, err := os.Stat(path); err != nil {
			fmt.Printf("%s (not present, defaults in use)\n", path)
			return nil
		}
		fmt.Println(path)
		return nil
	},
}

var settingsEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the settings file in your editor",
	RunE: func(cmd *cobra.Command, args []string) error {
		editor := os.Getenv("EDITOR")
		if editor == "" {
			editor = "nano"
		}

		path := config.ResolvePath(settingsFile)
		fmt.Printf("Opening %s with %s...\n", path, editor)

		editCmd := exec.Command(editor, path)
		editCmd.Stdin = os.Stdin
		editCmd.Stdout = os.Stdout
		editCmd.Stderr = os.Stderr
		return editCmd.Run()
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsPathCmd)
	settingsCmd.AddCommand(settingsEditCmd)
}
