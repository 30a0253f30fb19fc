package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check whether the stored session still authenticates",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}

		if app.client.Probe(cmd.Context()) {
			fmt.Println("Session is valid.")
			return nil
		}
		fmt.Println("Session is expired or missing. Run `redpost login` to refresh it.")
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded publish outcomes",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}

		outcomes, err := app.history.List()
		if err != nil {
			return err
		}
		for _, o := range outcomes {
			line := fmt.Sprintf("%s  %-9s  %s", o.Time, o.Status, o.Title)
			if o.ScheduleTime != "" {
				line += "  (scheduled " + o.ScheduleTime + ")"
			}
			if o.Note != "" {
				line += "  " + o.Note
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
}
