package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmcleod/redpost/compose"
)

var composeCmd = &cobra.Command{
	Use:   "compose <keywords>...",
	Short: "Draft a title and body from keywords",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		generator := compose.NewGenerator(
			compose.WithEndpoint(cfg.Compose.Endpoint),
			compose.WithModel(cfg.Compose.Model),
		)

		draft, err := generator.Generate(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}

		fmt.Println(draft.Title)
		fmt.Println()
		fmt.Println(draft.Content)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(composeCmd)
}
