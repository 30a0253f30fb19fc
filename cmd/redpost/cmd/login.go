package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmcleod/redpost/login"
)

var loginCookies string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Install a browser cookie header as the active session",
	Long: `Copy the Cookie request header from a logged-in browser session and pass
it with --cookies, or omit the flag to be prompted for it. Any cached token
is invalidated and re-minted on the next publish.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}

		header := loginCookies
		if header == "" {
			prompt := login.NewTerminalPrompt(os.Stdin, os.Stdout)
			header, err = prompt.Code(cmd.Context(), "Paste cookie header")
			if err != nil {
				return err
			}
		}

		if err := login.ImportCookieHeader(app.sessions, header); err != nil {
			return err
		}

		if app.client.Probe(cmd.Context()) {
			fmt.Println("Session installed and verified.")
		} else {
			fmt.Println("Session installed, but the platform did not accept it.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVar(&loginCookies, "cookies", "", "Cookie header captured from the browser")
}
