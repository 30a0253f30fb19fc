package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmcleod/redpost/login"
	"github.com/jmcleod/redpost/session"
)

var accountCookies string

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage the sealed account registry",
}

var accountsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Store an account's cookie header",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}
		registry, repo, err := app.openRegistry()
		if err != nil {
			return err
		}
		defer repo.Close()

		if err := registry.Put(args[0], accountCookies); err != nil {
			return err
		}
		fmt.Printf("Stored account %q\n", args[0])
		return nil
	},
}

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}
		registry, repo, err := app.openRegistry()
		if err != nil {
			return err
		}
		defer repo.Close()

		names, err := registry.List()
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

var accountsRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Delete a stored account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}
		registry, repo, err := app.openRegistry()
		if err != nil {
			return err
		}
		defer repo.Close()

		if err := registry.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted account %q\n", args[0])
		return nil
	},
}

var accountsVerifyCmd = &cobra.Command{
	Use:   "verify <name>",
	Short: "Probe the platform with a stored account's cookies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}
		registry, repo, err := app.openRegistry()
		if err != nil {
			return err
		}
		defer repo.Close()

		account, err := registry.Get(args[0])
		if err != nil {
			return err
		}

		sess := &session.Session{
			Cookies: session.NormalizeCookies(
				session.ParseCookieHeader(account.Cookies), app.cfg.Platform.CookieDomain),
		}
		if app.client.ProbeWith(cmd.Context(), sess) {
			fmt.Printf("Account %q is valid.\n", account.Name)
		} else {
			fmt.Printf("Account %q was rejected by the platform.\n", account.Name)
		}
		return nil
	},
}

var accountsUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Activate a stored account as the current session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp()
		if err != nil {
			return err
		}
		registry, repo, err := app.openRegistry()
		if err != nil {
			return err
		}
		defer repo.Close()

		account, err := registry.Get(args[0])
		if err != nil {
			return err
		}
		if err := login.ImportCookieHeader(app.sessions, account.Cookies); err != nil {
			return err
		}
		fmt.Printf("Switched session to account %q\n", account.Name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(accountsCmd)
	accountsCmd.AddCommand(accountsAddCmd, accountsListCmd, accountsRemoveCmd, accountsUseCmd, accountsVerifyCmd)
	accountsAddCmd.Flags().StringVar(&accountCookies, "cookies", "", "Cookie header captured from the browser")
	accountsAddCmd.MarkFlagRequired("cookies")
}
