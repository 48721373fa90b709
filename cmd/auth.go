package cmd

import (
	"context"
	"fmt"

	"github.com/theirongolddev/budgetplanner/internal/cli"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var (
	flagUsername string
	flagPassword string
	flagName     string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the budget server",
	RunE:  runLogin,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	RunE:  runRegister,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE:  runWhoami,
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVarP(&flagUsername, "username", "u", "", "Username (prompted when empty)")
		c.Flags().StringVarP(&flagPassword, "password", "p", "", "Password (prompted when empty)")
	}
	registerCmd.Flags().StringVar(&flagName, "name", "", "Display name (prompted when empty)")

	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)
}

// promptCredentials asks for whichever of name, username and password are
// still empty. name is skipped when nil.
func promptCredentials(name, username, password *string) error {
	var fields []huh.Field
	if name != nil && *name == "" {
		fields = append(fields, huh.NewInput().Title("Name").Validate(cli.Required("name")).Value(name))
	}
	if *username == "" {
		fields = append(fields, huh.NewInput().Title("Username").Validate(cli.Required("username")).Value(username))
	}
	if *password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Validate(cli.Required("password")).
			Value(password))
	}
	if len(fields) == 0 {
		return nil
	}
	return huh.NewForm(huh.NewGroup(fields...)).Run()
}

func runLogin(cmd *cobra.Command, _ []string) error {
	username, password := flagUsername, flagPassword
	if err := promptCredentials(nil, &username, &password); err != nil {
		return err
	}
	return withClient(cmd, func(ctx context.Context, c *client) error {
		if err := c.sessions.Login(ctx, username, password); err != nil {
			return err
		}
		s, _ := c.sessions.Current()
		fmt.Printf("  Signed in as %s\n", displayName(s.User.Name, s.User.Username))
		return nil
	})
}

func runRegister(cmd *cobra.Command, _ []string) error {
	name, username, password := flagName, flagUsername, flagPassword
	if err := promptCredentials(&name, &username, &password); err != nil {
		return err
	}
	return withClient(cmd, func(ctx context.Context, c *client) error {
		if err := c.sessions.Register(ctx, name, username, password); err != nil {
			return err
		}
		s, _ := c.sessions.Current()
		fmt.Printf("  Account created. Signed in as %s\n", displayName(s.User.Name, s.User.Username))
		return nil
	})
}

func runLogout(cmd *cobra.Command, _ []string) error {
	return withClient(cmd, func(_ context.Context, c *client) error {
		if _, ok := c.sessions.Current(); !ok {
			fmt.Println("  Not signed in.")
			return nil
		}
		if err := c.sessions.Logout(); err != nil {
			return err
		}
		fmt.Println("  Signed out.")
		return nil
	})
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	return withClient(cmd, func(_ context.Context, c *client) error {
		s, err := c.requireSession()
		if err != nil {
			fmt.Println("  Not signed in.")
			return nil
		}
		fmt.Printf("  User:     %s\n", displayName(s.User.Name, s.User.Username))
		fmt.Printf("  Username: %s\n", s.User.Username)
		fmt.Printf("  User ID:  %d\n", s.User.ID)
		fmt.Printf("  Server:   %s\n", c.gw.BaseURL())
		return nil
	})
}

func displayName(name, username string) string {
	if name != "" {
		return name
	}
	return username
}
