package auth

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/crucial707/todo-api/cmd/cli/config"
	"github.com/spf13/cobra"
)

// InitAuth registers register, login, logout and whoami on the root command.
func InitAuth(rootCmd *cobra.Command) {
	rootCmd.AddCommand(registerCmd(), loginCmd(), logoutCmd(), whoamiCmd())
}

// ==========================
// Register
// ==========================
func registerCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := promptMissing(cmd, &username, &password); err != nil {
				return err
			}
			if err := config.Client().Register(cmd.Context(), username, password); err != nil {
				return fmt.Errorf("register: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %q created. Run `todo login` to sign in.\n", username)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "username")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when empty)")
	return cmd
}

// ==========================
// Login
// ==========================
func loginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store an access token",
		Long:  "Authenticate with the Todo API and store the access token for subsequent CLI commands.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := promptMissing(cmd, &username, &password); err != nil {
				return err
			}
			token, err := config.Client().Login(cmd.Context(), username, password)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			if err := config.SaveToken(token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Login successful. Token stored locally.")
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "username")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when empty)")
	return cmd
}

// ==========================
// Logout
// ==========================
func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ClearToken(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

// ==========================
// Whoami
// ==========================
func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the user the stored token belongs to",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := config.AuthedClient()
			if err != nil {
				return err
			}
			user, err := client.Me(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (id %d)\n", user.Username, user.ID)
			return nil
		},
	}
}

// promptMissing reads username and password from the command's input when the flags were not given.
func promptMissing(cmd *cobra.Command, username, password *string) error {
	in := bufio.NewReader(cmd.InOrStdin())
	if *username == "" {
		v, err := prompt(cmd.OutOrStdout(), in, "Username: ")
		if err != nil {
			return err
		}
		*username = v
	}
	if *password == "" {
		v, err := prompt(cmd.OutOrStdout(), in, "Password: ")
		if err != nil {
			return err
		}
		*password = v
	}
	if *username == "" || *password == "" {
		return fmt.Errorf("username and password are required")
	}
	return nil
}

func prompt(out io.Writer, in *bufio.Reader, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
