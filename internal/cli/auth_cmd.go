package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/odyssey-hr/odyssey-hr/internal/auth"
	"github.com/odyssey-hr/odyssey-hr/internal/claims"
)

func newLoginCmd(rt *state) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and cache the session token",
		Example: `  hrctl login --email jane@odyssey.local
  ODYSSEY_PASSWORD=secret hrctl login --email jane@odyssey.local`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv("ODYSSEY_PASSWORD")
			}
			if password == "" {
				var err error
				if password, err = readSecret(cmd, rt.opts.Stdin, "Password: "); err != nil {
					return err
				}
			}
			result, err := rt.client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			return printClaim(cmd, result.User)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account e-mail")
	cmd.Flags().StringVar(&password, "password", "", "account password (env ODYSSEY_PASSWORD, prompted when empty)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newRegisterCmd(rt *state) *cobra.Command {
	var input auth.RegisterInput
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an employee account and cache its session",
		Example: `  hrctl register --email jane@odyssey.local --first-name Jane --last-name Doe \
    --national-id 1234567890 --employee-number EMP-001 --date-of-hire 2024-01-15 \
    --role "HR Admin" --department HR`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if input.Password == "" {
				input.Password = os.Getenv("ODYSSEY_PASSWORD")
			}
			if input.Password == "" {
				var err error
				if input.Password, err = readSecret(cmd, rt.opts.Stdin, "Password: "); err != nil {
					return err
				}
			}
			result, err := rt.client.Register(cmd.Context(), input)
			if err != nil {
				return err
			}
			return printClaim(cmd, result.User)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&input.Email, "email", "", "account e-mail")
	flags.StringVar(&input.Password, "password", "", "account password (env ODYSSEY_PASSWORD, prompted when empty)")
	flags.StringVar(&input.FirstName, "first-name", "", "first name")
	flags.StringVar(&input.LastName, "last-name", "", "last name")
	flags.StringVar(&input.NationalID, "national-id", "", "national identity number")
	flags.StringVar(&input.EmployeeNumber, "employee-number", "", "employee number")
	flags.StringVar(&input.DateOfHire, "date-of-hire", time.Now().Format("2006-01-02"), "hire date (YYYY-MM-DD)")
	flags.StringVar(&input.Role, "role", "", "role label, e.g. \"HR Admin\"")
	flags.StringVar(&input.DepartmentCode, "department", "", "department code")
	for _, name := range []string{"email", "first-name", "last-name", "national-id", "employee-number", "role"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newLogoutCmd(rt *state) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget the cached token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ack, err := rt.client.Logout(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), ack.Message)
			return err
		},
	}
}

func newWhoamiCmd(rt *state) *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the cached session claim",
		Long:  "Show the cached session claim. With --remote the claim is fetched from the server, which also checks that the token is still accepted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if remote {
				me, err := rt.client.Me(cmd.Context())
				if err != nil {
					return err
				}
				return printClaim(cmd, me.User)
			}
			claim, ok := rt.session.Claim()
			if !ok {
				return ErrNotLoggedIn
			}
			return printClaim(cmd, claim)
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "ask the server instead of the local cache")
	return cmd
}

func newNavCmd(rt *state) *cobra.Command {
	return &cobra.Command{
		Use:   "nav",
		Short: "List the portal sections visible to the cached session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			claim, ok := rt.session.Claim()
			if !ok {
				return ErrNotLoggedIn
			}
			routes := rt.navigator.VisibleRoutes(claim)
			rows := make([][]string, 0, len(routes))
			for _, route := range routes {
				rows = append(rows, []string{route.Path, route.Title})
			}
			return render(cmd, routes, []string{"path", "title"}, rows)
		},
	}
}

func printClaim(cmd *cobra.Command, claim claims.SessionClaim) error {
	rows := [][]string{
		{"id", claim.Subject},
		{"email", claim.Email},
		{"role", string(claim.Role)},
		{"employee id", claim.EmployeeID},
		{"department id", claim.DepartmentID},
		{"expires at", claim.ExpiresAt.Local().Format(time.RFC1123)},
	}
	return render(cmd, claim, []string{"field", "value"}, rows)
}

func readSecret(cmd *cobra.Command, in io.Reader, prompt string) (string, error) {
	if in == nil {
		in = cmd.InOrStdin()
	}
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password: %w", err)
	}
	secret := strings.TrimRight(line, "\r\n")
	if secret == "" {
		return "", fmt.Errorf("password is required")
	}
	return secret, nil
}
