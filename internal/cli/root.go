// Package cli implements hrctl, a terminal client for the HR API. It keeps
// the session token in ~/.odyssey/session.yaml and renders navigation from
// the cached claim the same way the web portal does.
package cli

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/odyssey-hr/odyssey-hr/internal/rbac"
	"github.com/odyssey-hr/odyssey-hr/internal/uiaccess"
)

const defaultHost = "http://localhost:8080"

// Options customises the root command, mainly for tests.
type Options struct {
	HTTPClient *http.Client
	Stdin      io.Reader
}

type state struct {
	opts      Options
	host      string
	storePath string
	session   *uiaccess.SessionContext
	client    *Client
	navigator *uiaccess.Navigator
}

// Execute runs hrctl and returns the process exit code.
func Execute() int {
	root := NewRootCmd(Options{})
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			return 2
		}
		return 1
	}
	return 0
}

// NewRootCmd assembles the hrctl command tree.
func NewRootCmd(opts Options) *cobra.Command {
	rt := &state{opts: opts, navigator: uiaccess.NewNavigator(rbac.MustDefault(), nil)}
	var output string

	root := &cobra.Command{
		Use:           "hrctl",
		Short:         "Odyssey HR command-line client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutputFormat(output); err != nil {
				return err
			}
			if !cmd.Flags().Changed("host") {
				if v := os.Getenv("ODYSSEY_HOST"); v != "" {
					rt.host = v
				}
			}
			store := NewFileStore(rt.storePath)
			rt.session = uiaccess.NewSessionContext(store)
			if err := rt.session.Restore(); err != nil && !errors.Is(err, uiaccess.ErrNoSession) {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: discarded unreadable session: %v\n", err)
			}
			rt.client = NewClient(rt.host, opts.HTTPClient, rt.session)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&rt.host, "host", defaultHost, "API base URL (env ODYSSEY_HOST)")
	root.PersistentFlags().StringVar(&rt.storePath, "session-file", "", "session file (default ~/.odyssey/session.yaml)")
	root.PersistentFlags().StringVarP(&output, "output", "o", outputTable, "output format: table or json")

	root.AddCommand(
		newLoginCmd(rt),
		newRegisterCmd(rt),
		newLogoutCmd(rt),
		newWhoamiCmd(rt),
		newNavCmd(rt),
		newEmployeesCmd(rt),
		newJobsCmd(),
	)
	return root
}
