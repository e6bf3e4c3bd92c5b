package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newEmployeesCmd(rt *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "employees",
		Short: "Employee directory",
	}
	cmd.AddCommand(newEmployeesListCmd(rt))
	return cmd
}

func newEmployeesListCmd(rt *state) *cobra.Command {
	var q EmployeeQuery
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List employee profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, err := rt.client.Employees(cmd.Context(), q)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(page.Items))
			for _, p := range page.Items {
				rows = append(rows, []string{p.EmployeeNumber, p.FirstName + " " + p.LastName, p.Email, p.Role, p.DepartmentCode})
			}
			if err := render(cmd, page, []string{"number", "name", "email", "role", "department"}, rows); err != nil {
				return err
			}
			if outputFormat(cmd) == outputTable {
				fmt.Fprintf(cmd.OutOrStdout(), "page %d of %d (%d total)\n",
					page.Pagination.Page, page.Pagination.TotalPages, page.Pagination.Total)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&q.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&q.PerPage, "per-page", 20, "rows per page (max 100)")
	cmd.Flags().StringVar(&q.Department, "department", "", "filter by department code")
	cmd.Flags().StringVar(&q.Search, "search", "", "match name, e-mail or employee number")
	return cmd
}
