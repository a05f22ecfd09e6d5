// internal/cli/students.go
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tamzrod/uniform-watch/internal/roster"
)

func (a *app) studentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "students",
		Short: "Manage the student roster",
	}
	cmd.AddCommand(a.studentsAddCmd(), a.studentsListCmd(), a.studentsDeleteCmd())
	return cmd
}

// withRoster opens the roster for the duration of fn.
func (a *app) withRoster(fn func(*roster.Service) error) error {
	store, err := roster.Open(a.cfg.Roster.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(roster.NewService(store))
}

func (a *app) studentsAddCmd() *cobra.Command {
	var in roster.NewStudent

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a student",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withRoster(func(svc *roster.Service) error {
				st, err := svc.Add(cmd.Context(), in)
				var verr *roster.ValidationError
				if errors.As(err, &verr) {
					for _, f := range verr.Fields {
						fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", f.Field, f.Error)
					}
					return errors.New("invalid student")
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), st.ID)
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.FullName, "name", "", "full name")
	f.StringVar(&in.Class, "class", "", "class (A or B)")
	f.StringVar(&in.Contact, "contact", "", "10-digit contact number")
	f.StringVar(&in.Address, "address", "", "address")
	return cmd
}

func (a *app) studentsListCmd() *cobra.Command {
	var (
		class   string
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List students",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withRoster(func(svc *roster.Service) error {
				students, err := svc.List(cmd.Context(), class)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if jsonOut {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(students)
				}

				w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tCLASS\tCONTACT\tADDRESS")
				fmt.Fprintln(w, "--\t----\t-----\t-------\t-------")
				for _, st := range students {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", st.ID, st.FullName, st.Class, st.Contact, st.Address)
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&class, "class", "", "only this class")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")
	return cmd
}

func (a *app) studentsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a student",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withRoster(func(svc *roster.Service) error {
				if err := svc.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "deleted", args[0])
				return nil
			})
		},
	}
}
