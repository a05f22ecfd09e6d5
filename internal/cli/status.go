// internal/cli/status.go
package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tamzrod/uniform-watch/internal/poller"
)

type statusOutput struct {
	Headline string `json:"headline"`
	poller.State
}

func (a *app) statusCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Poll the detection service once and print the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, _, err := poller.Build(a.cfg)
			if err != nil {
				return err
			}
			defer p.Stop()

			s, err := p.PollOnce(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(statusOutput{Headline: s.Headline(), State: s}); err != nil {
					return err
				}
			} else {
				w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
				fmt.Fprintf(w, "STATUS\t%s\n", s.Headline())
				fmt.Fprintf(w, "SHIRT\t%s\n", yesNo(s.Status.ShirtDetected))
				fmt.Fprintf(w, "PANTS\t%s\n", yesNo(s.Status.PantsDetected))
				fmt.Fprintf(w, "UNIFORM\t%s\n", yesNo(s.Status.UniformDetected))
				if err := w.Flush(); err != nil {
					return err
				}
			}

			if !s.Connectivity.IsConnected() {
				return fmt.Errorf("detection server unreachable: %s", s.Connectivity.Reason)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")
	return cmd
}

func yesNo(b bool) string {
	if b {
		return "Detected"
	}
	return "Not Detected"
}
