// internal/cli/remote.go
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tamzrod/uniform-watch/internal/detection"
)

func (a *app) detectionClient() (*detection.Client, error) {
	return detection.New(detection.Config{
		BaseURL: a.cfg.Detection.BaseURL,
		Timeout: ms(a.cfg.Detection.TimeoutMs),
	})
}

func (a *app) resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear the detection service's current status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.remote(cmd, "detection status reset", (*detection.Client).ResetStatus)
		},
	}
}

func (a *app) shutdownCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "shutdown",
		Short: "Stop the remote detection service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("shutdown stops the remote detection service; pass --yes to confirm")
			}
			return a.remote(cmd, "detection service shutting down", (*detection.Client).Shutdown)
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the shutdown")
	return cmd
}

func (a *app) remote(cmd *cobra.Command, done string, call func(*detection.Client, context.Context) error) error {
	c, err := a.detectionClient()
	if err != nil {
		return err
	}
	if err := call(c, cmd.Context()); err != nil {
		return fmt.Errorf("%s: %w", detection.Reason(err), err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), done)
	return nil
}
