package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrD1360/fargate-vpc-stack/internal/aws/logs"
	"github.com/MrD1360/fargate-vpc-stack/internal/deploy"
	"github.com/MrD1360/fargate-vpc-stack/internal/topology"
)

// LogReader is the subset of the logs client used to print and follow a stream.
type LogReader interface {
	LatestStream(ctx context.Context, logGroup string) (string, error)
	GetLatestLogEvents(ctx context.Context, logGroup, logStream string, limit int) ([]logs.LogEvent, string, error)
	GetLogEventsSince(ctx context.Context, logGroup, logStream, forwardToken string) ([]logs.LogEvent, string, error)
}

func NewLogsCmd(o *rootOptions) *cobra.Command {
	var follow bool
	var limit int
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the auth function's latest log stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, cfg, err := o.loadStack()
			if err != nil {
				return err
			}
			client, err := o.clients(ctx, cfg)
			if err != nil {
				return err
			}
			outputs, err := deploy.NewDeployer(client.CloudFormation, o.log).Outputs(ctx, s.Name)
			if err != nil {
				return err
			}
			fn := outputs[topology.OutputAuthFunctionName]
			if fn == "" {
				return fmt.Errorf("%s has no %s output; deploy it first", s.Name, topology.OutputAuthFunctionName)
			}

			return tailLogs(ctx, cmd.OutOrStdout(), client.Logs, "/aws/lambda/"+fn, limit, follow, interval)
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep printing new events")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "number of recent events to print")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "poll interval with --follow")

	return cmd
}

// tailLogs prints the newest events of the group's latest stream and, when
// follow is set, polls for more until ctx is cancelled.
func tailLogs(ctx context.Context, w io.Writer, r LogReader, group string, limit int, follow bool, interval time.Duration) error {
	stream, err := r.LatestStream(ctx, group)
	if err != nil {
		return err
	}
	if stream == "" {
		fmt.Fprintf(w, "no log streams in %s yet\n", group)
		return nil
	}

	events, token, err := r.GetLatestLogEvents(ctx, group, stream, limit)
	if err != nil {
		return err
	}
	for _, e := range events {
		fmt.Fprintln(w, e.Line())
	}
	if !follow {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			events, token, err = r.GetLogEventsSince(ctx, group, stream, token)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			for _, e := range events {
				fmt.Fprintln(w, e.Line())
			}
		}
	}
}
