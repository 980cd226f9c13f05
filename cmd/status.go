package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrD1360/fargate-vpc-stack/internal/deploy"
	"github.com/MrD1360/fargate-vpc-stack/internal/status"
	"github.com/MrD1360/fargate-vpc-stack/internal/ui"
)

func NewStatusCmd(o *rootOptions) *cobra.Command {
	var asJSON bool
	var showResources bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check the deployed stack against its declaration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, cfg, err := o.loadStack()
			if err != nil {
				return err
			}
			client, err := o.clients(ctx, cfg)
			if err != nil {
				return err
			}

			d := deploy.NewDeployer(client.CloudFormation, o.log)
			in := status.NewInspector(o.log)
			in.Stacks = d
			in.Network = client.VPC
			in.Services = client.ECS
			in.Scaling = client.AutoScaling
			in.Balancers = client.ELB
			in.Buckets = client.S3
			in.Functions = client.Lambda
			in.Images = client.ECR
			in.Roles = client.IAM

			report, err := in.Inspect(ctx, s, cfg.Compute.Image)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			fmt.Fprint(out, ui.StatusReport(report))

			if showResources && report.StackStatus != status.NotDeployed {
				resources, err := d.Resources(ctx, s.Name)
				if err != nil {
					return err
				}
				fmt.Fprintln(out)
				fmt.Fprint(out, ui.Resources(resources))
			}
			if !report.Healthy() {
				return fmt.Errorf("%s is not healthy", s.Name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	cmd.Flags().BoolVar(&showResources, "resources", false, "also list every provisioned resource")

	return cmd
}
