package cmd

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/spf13/cobra"

	awsclient "github.com/MrD1360/fargate-vpc-stack/internal/aws"
	"github.com/MrD1360/fargate-vpc-stack/internal/config"
	"github.com/MrD1360/fargate-vpc-stack/internal/constants"
	"github.com/MrD1360/fargate-vpc-stack/internal/deploy"
	"github.com/MrD1360/fargate-vpc-stack/internal/topology"
	"github.com/MrD1360/fargate-vpc-stack/internal/ui"
	"github.com/MrD1360/fargate-vpc-stack/internal/utils"
)

const authAssetName = "authfn"

var errNeedsBootstrap = errors.New("the first deploy of an environment needs --auth-bootstrap")

// deployFlags are shared by diff and deploy.
type deployFlags struct {
	bootstrap   string
	assetBucket string
	timeout     time.Duration
}

func (f *deployFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.bootstrap, "auth-bootstrap", "", "compiled auth function binary (linux/amd64) to package")
	cmd.Flags().StringVar(&f.assetBucket, "asset-bucket", "", "bucket for packaged code (default: assetBucket of the environment)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", constants.DefaultDeployTimeoutMinutes*time.Minute, "how long to wait for the stack to settle")
}

// request builds the change set request. With upload false the package key
// is computed but nothing is written to the bucket.
func (f *deployFlags) request(ctx context.Context, o *rootOptions, client *awsclient.ServiceClient, d *deploy.Deployer, s *topology.Stack, cfg *config.StackConfig, upload bool) (deploy.Request, error) {
	body, err := s.Template.Body()
	if err != nil {
		return deploy.Request{}, err
	}
	req := deploy.Request{
		StackName:    s.Name,
		TemplateBody: body,
		Tags:         s.Tags,
		Parameters: map[string]string{
			topology.IDAuthCodeBucket: "",
			topology.IDAuthCodeKey:    "",
		},
	}

	if f.bootstrap == "" {
		existing, err := d.Stack(ctx, s.Name)
		if err != nil {
			return deploy.Request{}, err
		}
		if !deploy.Deployed(existing) {
			return deploy.Request{}, errNeedsBootstrap
		}
		o.log.Debug().Msg("keeping deployed auth function code")
		return req, nil
	}

	bucket := f.assetBucket
	if bucket == "" {
		bucket = cfg.AssetBucket
	}
	if bucket == "" {
		return deploy.Request{}, errors.New("no asset bucket: set assetBucket for the environment or pass --asset-bucket")
	}

	pkg, err := deploy.PackageBootstrap(f.bootstrap)
	if err != nil {
		return deploy.Request{}, err
	}
	assets := deploy.NewAssets(client.Assets, o.log, bucket, path.Join(constants.DefaultAssetPrefix, s.Name))
	key := assets.Key(authAssetName, pkg)
	if upload {
		if key, err = assets.Upload(ctx, authAssetName, pkg); err != nil {
			return deploy.Request{}, err
		}
	}
	req.Parameters[topology.IDAuthCodeBucket] = assets.Bucket()
	req.Parameters[topology.IDAuthCodeKey] = key
	return req, nil
}

func NewDiffCmd(o *rootOptions) *cobra.Command {
	flags := &deployFlags{}

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Show the changes a deploy would make",
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

			req, err := flags.request(ctx, o, client, d, s, cfg, false)
			if err != nil {
				return err
			}
			res, err := d.Diff(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), ui.Findings(s.Findings))
			fmt.Fprint(cmd.OutOrStdout(), ui.Changes(s.Name, res.Changes))
			return nil
		},
	}
	flags.register(cmd)

	return cmd
}

func NewDeployCmd(o *rootOptions) *cobra.Command {
	flags := &deployFlags{}

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Create or update the stack and wait for it to settle",
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
			d.Timeout = flags.timeout

			req, err := flags.request(ctx, o, client, d, s, cfg, true)
			if err != nil {
				return err
			}

			started := time.Now()
			res, err := d.Deploy(ctx, req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, ui.Changes(s.Name, res.Changes))
			b := ui.NewDetailBuilder(22)
			b.Blank()
			b.Section("Outputs")
			for _, k := range sortedKeys(res.Outputs) {
				b.Row(k, res.Outputs[k])
			}
			fmt.Fprint(out, b.String())
			o.log.Info().Str("stack", s.Name).Str("elapsed", utils.Elapsed(time.Since(started))).Bool("noChanges", res.NoChanges).Msg("deploy finished")
			return nil
		},
	}
	flags.register(cmd)

	return cmd
}

func NewDestroyCmd(o *rootOptions) *cobra.Command {
	var yes bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Delete the stack of an environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, cfg, err := o.loadStack()
			if err != nil {
				return err
			}
			if !yes {
				return fmt.Errorf("refusing to delete %s without --yes", s.Name)
			}
			client, err := o.clients(ctx, cfg)
			if err != nil {
				return err
			}
			d := deploy.NewDeployer(client.CloudFormation, o.log)
			d.Timeout = timeout
			if err := d.Destroy(ctx, s.Name); err != nil {
				return err
			}
			o.log.Info().Str("stack", s.Name).Msg("stack deleted")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm deletion")
	cmd.Flags().DurationVar(&timeout, "timeout", constants.DefaultDeployTimeoutMinutes*time.Minute, "how long to wait for the deletion")

	return cmd
}
