package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	awsclient "github.com/MrD1360/fargate-vpc-stack/internal/aws"
	"github.com/MrD1360/fargate-vpc-stack/internal/config"
	"github.com/MrD1360/fargate-vpc-stack/internal/constants"
	"github.com/MrD1360/fargate-vpc-stack/internal/topology"
)

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	contextFile string
	env         string
	profile     string
	region      string
	logLevel    string

	log zerolog.Logger
}

func NewRootCmd() *cobra.Command {
	o := &rootOptions{log: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:           "stackgen",
		Short:         "Compose and deploy a Fargate service stack per environment",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := zerolog.ParseLevel(strings.ToLower(o.logLevel))
			if err != nil {
				return fmt.Errorf("invalid --log-level %q: %w", o.logLevel, err)
			}
			o.log = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).
				With().Timestamp().Logger().Level(level)
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&o.contextFile, "context", "c", constants.DefaultContextFile, "project context file")
	flags.StringVarP(&o.env, "env", "e", "", "environment to target (default $"+constants.EnvVarEnvironment+")")
	flags.StringVarP(&o.profile, "profile", "p", "", "AWS profile to use")
	flags.StringVarP(&o.region, "region", "r", "", "AWS region to use")
	flags.StringVar(&o.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		NewSynthCmd(o),
		NewDiffCmd(o),
		NewDeployCmd(o),
		NewDestroyCmd(o),
		NewStatusCmd(o),
		NewLogsCmd(o),
		NewDiagramCmd(o),
		NewInitCmd(o),
	)
	return cmd
}

// loadStack resolves the selected environment and composes its stack.
func (o *rootOptions) loadStack() (*topology.Stack, *config.StackConfig, error) {
	user, err := config.LoadUserDefaults()
	if err != nil {
		return nil, nil, fmt.Errorf("loading user config: %w", err)
	}
	envName := user.Environment(o.env, os.Getenv(constants.EnvVarEnvironment))
	o.profile, o.region = user.Merge(o.profile, o.region)

	f, err := config.Load(o.contextFile)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := f.Resolve(envName)
	if err != nil {
		return nil, nil, err
	}
	if o.region == "" {
		o.region = cfg.Region
	}

	s, err := topology.Compose(cfg)
	if err != nil {
		return nil, nil, err
	}
	for _, finding := range s.Findings {
		ev := o.log.Warn()
		if finding.Severity == topology.SeverityInfo {
			ev = o.log.Info()
		}
		ev.Str("resource", finding.Resource).Msg(finding.Message)
	}
	o.log.Debug().Str("stack", s.Name).Int("resources", len(s.Template.Resources)).Msg("composed stack")
	return s, cfg, nil
}

// clients connects to AWS and checks the credentials match the environment's account.
func (o *rootOptions) clients(ctx context.Context, cfg *config.StackConfig) (*awsclient.ServiceClient, error) {
	client, err := awsclient.NewServiceClient(ctx, o.profile, o.region)
	if err != nil {
		return nil, fmt.Errorf("initializing AWS client: %w", err)
	}
	account, err := awsclient.CheckAccount(ctx, client.STS, cfg.Account)
	if err != nil {
		return nil, err
	}
	o.log.Debug().Str("account", account).Str("region", client.Region).Msg("connected")
	return client, nil
}
