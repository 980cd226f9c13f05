package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/spf13/cobra"

	"github.com/MrD1360/fargate-vpc-stack/internal/config"
	"github.com/MrD1360/fargate-vpc-stack/internal/constants"
)

var starterContext = template.Must(template.New("stack.yaml").Parse(`project: {{ .Project }}
environments:
  dev:
    env: dev
    # account: "123456789012"
    # region: eu-west-1
    # assetBucket: my-artifacts-bucket
    security:
      ingressCidr: {{ .Ingress }}
    compute:
      image: "{{ .Image }}"
      desiredCount: 1
    features:
      documentDB: false
      transferServer: false
  prod:
    env: prod
    compute:
      image: "{{ .Image }}"
      desiredCount: 2
`))

func NewInitCmd(o *rootOptions) *cobra.Command {
	var project string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter context file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if project == "" {
				wd, err := os.Getwd()
				if err != nil {
					return err
				}
				project = filepath.Base(wd)
			}
			if _, err := os.Stat(o.contextFile); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", o.contextFile)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			f, err := os.Create(o.contextFile)
			if err != nil {
				return err
			}
			err = starterContext.Execute(f, map[string]string{
				"Project": project,
				"Ingress": constants.AnyIPv4,
				"Image":   constants.DefaultImage,
			})
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return fmt.Errorf("writing %s: %w", o.contextFile, err)
			}

			// Fail here rather than on the first synth if the starter does not parse.
			if _, err := config.Load(o.contextFile); err != nil {
				return err
			}
			o.log.Info().Str("path", o.contextFile).Str("project", project).Msg("wrote context file")
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "project identifier (default: current directory name)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing context file")

	return cmd
}
