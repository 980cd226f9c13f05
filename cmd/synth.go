package cmd

import (
	"github.com/spf13/cobra"

	"github.com/MrD1360/fargate-vpc-stack/internal/stack"
)

func NewSynthCmd(o *rootOptions) *cobra.Command {
	var format string
	var output string

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Print the template for an environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := stack.ParseFormat(format)
			if err != nil {
				return err
			}
			s, _, err := o.loadStack()
			if err != nil {
				return err
			}
			data, err := s.Template.Marshal(f)
			if err != nil {
				return err
			}
			if err := writeOutput(cmd.OutOrStdout(), output, data); err != nil {
				return err
			}
			if output != "" && output != "-" {
				o.log.Info().Str("stack", s.Name).Str("path", output).Msg("wrote template")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "template format (json or yaml)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")

	return cmd
}
