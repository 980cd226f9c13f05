package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrD1360/fargate-vpc-stack/internal/render"
)

func NewDiagramCmd(o *rootOptions) *cobra.Command {
	r := &render.D2Renderer{}
	var output string

	cmd := &cobra.Command{
		Use:   "diagram",
		Short: "Render the stack as a D2 diagram",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch r.DetailLevel {
			case "minimal", "standard":
			default:
				return fmt.Errorf("invalid --detail %q (want minimal or standard)", r.DetailLevel)
			}
			s, _, err := o.loadStack()
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, []byte(r.Render(s)))
		},
	}

	cmd.Flags().StringVar(&r.DetailLevel, "detail", "standard", "detail level (minimal or standard)")
	cmd.Flags().StringVar(&r.Direction, "direction", "right", "layout direction")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")

	return cmd
}
