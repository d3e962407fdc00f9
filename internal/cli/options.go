package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-instanceselect/pkg/render"
)

type fieldOptions struct {
	Field        string      `json:"field"`
	Tag          string      `json:"tag"`
	Param        string      `json:"param,omitempty"`
	Mode         render.Mode `json:"mode"`
	CurrentValue string      `json:"currentValue,omitempty"`
	Options      any         `json:"options"`
}

func newOptionsCommand(a *app) *cobra.Command {
	var (
		page   pageFlags
		field  string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "options",
		Short: "List the resolved options of tagged fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context) error {
				orch, err := a.orchestrator()
				if err != nil {
					return err
				}
				result, err := orch.Page(ctx, page.request(a.project.ID(), ""))
				if err != nil {
					return err
				}

				var selected []render.Directive
				for _, d := range result.Directives {
					if field == "" || d.Field == field {
						selected = append(selected, d)
					}
				}
				if field != "" && len(selected) == 0 {
					return fmt.Errorf("field %q has no instance select on form %q", field, page.form)
				}

				if asJSON {
					out := make([]fieldOptions, len(selected))
					for i, d := range selected {
						out[i] = fieldOptions{
							Field:        d.Field,
							Tag:          d.Tag.String(),
							Param:        d.Param,
							Mode:         d.Mode,
							CurrentValue: d.CurrentValue,
							Options:      d.Options,
						}
					}
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(out)
				}

				printDirectives(cmd, selected)
				return nil
			})
		},
	}
	page.bind(cmd)
	cmd.Flags().StringVar(&field, "field", "", "only list this field")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func printDirectives(cmd *cobra.Command, directives []render.Directive) {
	out := cmd.OutOrStdout()
	title := color.New(color.FgCyan, color.Bold)
	dim := color.New(color.FgHiBlack)
	current := color.New(color.FgGreen)

	if len(directives) == 0 {
		dim.Fprintln(out, "No tagged fields on this page")
		return
	}
	for _, d := range directives {
		title.Fprintf(out, "%s", d.Field)
		dim.Fprintf(out, " %s=%s (%s)\n", d.Tag, d.Param, d.Mode)
		if d.Options.Empty() {
			dim.Fprintln(out, "  (no instances)")
			continue
		}
		for _, option := range d.Options.Options() {
			if option.Value == d.CurrentValue {
				current.Fprintf(out, "* %s  %s\n", option.Value, option.Label)
				continue
			}
			fmt.Fprintf(out, "  %s  %s\n", option.Value, option.Label)
		}
	}
}
