package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-instanceselect/pkg/orchestrator"
	"github.com/goliatone/go-instanceselect/pkg/render"
	"github.com/goliatone/go-instanceselect/pkg/renderers/tui"
	"github.com/goliatone/go-instanceselect/pkg/renderers/vanilla"
)

func newRenderCommand(a *app) *cobra.Command {
	var (
		page     pageFlags
		renderer string
		output   string
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the page script for a form",
		Long: `Runs the page-render hook for one data entry page and prints the output
of the selected renderer (the vanilla <script> block by default).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context) error {
				orch, err := a.orchestrator()
				if err != nil {
					return err
				}
				out, err := orch.Generate(ctx, page.request(a.project.ID(), renderer))
				if err != nil {
					return err
				}
				if output == "" {
					_, err := cmd.OutOrStdout().Write(out)
					return err
				}
				if err := os.WriteFile(output, out, 0o644); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
				color.New(color.FgGreen).Fprintf(cmd.ErrOrStderr(), "Page script written to %s\n", output)
				return nil
			})
		},
	}
	page.bind(cmd)
	cmd.Flags().StringVar(&renderer, "renderer", "", "renderer name (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	return cmd
}

func newPickCommand(a *app) *cobra.Command {
	var (
		page   pageFlags
		format string
	)
	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Choose values for tagged fields in the terminal",
		Long: `Resolves the tagged fields of a page and prompts for each one, printing
the chosen values.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch tui.OutputFormat(format) {
			case tui.OutputFormatJSON, tui.OutputFormatFormURLEncoded, tui.OutputFormatPrettyText:
			default:
				return fmt.Errorf("unsupported format %q", format)
			}
			return a.run(cmd, func(ctx context.Context) error {
				picker, err := tui.New(
					tui.WithPromptDriver(a.promptDriver()),
					tui.WithOutputFormat(tui.OutputFormat(format)),
				)
				if err != nil {
					return err
				}
				script, err := vanilla.New(a.settings.VanillaOptions()...)
				if err != nil {
					return err
				}
				registry, err := render.NewRegistry(picker, script)
				if err != nil {
					return err
				}
				orch, err := a.orchestrator(
					orchestrator.WithRegistry(registry),
					orchestrator.WithDefaultRenderer(picker.Name()),
				)
				if err != nil {
					return err
				}
				out, err := orch.Generate(ctx, page.request(a.project.ID(), picker.Name()))
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return err
			})
		},
	}
	page.bind(cmd)
	cmd.Flags().StringVar(&format, "format", string(tui.OutputFormatJSON), "output format: json, form or pretty")
	return cmd
}
