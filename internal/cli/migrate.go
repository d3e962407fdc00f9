package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-instanceselect/pkg/actiontag"
	"github.com/goliatone/go-instanceselect/pkg/migrate"
	"github.com/goliatone/go-instanceselect/pkg/project"
	"github.com/goliatone/go-instanceselect/pkg/renderers/tui"
)

func newMigrateCommand(a *app) *cobra.Command {
	var (
		fields []string
		dryRun bool
		yes    bool
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Rewrite legacy composite values",
		Long: `Rewrites stored values of @RECORDINSTANCE and @FORMINSTANCE fields from the
legacy "qualifier:value" form to "qualifier.value". Every tagged field of every
form is scanned unless --field is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context) error {
				targets := fields
				if len(targets) == 0 {
					targets = compositeFields(a.project)
				}
				out := cmd.OutOrStdout()
				if len(targets) == 0 {
					color.New(color.FgHiBlack).Fprintln(out, "No tagged fields to migrate")
					return nil
				}

				migrator, err := migrate.New(a.store,
					migrate.WithSeparators(a.settings.SeparatorValues()),
					migrate.WithLogger(a.logger.Named("migrate")),
				)
				if err != nil {
					return err
				}

				plan, changes, err := migrator.Plan(ctx, targets)
				if err != nil {
					return err
				}
				printPlan(cmd, plan, changes)
				if dryRun || len(changes) == 0 {
					return nil
				}

				if !yes {
					ok, err := a.promptDriver().Confirm(ctx, tui.ConfirmConfig{
						Message: fmt.Sprintf("Rewrite %d value(s) in %d record(s)?", plan.Rewritten, len(plan.Records)),
					})
					if err != nil {
						return err
					}
					if !ok {
						color.New(color.FgYellow).Fprintln(out, "Migration cancelled")
						return nil
					}
				}

				report, err := migrator.Migrate(ctx, targets)
				if err != nil {
					return err
				}
				color.New(color.FgGreen, color.Bold).Fprintf(out, "Rewrote %d value(s) in %d record(s)\n", report.Rewritten, len(report.Records))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&fields, "field", nil, "field to migrate (repeatable)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "only report the values that would change")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

// compositeFields lists the fields whose stored values can carry a qualifier:
// record and form instance selects, in form order.
func compositeFields(p *project.Project) []string {
	var out []string
	for _, form := range p.Forms() {
		for _, tagged := range actiontag.Scan(p.FormFields(form.Name)) {
			if tagged.Tag == actiontag.EventInstance {
				continue
			}
			out = append(out, tagged.Field.Name)
		}
	}
	return out
}

func printPlan(cmd *cobra.Command, plan migrate.Report, changes []project.Value) {
	out := cmd.OutOrStdout()
	title := color.New(color.FgCyan, color.Bold)
	dim := color.New(color.FgHiBlack)

	title.Fprintf(out, "Fields: ")
	fmt.Fprintln(out, strings.Join(plan.Fields, ", "))
	title.Fprintf(out, "Scanned: ")
	fmt.Fprintln(out, plan.Scanned)
	title.Fprintf(out, "To rewrite: ")
	fmt.Fprintln(out, plan.Rewritten)
	for _, change := range changes {
		dim.Fprintf(out, "  %s/%d/%d ", change.Record, change.EventID, change.Instance)
		fmt.Fprintf(out, "%s = %s\n", change.Field, change.Value)
	}
}
