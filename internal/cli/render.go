package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/statisticsnorway/pkgdash/pkg/render"
	"github.com/statisticsnorway/pkgdash/pkg/snapshot"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string // HTML path; defaults to index.html next to the snapshot
	title    string // page title
	template string // custom html/template file
}

// renderCommand creates the command that turns a snapshot into the dashboard.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [snapshot]",
		Short: "Render a snapshot as a static HTML dashboard",
		Long: `Render the CSV snapshot written by "pkgdash fetch" as a single HTML page.

The snapshot defaults to the configured output path.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := c.snapshotPath(cmd, args)
			if err != nil {
				return err
			}
			return runRender(input, opts)
		},
	}

	cmd.Flags().StringVar(&opts.output, "html", "", "output HTML file (default: index.html next to the snapshot)")
	cmd.Flags().StringVar(&opts.title, "title", render.DefaultTitle, "page title")
	cmd.Flags().StringVar(&opts.template, "template", "", "custom html/template file")
	cmd.Flags().StringP(keyOutput, "o", "", "snapshot CSV path (default: configured output)")

	return cmd
}

func runRender(input string, opts renderOpts) error {
	records, err := snapshot.ReadFile(input)
	if err != nil {
		return err
	}

	ropts := render.Options{Title: opts.title}
	if len(records) > 0 {
		ropts.GeneratedAt = records[0].DownloadedAt
	}
	if opts.template != "" {
		src, err := render.LoadTemplate(opts.template)
		if err != nil {
			return err
		}
		ropts.Template = src
	}

	output := opts.output
	if output == "" {
		output = filepath.Join(filepath.Dir(input), "index.html")
	}
	if err := render.DashboardFile(output, records, ropts); err != nil {
		return err
	}

	printSuccess("Rendered %d packages", len(records))
	printFile(output)
	return nil
}

// snapshotPath returns the positional argument when given, otherwise the
// configured output path.
func (c *CLI) snapshotPath(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return "", err
	}
	return cfg.Output, nil
}
