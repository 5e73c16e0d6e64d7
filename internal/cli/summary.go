package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/statisticsnorway/pkgdash/pkg/model"
	"github.com/statisticsnorway/pkgdash/pkg/snapshot"
)

// summaryCommand creates the command that prints a snapshot as a table.
func (c *CLI) summaryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "summary [snapshot]",
		Short: "Print the packages in a snapshot",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := c.snapshotPath(cmd, args)
			if err != nil {
				return err
			}
			records, err := snapshot.ReadFile(input)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				printWarning("%s has no packages", input)
				return nil
			}

			fmt.Println(summaryTable(records, limit))
			if limit > 0 && len(records) > limit {
				printDetail("%d more not shown (use --limit 0 for all)", len(records)-limit)
			}
			printKeyValue("packages", strconv.Itoa(len(records)))
			for _, pc := range platformCounts(records) {
				printKeyValue(pc.platform, strconv.Itoa(pc.count))
			}
			if ts := records[0].DownloadedAt; !ts.IsZero() {
				printKeyValue("downloaded", ts.Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum rows to show (0 for all)")
	cmd.Flags().StringP(keyOutput, "o", "", "snapshot CSV path (default: configured output)")

	return cmd
}

// summaryTable renders up to limit records; limit <= 0 shows all.
func summaryTable(records []model.CanonicalRecord, limit int) string {
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	rows := make([][]string, len(records))
	for i, r := range records {
		updated := "-"
		if r.LastUpdated != nil {
			updated = r.LastUpdated.Format(time.DateOnly)
		}
		rows[i] = []string{r.Name, r.Platform, r.LatestVersion, updated, r.OwnerName, strconv.Itoa(r.Stars)}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Package", "Platform", "Version", "Updated", "Owner", "Stars").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styleHeader.Padding(0, 1)
			case col == 0:
				return styleKept.Padding(0, 1)
			case col == 5:
				return StyleNumber.Padding(0, 1)
			default:
				return lipgloss.NewStyle().Padding(0, 1)
			}
		})
	return t.Render()
}

type platformCount struct {
	platform string
	count    int
}

// platformCounts counts records per platform in first-seen order.
func platformCounts(records []model.CanonicalRecord) []platformCount {
	var out []platformCount
	index := map[string]int{}
	for _, r := range records {
		i, ok := index[r.Platform]
		if !ok {
			i = len(out)
			index[r.Platform] = i
			out = append(out, platformCount{platform: r.Platform})
		}
		out[i].count++
	}
	return out
}
