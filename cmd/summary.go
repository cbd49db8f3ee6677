package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/codepulse/internal/stats"
)

var (
	summaryPeriod string
	summaryOffset int
	summaryJSON   bool
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize a week, month or year of coding activity",
	Long: `Summarize a calendar period: totals, top languages, projects and files,
peaks, streaks, comparison with the previous period and coding style.

Use --offset to look back: --period month --offset 1 is last month.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := stats.ParsePeriod(summaryPeriod)
		if err != nil {
			return err
		}
		if summaryOffset < 0 {
			return fmt.Errorf("offset must not be negative, got %d", summaryOffset)
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		rep := a.GenerateSummary(p, summaryOffset)

		if summaryJSON {
			data, err := json.MarshalIndent(rep, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding summary: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}
		if rep == nil {
			cmd.Printf("No coding activity recorded for this %s.\n", p)
			return nil
		}
		renderer(cmd).Summary(rep.Summary, rep.Observations)
		return nil
	},
}

func init() {
	summaryCmd.Flags().StringVarP(&summaryPeriod, "period", "p", "week", "period to summarize: week, month or year")
	summaryCmd.Flags().IntVarP(&summaryOffset, "offset", "o", 0, "number of periods to look back")
	summaryCmd.Flags().BoolVar(&summaryJSON, "json", false, "print the summary as JSON")
	rootCmd.AddCommand(summaryCmd)
}
