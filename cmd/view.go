package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/codepulse/internal/report"
	"github.com/fakeyudi/codepulse/internal/stats"
	"github.com/fakeyudi/codepulse/internal/store"
	"github.com/fakeyudi/codepulse/internal/tui"
)

var plainOutput bool

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Browse today, week, month and year reports interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}

		f, isFile := cmd.OutOrStdout().(*os.File)
		if plainOutput || !isFile || !report.IsTTY(f) {
			r := renderer(cmd)
			r.Today(store.DateKey(time.Now()), a.TodayAggregate(cmd.Context()))
			if rep := a.GenerateSummary(stats.Weekly, 0); rep != nil {
				r.Summary(rep.Summary, rep.Observations)
			}
			return nil
		}
		return tui.Run(cmd.Context(), a)
	},
}

func init() {
	viewCmd.Flags().BoolVar(&plainOutput, "plain", false, "print today and this week as plain text instead of opening the viewer")
	rootCmd.AddCommand(viewCmd)
}
