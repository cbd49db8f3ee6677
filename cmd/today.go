package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/codepulse/internal/store"
)

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's coding time by language and project",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		renderer(cmd).Today(store.DateKey(time.Now()), a.TodayAggregate(cmd.Context()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(todayCmd)
}
