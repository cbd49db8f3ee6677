package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/codepulse/internal/report"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the live tracking session and today's total",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}

		today := a.TodayAggregate(cmd.Context())
		s := a.StoredSession()
		if s == nil {
			cmd.Println("no active session")
			cmd.Printf("Today: %s\n", report.Duration(today.TotalTimeMs))
			return nil
		}

		cmd.Printf("Session: %s\n", s.ID)
		cmd.Printf("Started: %s\n", s.StartTime.Format(time.RFC3339))
		cmd.Printf("Duration: %s\n", time.Since(s.StartTime).Round(time.Second).String())
		if s.WorkspaceName != "" {
			cmd.Printf("Workspace: %s\n", s.WorkspaceName)
		}
		cmd.Printf("Language: %s\n", s.LanguageID)
		if s.FileName != "" {
			cmd.Printf("File: %s\n", s.FileName)
		}
		cmd.Printf("Characters edited: %d\n", s.CharactersEdited)
		cmd.Printf("Today: %s\n", report.Duration(today.TotalTimeMs))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
