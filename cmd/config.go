package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/codepulse/internal/report"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change persisted tracking settings",
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the persisted settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		s := a.Settings()
		idle := "disabled"
		if s.IdleTimeoutMs > 0 {
			idle = s.IdleTimeout().String()
		}
		cmd.Printf("idle-timeout: %s\n", idle)
		cmd.Printf("status-bar: %t\n", s.ShowStatusBar)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a persisted setting",
	Long: `Change a persisted setting. Keys:

  idle-timeout  duration such as 5m or 90s; 0 disables idle detection
  status-bar    true or false`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		switch key {
		case "idle-timeout":
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid idle timeout %q: %w", value, err)
			}
			if err := a.UpdateIdleTimeout(cmd.Context(), d); err != nil {
				return err
			}
			if d == 0 {
				cmd.Println("Idle detection disabled")
			} else {
				cmd.Printf("Idle timeout set to %s\n", report.Duration(d.Milliseconds()))
			}
		case "status-bar":
			on, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("invalid status-bar value %q: want true or false", value)
			}
			if err := a.SetShowStatusBar(cmd.Context(), on); err != nil {
				return err
			}
			cmd.Printf("Status bar %s\n", map[bool]string{true: "enabled", false: "disabled"}[on])
		default:
			return fmt.Errorf("unknown setting %q: want idle-timeout or status-bar", key)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
