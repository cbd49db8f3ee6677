package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write all tracked data as JSON to a file or stdout",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		data, err := a.Export()
		if err != nil {
			return err
		}
		if len(args) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}
		if err := os.WriteFile(args[0], append(data, '\n'), 0o600); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}
		cmd.Printf("Exported to %s\n", args[0])
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Merge data from an export file",
	Long: `Merge an export file into the local data. Days in the file replace
days with the same date; settings present in the file are applied.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading import file: %w", err)
		}
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		res := a.Import(cmd.Context(), data)
		if !res.OK {
			if res.Err != nil {
				return fmt.Errorf("import failed: %w", res.Err)
			}
			return errors.New(res.Message)
		}
		cmd.Println(res.Message)
		return nil
	},
}

var clearYes bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every tracked day",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !clearYes {
			return fmt.Errorf("refusing to delete all tracked data without --yes")
		}
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		if err := a.ClearAll(cmd.Context()); err != nil {
			return err
		}
		cmd.Println("All tracked data cleared")
		return nil
	},
}

func init() {
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "confirm deletion")
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(clearCmd)
}
