package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newThemeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Show or switch the persisted site theme",
	}
	cmd.PersistentFlags().String("state-dir", "state", "Directory holding persisted preferences")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the current theme",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m := a.newTheme()
			t, err := m.Init()
			if err != nil {
				a.logger.Warn("Theme preference unreadable, using default", zap.Error(err))
			}
			fmt.Fprintln(a.out, t)
			return nil
		},
	}

	toggle := &cobra.Command{
		Use:   "toggle",
		Short: "Switch between dark and light",
		Long: `Switch between dark and light and persist the choice. A running server
picks the new value up on its next start.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m := a.newTheme()
			if _, err := m.Init(); err != nil {
				a.logger.Warn("Theme preference unreadable, using default", zap.Error(err))
			}
			t, err := m.Toggle()
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, t)
			return nil
		},
	}

	cmd.AddCommand(show, toggle)
	return cmd
}
