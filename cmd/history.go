package cmd

import (
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history <game-dir>",
	Short: "Show past installs and uninstalls of a game",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := bootstrap(appConfig, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		g, err := a.loadGame(args[0])
		if err != nil {
			return err
		}
		runs, err := a.store.Runs(g.InstallDir, limit)
		if err != nil {
			return err
		}
		printHistory(cmd.OutOrStdout(), runs)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 20, "Number of runs to show, 0 for all")
}
