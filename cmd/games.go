package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ue4ss-installer/game"
	"ue4ss-installer/logger"
)

var gamesCmd = &cobra.Command{
	Use:   "games",
	Short: "Manage the games UE4SS can be installed into",
}

var gamesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked games and their install state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(appConfig, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		games, err := a.store.ListRecords()
		if err != nil {
			return err
		}
		printGames(cmd.OutOrStdout(), games)
		return nil
	},
}

var gamesAddCmd = &cobra.Command{
	Use:   "add <game-dir>",
	Short: "Track a game installation directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		force, _ := cmd.Flags().GetBool("force")

		dir := args[0]
		if exe := game.ResolveExeDir(dir); exe == "" && !force {
			return fmt.Errorf("%s: %w (use --force to add it anyway)", dir, game.ErrNoExeDir)
		}
		if title == "" {
			title = filepath.Base(filepath.Clean(dir))
		}

		a, err := bootstrap(appConfig, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		g, created, err := a.store.Register(dir, title)
		if err != nil {
			return err
		}
		if created {
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", game.DisplayName(g.InstallDir, g.GameTitle), g.InstallDir)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s is already tracked\n", g.InstallDir)
		}
		return nil
	},
}

var gamesDiscoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find Unreal Engine games in your Steam libraries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		roots := game.FindSteamRoots(appConfig.SteamRoot)
		if len(roots) == 0 {
			return fmt.Errorf("no Steam installation found; set STEAM_ROOT or add games with 'games add'")
		}
		found := game.Discover(roots)
		logger.Log.Infow("Discovery finished", zap.Strings("roots", roots), zap.Int("games", len(found)))
		if len(found) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No Unreal Engine games found.")
			return nil
		}

		a, err := bootstrap(appConfig, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		added := 0
		for _, d := range found {
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", d.Name, d.InstallPath)
				continue
			}
			_, created, err := a.store.Register(d.InstallPath, d.Name)
			if err != nil {
				logger.Log.Warnw("Failed to add discovered game", zap.String("dir", d.InstallPath), zap.Error(err))
				continue
			}
			if created {
				added++
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", game.DisplayName(d.InstallPath, d.Name))
			}
		}
		if !dryRun {
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d discovered games were new\n", added, len(found))
		}
		return nil
	},
}

var gamesRemoveCmd = &cobra.Command{
	Use:   "remove <game-dir>",
	Short: "Stop tracking a game; files on disk are left alone",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(appConfig, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		g, err := a.loadGame(args[0])
		if err != nil {
			return err
		}
		if g.IsInstalled() {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: UE4SS is still installed in %s; its file list is forgotten too\n", g.InstallDir)
		}
		if err := a.store.Forget(g.InstallDir); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", g.InstallDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(gamesCmd)
	gamesCmd.AddCommand(gamesListCmd, gamesAddCmd, gamesDiscoverCmd, gamesRemoveCmd)

	gamesAddCmd.Flags().String("title", "", "Display name used when the game is not in the known games list")
	gamesAddCmd.Flags().Bool("force", false, "Add the directory even if no Win64 or WinGDK folder is found")
	gamesDiscoverCmd.Flags().Bool("dry-run", false, "Only print what would be added")
}
