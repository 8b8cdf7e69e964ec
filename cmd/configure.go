package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ue4ss-installer/db"
	"ue4ss-installer/logger"
)

var configureCmd = &cobra.Command{
	Use:   "configure <game-dir>",
	Short: "Change which UE4SS build a game uses",
	Long: `Change the per-game install settings. Only the flags you pass are changed.

--developer and --portable are mutually exclusive: enabling one disables the other.
Changing the build type or tag picks a matching file unless --file is given.`,
	Args: cobra.ExactArgs(1),
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

		flags := cmd.Flags()
		if err := applyConfigureFlags(g, flags.Changed, flags.GetBool, flags.GetString); err != nil {
			return err
		}

		reselect := !flags.Changed("file") && (flags.Changed("version") || flags.Changed("developer") || flags.Changed("portable") || flags.Changed("pre-releases"))
		if (reselect || flags.Changed("version")) && a.checkOnline(cmd.Context()) {
			if flags.Changed("version") {
				if err := a.checkTag(cmd.Context(), g); err != nil {
					return err
				}
			}
			if reselect {
				if err := a.selectDefaults(cmd.Context(), g); err != nil {
					logger.Log.Warnw("Could not pick a file for the new settings", zap.Error(err))
				}
			}
		}

		if err := a.store.SaveRecord(g); err != nil {
			return err
		}
		printGames(cmd.OutOrStdout(), []db.Game{*g})
		return nil
	},
}

// applyConfigureFlags copies the changed flags onto g.
func applyConfigureFlags(
	g *db.Game,
	changed func(string) bool,
	getBool func(string) (bool, error),
	getString func(string) (string, error),
) error {
	if changed("developer") && changed("portable") {
		dev, _ := getBool("developer")
		portable, _ := getBool("portable")
		if dev && portable {
			return fmt.Errorf("--developer and --portable cannot both be enabled")
		}
	}

	if changed("developer") {
		v, _ := getBool("developer")
		g.SetDeveloperVersion(v)
	}
	if changed("portable") {
		v, _ := getBool("portable")
		g.SetPortableVersion(v)
	}
	if changed("keep-mods") {
		g.UsingKeepModsAndSettings, _ = getBool("keep-mods")
	}
	if changed("pre-releases") {
		g.ShowPreReleases, _ = getBool("pre-releases")
	}
	if changed("version") {
		g.UE4SSVersion, _ = getString("version")
	}
	if changed("file") {
		g.LastInstalledVersion, _ = getString("file")
	}
	if changed("title") {
		g.GameTitle, _ = getString("title")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(configureCmd)

	configureCmd.Flags().String("version", "", "Release tag to install")
	configureCmd.Flags().String("file", "", "Release file to install")
	configureCmd.Flags().String("title", "", "Display name of the game")
	configureCmd.Flags().Bool("developer", false, "Use the developer build")
	configureCmd.Flags().Bool("portable", false, "Use the portable (Standard) build")
	configureCmd.Flags().Bool("keep-mods", false, "Keep ue4ss/ and Mods/ when uninstalling")
	configureCmd.Flags().Bool("pre-releases", false, "Offer pre-release tags")
}
