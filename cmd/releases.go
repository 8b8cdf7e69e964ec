package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ue4ss-installer/ue4ss"
)

var releasesCmd = &cobra.Command{
	Use:   "releases [game-dir]",
	Short: "List UE4SS release tags that have downloadable files",
	Long: `List UE4SS release tags that have downloadable files.

With a game directory the game's pre-release setting applies and its
selected tag is marked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		includePre, _ := cmd.Flags().GetBool("pre")
		filter, _ := cmd.Flags().GetString("filter")

		a, err := bootstrap(appConfig, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		current := ""
		if len(args) == 1 {
			g, err := a.loadGame(args[0])
			if err != nil {
				return err
			}
			includePre = includePre || g.ShowPreReleases
			current = g.UE4SSVersion
		}

		tags, err := a.session.ReleaseTags(cmd.Context(), includePre)
		if err != nil {
			return err
		}
		items, selected := ue4ss.FilterTags(tags, filter, current)
		printTags(cmd.OutOrStdout(), items, selected)
		return nil
	},
}

var assetsCmd = &cobra.Command{
	Use:   "assets <game-dir>",
	Short: "List the files of a release that match a game's settings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tag, _ := cmd.Flags().GetString("tag")
		filter, _ := cmd.Flags().GetString("filter")

		a, err := bootstrap(appConfig, nil)
		if err != nil {
			return err
		}
		defer a.Close()

		g, err := a.loadGame(args[0])
		if err != nil {
			return err
		}
		if tag == "" {
			tags, err := a.session.ReleaseTags(cmd.Context(), g.ShowPreReleases)
			if err != nil {
				return err
			}
			_, tag = ue4ss.FilterTags(tags, "", g.UE4SSVersion)
		}
		if tag == "" {
			return fmt.Errorf("no release tags available")
		}

		assets, err := a.session.AssetsForTag(cmd.Context(), tag)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Release %s\n", tag)
		printAssets(cmd.OutOrStdout(), assets, ue4ss.FilterAssets(assets, assetFilterFor(g, filter)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(releasesCmd, assetsCmd)

	releasesCmd.Flags().Bool("pre", false, "Include pre-releases")
	releasesCmd.Flags().String("filter", "", "Only show tags containing this text")
	assetsCmd.Flags().String("tag", "", "Release tag, defaults to the game's selected tag")
	assetsCmd.Flags().String("filter", "", "Only show files containing this text")
}
