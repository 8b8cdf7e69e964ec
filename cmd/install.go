package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ue4ss-installer/db"
	"ue4ss-installer/logger"
	"ue4ss-installer/ue4ss"
	"ue4ss-installer/workflow"
)

var installCmd = &cobra.Command{
	Use:   "install <game-dir>",
	Short: "Download and install UE4SS into a game",
	Long: `Download the selected UE4SS file and install it into the game's
executable directory. Without a selection the newest matching file is used.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDownloadInstall(cmd, args[0], workflow.OpInstall)
	},
}

var reinstallCmd = &cobra.Command{
	Use:   "reinstall <game-dir>",
	Short: "Remove the current UE4SS files and install again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDownloadInstall(cmd, args[0], workflow.OpReinstall)
	},
}

var installArchiveCmd = &cobra.Command{
	Use:   "install-archive <game-dir> <archive>",
	Short: "Install UE4SS from a local .zip, .7z or .rar file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		a, err := bootstrap(appConfig, cliNotifier{w: out})
		if err != nil {
			return err
		}
		defer a.Close()

		g, err := a.loadGame(args[0])
		if err != nil {
			return err
		}
		if g.IsInstalled() {
			logger.Log.Infow("Replacing existing install", zap.String("game", g.InstallDir), zap.Int("files", len(g.InstalledFiles)))
		}

		result := a.installer.InstallFromArchive(cmd.Context(), g, args[1])
		printOutcome(out, result)
		return outcomeError(result)
	},
}

func runDownloadInstall(cmd *cobra.Command, dir string, op workflow.Operation) error {
	pick, _ := cmd.Flags().GetBool("pick")
	out := cmd.OutOrStdout()

	a, err := bootstrap(appConfig, cliNotifier{w: out})
	if err != nil {
		return err
	}
	defer a.Close()

	g, err := a.loadGame(dir)
	if err != nil {
		return err
	}
	online := a.checkOnline(cmd.Context())
	if err := requireAllowed(op, online, g); err != nil {
		return err
	}

	if pick {
		err = pickRelease(cmd.Context(), a.session, g, cmd.InOrStdin(), out)
	} else if g.UE4SSVersion == "" || g.LastInstalledVersion == "" {
		err = a.selectDefaults(cmd.Context(), g)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Installing %s from %s into %s\n", g.LastInstalledVersion, g.UE4SSVersion, g.InstallDir)

	var result workflow.Outcome
	if op == workflow.OpReinstall {
		result = a.installer.Reinstall(cmd.Context(), g)
	} else {
		result = a.installer.Install(cmd.Context(), g)
	}
	printOutcome(out, result)
	return outcomeError(result)
}

// pickRelease lets the user choose the tag and file interactively.
func pickRelease(ctx context.Context, session *ue4ss.Session, g *db.Game, in io.Reader, out io.Writer) error {
	tags, err := session.ReleaseTags(ctx, g.ShowPreReleases)
	if err != nil {
		return err
	}
	items, selected := ue4ss.FilterTags(tags, "", g.UE4SSVersion)
	tag, err := selectItem("UE4SS version", items, selected, in, out)
	if err != nil {
		return err
	}

	assets, err := session.AssetsForTag(ctx, tag)
	if err != nil {
		return err
	}
	selection := ue4ss.FilterAssets(assets, assetFilterFor(g, ""))
	file, err := selectItem("File to install", selection.Items, selection.Default, in, out)
	if err != nil {
		return err
	}

	g.UE4SSVersion = tag
	g.LastInstalledVersion = file
	return nil
}

func selectItem(label string, items []string, selected string, in io.Reader, out io.Writer) (string, error) {
	if len(items) == 0 {
		return "", fmt.Errorf("nothing to choose for %s", label)
	}
	cursor := 0
	for i, item := range items {
		if item == selected {
			cursor = i
		}
	}

	prompt := promptui.Select{
		Label:     label,
		Items:     items,
		Size:      10,
		CursorPos: cursor,
		Stdin:     io.NopCloser(in),
		Stdout:    nopWriteCloser{out},
	}
	_, result, err := prompt.Run()
	if errors.Is(err, promptui.ErrInterrupt) {
		return "", fmt.Errorf("cancelled")
	}
	return result, err
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func init() {
	rootCmd.AddCommand(installCmd, reinstallCmd, installArchiveCmd)

	installCmd.Flags().Bool("pick", false, "Choose the release and file interactively")
	reinstallCmd.Flags().Bool("pick", false, "Choose the release and file interactively")
}
