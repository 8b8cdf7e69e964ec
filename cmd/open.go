package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ue4ss-installer/game"
)

var openCmd = &cobra.Command{
	Use:       "open exe|paks <game-dir>",
	Short:     "Open a game's executable or paks directory in the file manager",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"exe", "paks"},
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := openTarget(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Opening %s\n", dir)
		return game.OpenInFileManager(dir)
	},
}

// openTarget resolves which directory "open" shows.
func openTarget(kind, installDir string) (string, error) {
	switch kind {
	case "exe":
		exe := game.ResolveExeDir(installDir)
		if exe == "" {
			return "", fmt.Errorf("%s: %w", installDir, game.ErrNoExeDir)
		}
		return exe, nil
	case "paks":
		return game.PaksDir(installDir)
	default:
		return "", fmt.Errorf("unknown directory %q, expected exe or paks", kind)
	}
}

func init() {
	rootCmd.AddCommand(openCmd)
}
