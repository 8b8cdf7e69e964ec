package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <game-dir>",
	Short: "Remove the UE4SS files installed into a game",
	Long: `Remove every file the last install wrote, the UE4SS log and imgui.ini
files, and unless keep-mods is set, the ue4ss and Mods directories.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
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

		if !yes {
			msg := fmt.Sprintf("Remove %d UE4SS files from %s?", len(g.InstalledFiles), g.InstallDir)
			if !g.UsingKeepModsAndSettings {
				msg = fmt.Sprintf("Remove %d UE4SS files and the ue4ss and Mods folders from %s?", len(g.InstalledFiles), g.InstallDir)
			}
			if !confirm(cmd.InOrStdin(), out, msg) {
				fmt.Fprintln(out, "Aborted.")
				return nil
			}
		}

		result := a.installer.Uninstall(cmd.Context(), g)
		printOutcome(out, result)
		return outcomeError(result)
	},
}

// confirm asks a yes/no question, defaulting to no.
func confirm(in io.Reader, out io.Writer, msg string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", msg)
	r := bufio.NewReader(in)
	line, _ := r.ReadString('\n')
	resp := strings.TrimSpace(strings.ToLower(line))
	return resp == "y" || resp == "yes"
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
	uninstallCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
}
