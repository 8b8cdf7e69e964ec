package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ue4ss-installer/archive"
	"ue4ss-installer/db"
	"ue4ss-installer/game"
	"ue4ss-installer/logger"
	"ue4ss-installer/ui"
	"ue4ss-installer/workflow"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive game list",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd)
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

// GameInfo is one row of the game list.
type GameInfo struct {
	Name       string
	InstallDir string
	Version    string
	File       string
	Installed  bool
	FileCount  int
}

func gameInfoFrom(g db.Game) GameInfo {
	return GameInfo{
		Name:       game.DisplayName(g.InstallDir, g.GameTitle),
		InstallDir: g.InstallDir,
		Version:    g.UE4SSVersion,
		File:       g.LastInstalledVersion,
		Installed:  g.IsInstalled(),
		FileCount:  len(g.InstalledFiles),
	}
}

// Model represents the state of the TUI
type Model struct {
	app           *app
	ctx           context.Context
	cancel        context.CancelFunc
	games         []GameInfo
	selectedIndex int
	loading       bool
	online        bool
	error         string
	message       string
	width         int
	height        int
	spinner       spinner.Model

	progress     *WorkflowModel
	quitting     bool // ctrl+c pressed while a workflow runs
	archiveInput *textinput.Model
}

func newModel(ctx context.Context, a *app) Model {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ui.ColorBlue))
	ctx, cancel := context.WithCancel(ctx)
	return Model{
		app:     a,
		ctx:     ctx,
		cancel:  cancel,
		loading: true,
		width:   80,
		height:  24,
		spinner: s,
	}
}

// Message types
type gamesLoadedMsg struct {
	games  []GameInfo
	online bool
}

type errorMsg string

type clearMessageMsg struct{}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadGames(true),
		m.spinner.Tick,
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.progress != nil {
		return m.updateProgress(msg)
	}
	if m.archiveInput != nil {
		return m.updateArchiveInput(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case gamesLoadedMsg:
		m.handleGamesLoaded(msg)
	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case errorMsg:
		m.error = string(msg)
		m.loading = false
	case clearMessageMsg:
		m.message = ""
	}
	return m, nil
}

// updateProgress forwards messages to the running workflow view. Once it is
// done any key returns to the game list. ctrl+c cancels the workflow and
// quits once the engine has stopped.
func (m Model) updateProgress(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		if key.String() == "ctrl+c" {
			if m.progress.done {
				return m, tea.Quit
			}
			m.cancel()
			m.quitting = true
			return m, nil
		}
		if m.quitting {
			return m, nil
		}
		if m.progress.done {
			out := m.progress.outcome
			m.progress = nil
			m.message = outcomeMessage(out)
			m.loading = true
			return m, tea.Batch(m.loadGames(false), m.spinner.Tick, clearMessageAfter(5*time.Second))
		}
		return m, nil
	}
	if _, ok := msg.(tea.WindowSizeMsg); ok {
		return m, nil
	}

	progress, cmd := m.progress.Update(msg)
	m.progress = &progress
	if m.quitting && progress.done {
		return m, tea.Quit
	}
	return m, cmd
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.cancel()
		return m, tea.Quit
	case "up", "k":
		if m.selectedIndex > 0 {
			m.selectedIndex--
		}
	case "down", "j":
		if m.selectedIndex < len(m.games)-1 {
			m.selectedIndex++
		}
	case "ctrl+r":
		m.loading = true
		return m, tea.Batch(m.loadGames(true), m.spinner.Tick)
	case "i":
		return m.startOperation(workflow.OpInstall)
	case "r":
		return m.startOperation(workflow.OpReinstall)
	case "u":
		return m.startOperation(workflow.OpUninstall)
	case "a":
		return m.promptArchive()
	case "e":
		return m.openDir("exe")
	case "p":
		return m.openDir("paks")
	}
	return m, nil
}

func (m *Model) handleGamesLoaded(msg gamesLoadedMsg) {
	m.games = msg.games
	m.online = msg.online
	m.loading = false
	m.error = ""
	sort.SliceStable(m.games, func(i, j int) bool {
		return strings.ToLower(m.games[i].Name) < strings.ToLower(m.games[j].Name)
	})
	if m.selectedIndex >= len(m.games) {
		m.selectedIndex = max(len(m.games)-1, 0)
	}
}

func (m Model) selected() (GameInfo, bool) {
	if len(m.games) == 0 || m.selectedIndex >= len(m.games) {
		return GameInfo{}, false
	}
	return m.games[m.selectedIndex], true
}

// promptArchive asks for the archive to install into the selected game.
func (m Model) promptArchive() (tea.Model, tea.Cmd) {
	info, ok := m.selected()
	if !ok || m.loading {
		return m, nil
	}
	if !workflow.Allowed(workflow.OpInstallArchive, m.online, info.Installed) {
		m.message = fmt.Sprintf("%s is not available for %s", workflow.OpInstallArchive, info.Name)
		return m, clearMessageAfter(3 * time.Second)
	}

	ti := textinput.New()
	ti.Prompt = "Archive: "
	ti.Placeholder = "path to a .zip, .7z or .rar file"
	ti.CharLimit = 1024
	ti.Width = max(m.width-12, 20)
	ti.Focus()
	m.archiveInput = &ti
	return m, textinput.Blink
}

func (m Model) updateArchiveInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit
		case "esc":
			m.archiveInput = nil
			return m, nil
		case "enter":
			// Paths dropped onto a terminal often arrive quoted.
			path := strings.Trim(strings.TrimSpace(m.archiveInput.Value()), `"'`)
			m.archiveInput = nil
			if path == "" {
				m.message = "No archive given"
				return m, clearMessageAfter(3 * time.Second)
			}
			if !archive.Supported(path) {
				m.message = fmt.Sprintf("%s is not a .zip, .7z or .rar file", filepath.Base(path))
				return m, clearMessageAfter(3 * time.Second)
			}
			return m.startWorkflow(workflow.OpInstallArchive, path)
		}
	}
	if _, ok := msg.(tea.WindowSizeMsg); ok {
		return m, nil
	}

	input, cmd := m.archiveInput.Update(msg)
	m.archiveInput = &input
	return m, cmd
}

// startOperation runs op for the selected game if its state allows it.
func (m Model) startOperation(op workflow.Operation) (tea.Model, tea.Cmd) {
	return m.startWorkflow(op, "")
}

func (m Model) startWorkflow(op workflow.Operation, archivePath string) (tea.Model, tea.Cmd) {
	info, ok := m.selected()
	if !ok || m.loading {
		return m, nil
	}
	if !workflow.Allowed(op, m.online, info.Installed) {
		m.message = fmt.Sprintf("%s is not available for %s", op, info.Name)
		return m, clearMessageAfter(3 * time.Second)
	}

	g, err := m.app.loadGame(info.InstallDir)
	if err != nil {
		m.error = err.Error()
		return m, nil
	}
	if (op == workflow.OpInstall || op == workflow.OpReinstall) && (g.UE4SSVersion == "" || g.LastInstalledVersion == "") {
		if err := m.app.selectDefaults(m.ctx, g); err != nil {
			m.message = fmt.Sprintf("Could not pick a UE4SS file: %v", err)
			return m, clearMessageAfter(5 * time.Second)
		}
	}

	installer := m.app.installer
	var wf workflow.Workflow
	switch op {
	case workflow.OpUninstall:
		wf = installer.UninstallWorkflow()
	case workflow.OpInstallArchive:
		wf = installer.ArchiveWorkflow(archivePath)
	default:
		wf = installer.InstallWorkflow(op)
	}

	engine := installer.Engine
	ctx := m.ctx
	run := func(onStep func(workflow.StepEvent)) workflow.Outcome {
		engine.OnStep = onStep
		defer func() { engine.OnStep = nil }()
		if op == workflow.OpInstallArchive {
			return installer.InstallFromArchive(ctx, g, archivePath)
		}
		return engine.Run(ctx, wf, g)
	}

	title := fmt.Sprintf("%s %s", operationTitle(op), info.Name)
	progress := newWorkflowModel(title, wf, run)
	m.progress = &progress
	return m, progress.Init()
}

func (m Model) openDir(kind string) (tea.Model, tea.Cmd) {
	info, ok := m.selected()
	if !ok {
		return m, nil
	}
	dir, err := openTarget(kind, info.InstallDir)
	if err == nil {
		err = game.OpenInFileManager(dir)
	}
	if err != nil {
		m.message = fmt.Sprintf("Could not open directory: %v", err)
	} else {
		m.message = "Opened " + dir
	}
	return m, clearMessageAfter(3 * time.Second)
}

func operationTitle(op workflow.Operation) string {
	switch op {
	case workflow.OpInstall:
		return "Installing UE4SS for"
	case workflow.OpReinstall:
		return "Reinstalling UE4SS for"
	case workflow.OpInstallArchive:
		return "Installing UE4SS from an archive for"
	default:
		return "Uninstalling UE4SS from"
	}
}

func outcomeMessage(out workflow.Outcome) string {
	if out.Succeeded {
		return fmt.Sprintf("%s finished", out.Op)
	}
	return fmt.Sprintf("%s failed: %v", out.Op, out.Err)
}

func clearMessageAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearMessageMsg{}
	})
}

// View renders the UI
func (m Model) View() string {
	if m.progress != nil {
		if m.quitting && !m.progress.done {
			return m.progress.View() + "\n" + ui.Colorize("Cancelling after the current step...", ui.ColorYellow) + "\n"
		}
		return m.progress.View()
	}
	if m.loading {
		return ui.Bold(fmt.Sprintf("%s Loading games...", m.spinner.View()), ui.ColorBlue) + "\n"
	}
	if m.error != "" {
		return fmt.Sprintf("Error: %s\n", m.error)
	}
	if m.archiveInput != nil {
		info, _ := m.selected()
		return fmt.Sprintf("\n Install UE4SS into %s from an archive\n\n %s\n\n%s\n",
			ui.Bold(info.Name, ui.ColorBlue),
			m.archiveInput.View(),
			ui.FooterStyle.Render("enter: install  esc: cancel"),
		)
	}
	if len(m.games) == 0 {
		return "No games tracked. Run 'ue4ss-installer games discover' or 'games add <dir>'.\n"
	}

	var b strings.Builder
	b.WriteString(renderHeader(m.online))
	b.WriteString("\n")
	for i, g := range m.games {
		b.WriteString(m.renderGameRow(i, g))
		b.WriteString("\n")
	}
	b.WriteString("\n" + m.renderFooter())
	if m.message != "" {
		b.WriteString("\n" + ui.Colorize(m.message, ui.ColorGreen))
	}
	return b.String()
}

func renderHeader(online bool) string {
	status := ui.Colorize("online", ui.ColorGreen)
	if !online {
		status = ui.Colorize("offline", ui.ColorYellow)
	}
	header := ui.HeaderStyle.Render(fmt.Sprintf("%-36s %-15s %-22s %-24s", "Game", "Status", "Version", "File"))
	return header + "  " + status
}

func (m Model) renderGameRow(index int, g GameInfo) string {
	rowStyle := ui.RowStyle
	if index == m.selectedIndex {
		rowStyle = ui.SelectedRowStyle
	}
	row := fmt.Sprintf("%-36s %s %-22s %-24s",
		ui.Truncate(g.Name, 34),
		ui.InstallState(g.Installed),
		ui.Truncate(g.Version, 20),
		ui.Truncate(g.File, 22),
	)
	return rowStyle.Render(row)
}

// renderFooter lists the keys that apply to the selected game.
func (m Model) renderFooter() string {
	keys := []string{"↑/k: up", "↓/j: down"}
	if info, ok := m.selected(); ok {
		for _, op := range workflow.AvailableOperations(m.online, info.Installed) {
			switch op {
			case workflow.OpInstall:
				keys = append(keys, "i: install")
			case workflow.OpReinstall:
				keys = append(keys, "r: reinstall")
			case workflow.OpUninstall:
				keys = append(keys, "u: uninstall")
			case workflow.OpInstallArchive:
				keys = append(keys, "a: install from archive")
			}
		}
	}
	keys = append(keys, "e: open exe dir", "p: open paks dir", "ctrl+r: refresh", "q: quit")
	return ui.FooterStyle.Render(strings.Join(keys, "  "))
}

// loadGames reads the tracked games, optionally probing GitHub again.
func (m Model) loadGames(checkOnline bool) tea.Cmd {
	return func() tea.Msg {
		online := m.online
		if checkOnline {
			online = m.app.checkOnline(m.ctx)
		}
		records, err := m.app.store.ListRecords()
		if err != nil {
			logger.Log.Errorw("Failed to load games", zap.Error(err))
			return errorMsg(fmt.Sprintf("Failed to load games: %v", err))
		}
		games := make([]GameInfo, 0, len(records))
		for _, g := range records {
			games = append(games, gameInfoFrom(g))
		}
		return gamesLoadedMsg{games: games, online: online}
	}
}

func runTUI(cmd *cobra.Command) error {
	a, err := bootstrap(appConfig, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	m := newModel(cmd.Context(), a)
	defer m.cancel()
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logger.Log.Errorw("Failed to run TUI", zap.Error(err))
		return err
	}
	return nil
}
