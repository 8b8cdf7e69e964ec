package cmd

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"ue4ss-installer/db"
	"ue4ss-installer/workflow"
)

func loadedModel(online bool, games ...GameInfo) Model {
	m := newModel(context.Background(), nil)
	m.handleGamesLoaded(gamesLoadedMsg{games: games, online: online})
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestGameInfoFrom(t *testing.T) {
	g := db.Game{
		InstallDir:           "/games/Custom",
		GameTitle:            "My Custom Game",
		UE4SSVersion:         "v3.0.1",
		LastInstalledVersion: "UE4SS_v3.0.1.zip",
		InstalledFiles:       []string{"dwmapi.dll", "ue4ss/UE4SS.dll"},
	}
	want := GameInfo{
		Name:       "My Custom Game",
		InstallDir: "/games/Custom",
		Version:    "v3.0.1",
		File:       "UE4SS_v3.0.1.zip",
		Installed:  true,
		FileCount:  2,
	}
	if diff := cmp.Diff(want, gameInfoFrom(g)); diff != "" {
		t.Errorf("gameInfoFrom() mismatch (-want +got):\n%s", diff)
	}
}

func TestModelGamesLoadedSortsByName(t *testing.T) {
	m := loadedModel(true,
		GameInfo{Name: "zeta"},
		GameInfo{Name: "Alpha"},
		GameInfo{Name: "beta"},
	)
	var names []string
	for _, g := range m.games {
		names = append(names, g.Name)
	}
	if diff := cmp.Diff([]string{"Alpha", "beta", "zeta"}, names); diff != "" {
		t.Errorf("Unexpected order (-want +got):\n%s", diff)
	}
	if m.loading {
		t.Error("loading should be false after games are loaded")
	}
}

func TestModelNavigation(t *testing.T) {
	var model tea.Model = loadedModel(true, GameInfo{Name: "A"}, GameInfo{Name: "B"})

	model, _ = model.Update(key("down"))
	model, _ = model.Update(key("j"))
	if got := model.(Model).selectedIndex; got != 1 {
		t.Errorf("selectedIndex = %d, want 1", got)
	}
	model, _ = model.Update(key("k"))
	model, _ = model.Update(key("up"))
	if got := model.(Model).selectedIndex; got != 0 {
		t.Errorf("selectedIndex = %d, want 0", got)
	}
}

func TestModelRefusesUnavailableOperation(t *testing.T) {
	tests := []struct {
		name      string
		online    bool
		installed bool
		key       string
	}{
		{"install when installed", true, true, "i"},
		{"reinstall when clean", true, false, "r"},
		{"uninstall when clean", true, false, "u"},
		{"install offline", false, false, "i"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := loadedModel(tt.online, GameInfo{Name: "Game", InstallDir: "/g", Installed: tt.installed})
			updated, cmd := m.Update(key(tt.key))
			got := updated.(Model)
			if !strings.Contains(got.message, "is not available") {
				t.Errorf("Expected refusal message, got %q", got.message)
			}
			if got.progress != nil {
				t.Error("No workflow should start")
			}
			if cmd == nil {
				t.Error("Expected a command clearing the message")
			}
		})
	}
}

func TestRenderFooterListsAvailableKeys(t *testing.T) {
	m := loadedModel(true, GameInfo{Name: "Game", Installed: true})
	footer := m.renderFooter()
	for _, want := range []string{"u: uninstall", "r: reinstall"} {
		if !strings.Contains(footer, want) {
			t.Errorf("Footer %q is missing %q", footer, want)
		}
	}
	if strings.Contains(footer, "i: install") {
		t.Errorf("Footer should not offer install: %q", footer)
	}

	m = loadedModel(false, GameInfo{Name: "Game"})
	footer = m.renderFooter()
	if strings.Contains(footer, "i: install") || strings.Contains(footer, "u: uninstall") {
		t.Errorf("Offline clean game should offer neither install nor uninstall: %q", footer)
	}
}

func TestModelView(t *testing.T) {
	m := newModel(context.Background(), nil)
	if !strings.Contains(m.View(), "Loading games") {
		t.Error("Expected loading view")
	}

	m = loadedModel(true)
	if !strings.Contains(m.View(), "No games tracked") {
		t.Error("Expected empty view")
	}

	updated, _ := m.Update(errorMsg("boom"))
	if !strings.Contains(updated.View(), "Error: boom") {
		t.Error("Expected error view")
	}
}

func TestWorkflowModelUpdate(t *testing.T) {
	wf := workflow.Workflow{Op: workflow.OpUninstall, Steps: []workflow.Step{
		{Label: workflow.LabelLocate},
		{Label: workflow.LabelUninstall},
	}}
	m := newWorkflowModel("Uninstalling UE4SS from Game", wf, nil)

	m, _ = m.Update(stepProgressMsg{Index: 0, Total: 2, Label: workflow.LabelLocate, Status: workflow.StepDone})
	stepErr := errors.New("access denied")
	m, _ = m.Update(stepProgressMsg{Index: 1, Total: 2, Label: workflow.LabelUninstall, Status: workflow.StepFailed, Err: stepErr})
	m, _ = m.Update(stepProgressMsg{Index: 7, Status: workflow.StepDone})

	if m.steps[0].Status != workflow.StepDone || m.steps[1].Status != workflow.StepFailed {
		t.Errorf("Unexpected statuses: %v, %v", m.steps[0].Status, m.steps[1].Status)
	}
	if !strings.Contains(m.View(), "access denied") {
		t.Error("View should show the step error")
	}

	m, _ = m.Update(workflowDoneMsg{outcome: workflow.Outcome{Op: workflow.OpUninstall, Err: stepErr}})
	if !m.done {
		t.Fatal("Expected done after workflowDoneMsg")
	}
	if !strings.Contains(m.View(), "press any key") {
		t.Error("Done view should ask for a key press")
	}
}

func TestWorkflowModelRunsWorkflow(t *testing.T) {
	wf := workflow.Workflow{Op: workflow.OpInstall, Steps: []workflow.Step{{Label: "one"}}}
	run := func(onStep func(workflow.StepEvent)) workflow.Outcome {
		onStep(workflow.StepEvent{Index: 0, Total: 1, Label: "one", Status: workflow.StepRunning})
		onStep(workflow.StepEvent{Index: 0, Total: 1, Label: "one", Status: workflow.StepDone})
		return workflow.Outcome{Op: workflow.OpInstall, Succeeded: true}
	}
	m := newWorkflowModel("Installing", wf, run)
	m.start()()

	for !m.done {
		msg := m.waitForActivity()()
		if msg == nil {
			t.Fatal("Channel closed before the outcome arrived")
		}
		m, _ = m.Update(msg)
	}
	if !m.outcome.Succeeded || m.steps[0].Status != workflow.StepDone {
		t.Errorf("Unexpected final state: %+v %v", m.outcome, m.steps[0].Status)
	}
}

func TestOutcomeMessage(t *testing.T) {
	ok := workflow.Outcome{Op: workflow.OpInstall, Succeeded: true}
	if got := outcomeMessage(ok); got != "install finished" {
		t.Errorf("outcomeMessage() = %q", got)
	}
	failed := workflow.Outcome{Op: workflow.OpUninstall, Err: errors.New("nope")}
	if got := outcomeMessage(failed); got != "uninstall failed: nope" {
		t.Errorf("outcomeMessage() = %q", got)
	}
	if got := operationTitle(workflow.OpReinstall); got != "Reinstalling UE4SS for" {
		t.Errorf("operationTitle() = %q", got)
	}
}

func TestCtrlCCancelsRunningWorkflow(t *testing.T) {
	m := loadedModel(true, GameInfo{Name: "Game", InstallDir: "/g", Installed: true})
	wf := workflow.Workflow{Op: workflow.OpUninstall, Steps: []workflow.Step{{Label: workflow.LabelUninstall}}}
	progress := newWorkflowModel("Uninstalling UE4SS from Game", wf, nil)
	m.progress = &progress

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd != nil {
		t.Error("Quit must wait until the workflow has stopped")
	}
	if m.ctx.Err() == nil {
		t.Error("ctrl+c should cancel the workflow context")
	}
	m = updated.(Model)
	if !strings.Contains(m.View(), "Cancelling") {
		t.Errorf("Expected a cancelling notice, got:\n%s", m.View())
	}

	// Further keys are ignored until the engine reports back.
	updated, _ = m.Update(key("q"))
	m = updated.(Model)
	if m.progress == nil {
		t.Fatal("Progress view should stay until the workflow is done")
	}

	_, cmd = m.Update(workflowDoneMsg{outcome: workflow.Outcome{Op: workflow.OpUninstall, Err: context.Canceled}})
	if cmd == nil {
		t.Fatal("Expected quit once the workflow stopped")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected a tea.QuitMsg")
	}
}

func TestArchivePrompt(t *testing.T) {
	m := loadedModel(false, GameInfo{Name: "Offline Game", InstallDir: "/g"})
	if footer := m.renderFooter(); !strings.Contains(footer, "a: install from archive") {
		t.Errorf("Offline clean game should offer archive installs: %q", footer)
	}

	updated, _ := m.Update(key("a"))
	m = updated.(Model)
	if m.archiveInput == nil {
		t.Fatal("Expected the archive prompt to open")
	}
	if !strings.Contains(m.View(), "from an archive") {
		t.Errorf("Unexpected prompt view:\n%s", m.View())
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if updated.(Model).archiveInput != nil {
		t.Error("esc should close the prompt")
	}

	updated, _ = m.Update(key("/tmp/UE4SS.tar.gz"))
	updated, cmd := updated.Update(tea.KeyMsg{Type: tea.KeyEnter})
	got := updated.(Model)
	if got.archiveInput != nil || got.progress != nil {
		t.Error("An unsupported archive must not start a workflow")
	}
	if !strings.Contains(got.message, "UE4SS.tar.gz is not a .zip") {
		t.Errorf("Unexpected message %q", got.message)
	}
	if cmd == nil {
		t.Error("Expected a command clearing the message")
	}
}

func TestArchivePromptRefusedWhenInstalled(t *testing.T) {
	m := loadedModel(true, GameInfo{Name: "Game", InstallDir: "/g", Installed: true})
	updated, _ := m.Update(key("a"))
	got := updated.(Model)
	if got.archiveInput != nil {
		t.Error("Archive installs are not offered for an installed game")
	}
	if !strings.Contains(got.message, "is not available") {
		t.Errorf("Unexpected message %q", got.message)
	}
}
