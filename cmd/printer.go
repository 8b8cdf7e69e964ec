package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/rodaine/table"

	"ue4ss-installer/db"
	"ue4ss-installer/game"
	"ue4ss-installer/ue4ss"
	"ue4ss-installer/workflow"
)

func newTable(w io.Writer, columns ...interface{}) table.Table {
	headerFmt := color.New(color.FgGreen, color.Underline).SprintfFunc()
	columnFmt := color.New(color.FgYellow).SprintfFunc()

	tbl := table.New(columns...)
	tbl.WithHeaderFormatter(headerFmt).WithFirstColumnFormatter(columnFmt).WithWriter(w)
	return tbl
}

func printGames(w io.Writer, games []db.Game) {
	if len(games) == 0 {
		fmt.Fprintln(w, "No games tracked yet. Add one with 'games add <dir>' or 'games discover'.")
		return
	}
	tbl := newTable(w, "Game", "Status", "Version", "File", "Directory")
	for _, g := range games {
		status := "not installed"
		if g.IsInstalled() {
			status = fmt.Sprintf("installed (%d files)", len(g.InstalledFiles))
		}
		tbl.AddRow(game.DisplayName(g.InstallDir, g.GameTitle), status, g.UE4SSVersion, g.LastInstalledVersion, g.InstallDir)
	}
	tbl.Print()
}

func printTags(w io.Writer, tags []string, selected string) {
	if len(tags) == 0 {
		fmt.Fprintln(w, "No releases found.")
		return
	}
	tbl := newTable(w, "", "Tag")
	for _, tag := range tags {
		tbl.AddRow(marker(tag == selected), tag)
	}
	tbl.Print()
}

func printAssets(w io.Writer, assets []ue4ss.Asset, selection ue4ss.AssetSelection) {
	if len(selection.Items) == 0 {
		fmt.Fprintln(w, "No matching files in this release.")
		return
	}
	byName := make(map[string]ue4ss.Asset, len(assets))
	for _, a := range assets {
		byName[a.FileName] = a
	}
	tbl := newTable(w, "", "File", "Size", "Published")
	for _, name := range selection.Items {
		a := byName[name]
		tbl.AddRow(marker(name == selection.Default), name, humanize.Bytes(uint64(a.Size)), humanize.Time(a.CreatedAt))
	}
	tbl.Print()
}

func printHistory(w io.Writer, runs []db.InstallRun) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No install history for this game.")
		return
	}
	tbl := newTable(w, "When", "Operation", "Result", "Version", "File", "Files", "Took")
	for _, r := range runs {
		result := color.GreenString("ok")
		if !r.Succeeded {
			result = color.RedString("failed")
			if r.FailedStep != "" {
				result += " at " + r.FailedStep
			}
		}
		tbl.AddRow(humanize.Time(r.StartedAt), r.Operation, result, r.UE4SSVersion, r.AssetName, r.FileCount, r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	}
	tbl.Print()
}

func printOutcome(w io.Writer, out workflow.Outcome) {
	for _, s := range out.Steps {
		switch s.Status {
		case workflow.StepDone:
			fmt.Fprintf(w, "  %s %s\n", color.GreenString("✓"), s.Label)
		case workflow.StepFailed:
			fmt.Fprintf(w, "  %s %s: %v\n", color.RedString("✗"), s.Label, s.Err)
		case workflow.StepSkipped:
			fmt.Fprintf(w, "  %s %s\n", color.HiBlackString("-"), s.Label)
		}
	}
}

func marker(selected bool) string {
	if selected {
		return "*"
	}
	return ""
}

// cliNotifier prints the end of a workflow for the command line.
type cliNotifier struct {
	w io.Writer
}

func (n cliNotifier) NotifySuccess(note workflow.Notification) {
	fmt.Fprintf(n.w, "%s %s finished for %s\n", color.GreenString("Success:"), note.Op, note.InstallDir)
}

func (n cliNotifier) NotifyFailure(note workflow.Notification) {
	where := ""
	if note.Step != "" {
		where = " (" + note.Step + ")"
	}
	fmt.Fprintf(n.w, "%s %s%s for %s: %v\n", color.RedString("Failed:"), note.Op, where, note.InstallDir, note.Err)
}
