// Package workflow runs the install and uninstall workflows for a game.
//
// A workflow is an ordered list of steps run against one db.Game followed by
// a post-check that decides success from what is actually on disk.
package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ue4ss-installer/db"
)

// Operation names what a workflow does.
type Operation string

const (
	OpInstall        Operation = "install"
	OpReinstall      Operation = "reinstall"
	OpInstallArchive Operation = "install-archive"
	OpUninstall      Operation = "uninstall"
)

// Step is one labelled unit of a workflow.
type Step struct {
	Label string
	Run   func(ctx context.Context, g *db.Game) error
	// Always steps still run after an earlier step aborted the workflow.
	Always bool
}

// Workflow is an ordered list of steps plus the check that judges the result.
type Workflow struct {
	Op     Operation
	Steps  []Step
	Verify func(ctx context.Context, g *db.Game) error
}

// StepStatus is the state of a step within a run.
type StepStatus int

const (
	StepPending StepStatus = iota
	StepRunning
	StepDone
	StepFailed
	StepSkipped
)

func (s StepStatus) String() string {
	switch s {
	case StepRunning:
		return "running"
	case StepDone:
		return "done"
	case StepFailed:
		return "failed"
	case StepSkipped:
		return "skipped"
	default:
		return "pending"
	}
}

// StepResult is how a step ended.
type StepResult struct {
	Label  string
	Status StepStatus
	Err    error
}

// StepEvent is sent to Engine.OnStep whenever a step changes state.
type StepEvent struct {
	Index  int
	Total  int
	Label  string
	Status StepStatus
	Err    error
}

// Outcome is the result of a workflow run.
type Outcome struct {
	RunID      string
	Op         Operation
	InstallDir string
	Succeeded  bool
	Steps      []StepResult
	Err        error   // Abort or post-check error when not Succeeded
	Warnings   []error // Non-fatal step errors
	StartedAt  time.Time
	FinishedAt time.Time
}

// FailedStep returns the label of the step that aborted the run, or "".
func (o Outcome) FailedStep() string {
	for _, s := range o.Steps {
		if s.Status == StepFailed && KindOf(s.Err).fatal() {
			return s.Label
		}
	}
	return ""
}

// Engine runs workflows one step at a time on the calling goroutine.
type Engine struct {
	Store    RecordStore
	Notifier Notifier
	Log      *zap.SugaredLogger
	// OnStep, when set, observes every step transition.
	OnStep func(StepEvent)

	now func() time.Time
}

// NewEngine returns an Engine that saves to store and reports to notifier.
func NewEngine(store RecordStore, notifier Notifier, log *zap.SugaredLogger) *Engine {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if notifier == nil {
		notifier = LogNotifier{Log: log}
	}
	return &Engine{Store: store, Notifier: notifier, Log: log, now: time.Now}
}

func (e *Engine) clock() time.Time {
	if e.now == nil {
		return time.Now()
	}
	return e.now()
}

func (e *Engine) emit(ev StepEvent) {
	if e.OnStep != nil {
		e.OnStep(ev)
	}
}

// Run executes wf against g and returns what happened.
//
// Steps run strictly in order. A fatal error skips every later step that is
// not marked Always. Non-fatal errors are collected as warnings, and
// incomplete results are reported to the notifier as they happen. The
// post-check runs after the last step, aborted or not, and decides the
// result when nothing aborted. The record is saved at the end whatever the
// result.
func (e *Engine) Run(ctx context.Context, wf Workflow, g *db.Game) Outcome {
	log := e.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	out := Outcome{
		RunID:      uuid.NewString(),
		Op:         wf.Op,
		InstallDir: g.InstallDir,
		StartedAt:  e.clock(),
	}
	log.Infow("Starting workflow",
		zap.String("op", string(wf.Op)),
		zap.String("run", out.RunID),
		zap.String("game", g.InstallDir),
	)

	var abortErr error
	total := len(wf.Steps)
	for i, step := range wf.Steps {
		if abortErr == nil && ctx.Err() != nil {
			abortErr = ctx.Err()
		}
		if abortErr != nil && !step.Always {
			out.Steps = append(out.Steps, StepResult{Label: step.Label, Status: StepSkipped})
			e.emit(StepEvent{Index: i, Total: total, Label: step.Label, Status: StepSkipped})
			continue
		}

		e.emit(StepEvent{Index: i, Total: total, Label: step.Label, Status: StepRunning})
		log.Infow("Running step", zap.String("step", step.Label))
		err := step.Run(ctx, g)
		if err == nil {
			out.Steps = append(out.Steps, StepResult{Label: step.Label, Status: StepDone})
			e.emit(StepEvent{Index: i, Total: total, Label: step.Label, Status: StepDone})
			continue
		}

		out.Steps = append(out.Steps, StepResult{Label: step.Label, Status: StepFailed, Err: err})
		e.emit(StepEvent{Index: i, Total: total, Label: step.Label, Status: StepFailed, Err: err})

		switch kind := KindOf(err); {
		case kind == IncompleteInstall || kind == IncompleteUninstall:
			log.Warnw("Step left files behind", zap.String("step", step.Label), zap.Error(err))
			out.Warnings = append(out.Warnings, err)
			e.notifyFailure(wf.Op, g, step.Label, err)
		case !kind.fatal():
			log.Warnw("Step finished with errors", zap.String("step", step.Label), zap.Error(err))
			out.Warnings = append(out.Warnings, err)
		case abortErr == nil:
			log.Errorw("Step failed, aborting workflow", zap.String("step", step.Label), zap.Error(err))
			abortErr = err
		default:
			log.Warnw("Step failed after abort", zap.String("step", step.Label), zap.Error(err))
			out.Warnings = append(out.Warnings, err)
		}
	}

	// The post-check also runs after an abort so the record reflects what
	// is on disk. The abort stays the reported error.
	out.Err = abortErr
	if wf.Verify != nil {
		if err := wf.Verify(ctx, g); err != nil {
			log.Warnw("Post-check failed", zap.String("op", string(wf.Op)), zap.Error(err))
			if out.Err == nil {
				out.Err = err
			} else {
				out.Warnings = append(out.Warnings, err)
			}
		}
	}

	if e.Store != nil {
		if err := e.Store.SaveRecord(g); err != nil {
			log.Errorw("Failed to save game record", zap.String("game", g.InstallDir), zap.Error(err))
			if out.Err == nil {
				out.Err = err
			}
		}
	}

	out.Succeeded = out.Err == nil
	out.FinishedAt = e.clock()

	if out.Succeeded {
		log.Infow("Workflow succeeded", zap.String("op", string(wf.Op)), zap.Int("files", len(g.InstalledFiles)))
		if e.Notifier != nil {
			e.Notifier.NotifySuccess(Notification{Op: wf.Op, InstallDir: g.InstallDir})
		}
	} else {
		log.Warnw("Workflow failed", zap.String("op", string(wf.Op)), zap.Error(out.Err))
		e.notifyFailure(wf.Op, g, out.FailedStep(), out.Err)
	}

	e.recordRun(out, g)
	return out
}

func (e *Engine) notifyFailure(op Operation, g *db.Game, step string, err error) {
	if e.Notifier == nil {
		return
	}
	e.Notifier.NotifyFailure(Notification{Op: op, InstallDir: g.InstallDir, Step: step, Err: err})
}

func (e *Engine) recordRun(out Outcome, g *db.Game) {
	recorder, ok := e.Store.(RunRecorder)
	if !ok {
		return
	}
	run := &db.InstallRun{
		RunID:        out.RunID,
		InstallDir:   g.InstallDir,
		Operation:    string(out.Op),
		UE4SSVersion: g.UE4SSVersion,
		AssetName:    g.LastInstalledVersion,
		Succeeded:    out.Succeeded,
		FailedStep:   out.FailedStep(),
		FileCount:    len(g.InstalledFiles),
		StartedAt:    out.StartedAt,
		FinishedAt:   out.FinishedAt,
	}
	if out.Err != nil {
		run.Error = out.Err.Error()
	}
	if err := recorder.RecordRun(run); err != nil && e.Log != nil {
		e.Log.Warnw("Failed to record install history", zap.String("run", out.RunID), zap.Error(err))
	}
}

// Canceled reports whether the outcome ended because its context was done.
func (o Outcome) Canceled() bool {
	return errors.Is(o.Err, context.Canceled) || errors.Is(o.Err, context.DeadlineExceeded)
}
