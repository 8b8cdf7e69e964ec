package workflow

import (
	"go.uber.org/zap"
)

// Notification describes a finished workflow or an incomplete step.
type Notification struct {
	Op         Operation
	InstallDir string
	Step       string // set for failures that happened in a step
	Err        error
}

// Notifier receives success and failure reports. Front ends implement it to
// show dialogs or print results.
type Notifier interface {
	NotifySuccess(n Notification)
	NotifyFailure(n Notification)
}

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	Log *zap.SugaredLogger
}

func (l LogNotifier) NotifySuccess(n Notification) {
	l.Log.Infow("Workflow finished", zap.String("op", string(n.Op)), zap.String("game", n.InstallDir))
}

func (l LogNotifier) NotifyFailure(n Notification) {
	l.Log.Errorw("Workflow failed",
		zap.String("op", string(n.Op)),
		zap.String("game", n.InstallDir),
		zap.String("step", n.Step),
		zap.Error(n.Err),
	)
}
