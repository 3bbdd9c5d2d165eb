package report

import (
	"github.com/sirupsen/logrus"

	"github.com/supporttools/wifi-doctor/pkg/logger"
	"github.com/supporttools/wifi-doctor/pkg/types"
)

// Log emits a structured summary of the session to the process log. It is
// the reporter watch mode uses between intervals.
type Log struct{}

// NewLog returns a logging reporter.
func NewLog() *Log { return &Log{} }

// Report implements Reporter.
func (l *Log) Report(report *types.SessionReport) error {
	entry := logger.WithFields(logrus.Fields{
		"component":      "report",
		"platform":       report.Platform,
		"dry_run":        report.DryRun,
		"rounds":         len(report.Rounds),
		"classification": report.FinalClassification,
		"outcome":        report.Outcome,
		"duration":       report.FinishedAt.Sub(report.StartedAt).String(),
	})

	switch report.Outcome {
	case types.OutcomeResolved:
		entry.Info("Diagnostic session resolved")
	case types.OutcomePartiallyResolved:
		entry.Warn("Diagnostic session partially resolved")
	default:
		entry.Error("Diagnostic session unresolved")
	}

	for _, round := range report.Rounds {
		for _, record := range round.ActionsApplied {
			if record.Error == "" {
				continue
			}
			logger.WithFields(logrus.Fields{
				"component": "report",
				"round":     round.Number,
				"action":    record.ActionID,
				"kind":      record.ErrorKind,
			}).Warnf("Action failed: %s", record.Error)
		}
	}
	return nil
}
