// Package engine runs the convergence loop that drives a diagnostic session:
// probe, classify, remediate, re-probe, until the host is healthy or the
// round budget runs out.
package engine

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/supporttools/wifi-doctor/pkg/classify"
	"github.com/supporttools/wifi-doctor/pkg/logger"
	"github.com/supporttools/wifi-doctor/pkg/netctl"
	"github.com/supporttools/wifi-doctor/pkg/policy"
	"github.com/supporttools/wifi-doctor/pkg/probes"
	"github.com/supporttools/wifi-doctor/pkg/types"
)

// powerCycleDelay is how long the WiFi interface stays down during a
// toggle_interface_power cycle before being brought back up.
const powerCycleDelay = 2 * time.Second

// Engine owns one diagnostic session. It is single-threaded: probes and
// actions run strictly sequentially so no probe ever observes another
// operation's side effects mid-measurement.
type Engine struct {
	surface netctl.Surface
	cfg     *types.Config
	prober  *probes.Prober
	policy  *policy.Policy
	dryRun  bool
	log     *logrus.Entry
}

// New creates an engine for one session. With dryRun set, mutating surface
// calls are logged and skipped while every probe still runs for real.
func New(surface netctl.Surface, cfg *types.Config, dryRun bool) *Engine {
	if dryRun {
		surface = netctl.NewDryRun(surface)
	}
	return &Engine{
		surface: surface,
		cfg:     cfg,
		prober:  probes.New(surface, cfg),
		policy:  policy.New(),
		dryRun:  dryRun,
		log:     logger.WithField("component", "engine"),
	}
}

// Run executes the convergence loop and returns the session report.
//
// The report is always non-nil, even on error: a session that aborts on a
// missing link association still records its single round. The only error
// Run returns is *types.NoLinkError; every other failure is folded into the
// report as probe statuses or action records.
func (e *Engine) Run(ctx context.Context) (*types.SessionReport, error) {
	report := &types.SessionReport{
		StartedAt: time.Now(),
		Platform:  e.surface.Platform(),
		DryRun:    e.dryRun,
	}

	maxRounds := e.cfg.Thresholds.MaxRounds
	snapshot := e.prober.RunAll(ctx)

	for round := 1; ; round++ {
		classification := classify.Classify(snapshot)
		current := types.ConvergenceRound{
			Number:         round,
			SnapshotBefore: snapshot,
			Classification: classification,
		}

		e.log.WithFields(logrus.Fields{
			"round":          round,
			"classification": classification,
		}).Info("Round classified")

		if round == 1 {
			if link, ok := snapshot.Result(types.ProbeLinkAssociation); ok && link.Status == types.ProbeFail {
				// No association means nothing downstream is
				// measurable and no action here can restore a
				// physical link. Abort before any remediation.
				report.Rounds = append(report.Rounds, current)
				report.FinalClassification = classification
				report.Outcome = types.OutcomeUnresolved
				report.FinishedAt = time.Now()
				return report, &types.NoLinkError{Detail: link.Detail}
			}
		}

		if classification.Healthy() {
			report.Rounds = append(report.Rounds, current)
			report.FinalClassification = classification
			report.Outcome = types.OutcomeResolved
			break
		}

		if round == maxRounds {
			report.Rounds = append(report.Rounds, current)
			report.FinalClassification = classification
			report.Outcome = finalOutcome(report.Rounds)
			break
		}

		current.ActionsApplied = e.remediate(ctx, classification)
		current.SnapshotAfter = e.prober.RunAll(ctx)
		report.Rounds = append(report.Rounds, current)

		// The re-probe snapshot is what the next round classifies.
		snapshot = current.SnapshotAfter
	}

	report.FinishedAt = time.Now()
	e.log.WithFields(logrus.Fields{
		"rounds":  len(report.Rounds),
		"outcome": report.Outcome,
	}).Info("Session finished")
	return report, nil
}

// remediate applies the policy's plan for the classification, in order. An
// action error is recorded with its kind and never stops the loop; the next
// probing round measures the actual effect regardless.
func (e *Engine) remediate(ctx context.Context, c types.Classification) []types.ActionRecord {
	plan := e.policy.Plan(c)
	records := make([]types.ActionRecord, 0, len(plan))

	for _, action := range plan {
		e.policy.MarkAttempted(action.ID)

		start := time.Now()
		err := e.apply(ctx, action.ID)
		record := types.ActionRecord{
			ActionID: action.ID,
			Duration: time.Since(start),
		}
		if err != nil {
			record.Error = err.Error()
			record.ErrorKind = string(types.KindOf(err))
			e.log.WithFields(logrus.Fields{
				"action": action.ID,
				"kind":   record.ErrorKind,
			}).WithError(err).Warn("Remediation action failed")
		} else {
			e.log.WithField("action", action.ID).Info("Remediation action applied")
		}
		records = append(records, record)
	}
	return records
}

// apply dispatches one action against the control surface under the
// configured action timeout.
func (e *Engine) apply(ctx context.Context, id types.ActionID) error {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Targets.ActionTimeout)
	defer cancel()

	switch id {
	case types.ActionFlushDNSCache:
		return e.surface.FlushDNSCache(ctx)
	case types.ActionRestartResolverService:
		return e.surface.RestartResolverService(ctx)
	case types.ActionSetDNSServers:
		return e.surface.SetDNSServers(ctx, e.cfg.Targets.DNSServers)
	case types.ActionClearARPEntries:
		return e.surface.ClearARPEntries(ctx)
	case types.ActionToggleInterfacePower:
		return e.powerCycle(ctx)
	case types.ActionResetNetworkLocation:
		return e.surface.ResetNetworkLocation(ctx)
	}
	return types.NewSurfaceError(types.KindActionUnsupported, string(id), nil)
}

// powerCycle turns the interface off, waits for the radio to settle, and
// turns it back on. A failure on the off leg skips the wait but still tries
// to restore power.
func (e *Engine) powerCycle(ctx context.Context) error {
	offErr := e.surface.ToggleInterfacePower(ctx, false)
	if offErr == nil {
		select {
		case <-time.After(powerCycleDelay):
		case <-ctx.Done():
		}
	}
	if onErr := e.surface.ToggleInterfacePower(ctx, true); onErr != nil {
		return onErr
	}
	return offErr
}

// finalOutcome distinguishes partial progress from a stall once the round
// budget is exhausted. The classification shrank when the final round tags
// are a strict reduction of the previous round's; identical or grown tag
// sets mean no further progress is possible.
func finalOutcome(rounds []types.ConvergenceRound) types.Outcome {
	last := rounds[len(rounds)-1]
	if len(rounds) < 2 {
		return types.OutcomeUnresolved
	}
	prev := rounds[len(rounds)-2]
	if len(last.Classification) < len(prev.Classification) {
		return types.OutcomePartiallyResolved
	}
	return types.OutcomeUnresolved
}
