// Package policy maps health classifications to ordered remediation plans.
//
// Actions are data, not code: the policy only decides which action IDs run
// and in what order; execution stays behind the Network Control Surface.
// Idempotent actions may repeat across convergence rounds; destructive or
// non-idempotent actions run at most once per session, which prevents a
// flapping condition from triggering repeated disruptive resets.
package policy

import (
	"github.com/supporttools/wifi-doctor/pkg/types"
)

// tagPriority orders tag action lists within a plan. severe_outage is not
// listed: it selects no actions of its own and instead escalates the plan
// with reset_network_location.
var tagPriority = []types.IssueTag{
	types.IssueDNSPollution,
	types.IssueResolverOverload,
	types.IssueARPConflict,
	types.IssuePreferenceCorruption,
	types.IssueWeakSignal,
}

// tagActions maps each tag to its ordered action list. weak_signal has no
// remediation in this engine; it is advisory only.
var tagActions = map[types.IssueTag][]types.ActionID{
	types.IssueDNSPollution: {
		types.ActionFlushDNSCache,
		types.ActionRestartResolverService,
		types.ActionSetDNSServers,
	},
	types.IssueResolverOverload: {
		types.ActionRestartResolverService,
	},
	types.IssueARPConflict: {
		types.ActionClearARPEntries,
	},
	types.IssuePreferenceCorruption: {
		types.ActionResetNetworkLocation,
		types.ActionToggleInterfacePower,
	},
	types.IssueWeakSignal: nil,
}

// Catalog is the full action catalog, keyed by ID.
var Catalog = buildCatalog()

func buildCatalog() map[types.ActionID]types.RemediationAction {
	destructive := map[types.ActionID]bool{
		types.ActionResetNetworkLocation: true,
		types.ActionToggleInterfacePower: true,
	}

	// An action's precondition is that at least one tag it serves is
	// present; reset_network_location is additionally served by
	// severe_outage.
	owners := map[types.ActionID][]types.IssueTag{}
	for tag, ids := range tagActions {
		for _, id := range ids {
			owners[id] = append(owners[id], tag)
		}
	}
	owners[types.ActionResetNetworkLocation] = append(
		owners[types.ActionResetNetworkLocation], types.IssueSevereOutage)

	catalog := make(map[types.ActionID]types.RemediationAction, len(owners))
	for id, tags := range owners {
		tags := tags
		catalog[id] = types.RemediationAction{
			ID:          id,
			Idempotent:  !destructive[id],
			Destructive: destructive[id],
			Precondition: func(c types.Classification) bool {
				for _, tag := range tags {
					if c.Has(tag) {
						return true
					}
				}
				return false
			},
		}
	}
	return catalog
}

// Policy selects remediation plans for one session. It tracks which
// destructive actions have already been attempted so they never run twice,
// no matter how many rounds request them.
type Policy struct {
	attempted map[types.ActionID]bool
}

// New creates a session-scoped policy.
func New() *Policy {
	return &Policy{attempted: make(map[types.ActionID]bool)}
}

// Plan returns the ordered action list for the given classification.
//
// Tag action lists are concatenated in tag priority order and deduplicated
// keeping the first occurrence. When severe_outage is present,
// reset_network_location is appended (once per session, never per round).
// Destructive actions already attempted this session are filtered out.
func (p *Policy) Plan(c types.Classification) []types.RemediationAction {
	var ids []types.ActionID
	for _, tag := range tagPriority {
		if c.Has(tag) {
			ids = append(ids, tagActions[tag]...)
		}
	}
	if c.Has(types.IssueSevereOutage) {
		ids = append(ids, types.ActionResetNetworkLocation)
	}

	seen := make(map[types.ActionID]bool, len(ids))
	var plan []types.RemediationAction
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		action := Catalog[id]
		if !action.Allowed(c) {
			continue
		}
		if !action.Idempotent && p.attempted[id] {
			continue
		}
		plan = append(plan, action)
	}
	return plan
}

// MarkAttempted records that an action ran (or was tried). Non-idempotent
// actions are excluded from every later plan in this session; a failed
// attempt still counts, since retrying a disruptive reset against a broken
// environment only compounds the disruption.
func (p *Policy) MarkAttempted(id types.ActionID) {
	action, ok := Catalog[id]
	if ok && action.Idempotent {
		return
	}
	p.attempted[id] = true
}
