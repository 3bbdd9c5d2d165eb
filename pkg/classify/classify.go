// Package classify turns a probe snapshot into a health classification.
//
// The classifier is a fixed, ordered rule table. Rules are independent and
// additive: every rule is evaluated against the snapshot, there is no early
// exit, and the classification is the union of all matched tags. The same
// snapshot always yields the same classification.
package classify

import (
	"github.com/supporttools/wifi-doctor/pkg/types"
)

// Rule is a single row of the classification table.
type Rule struct {
	// Name identifies the rule (R1..R7).
	Name string

	// Tag is emitted when the condition holds.
	Tag types.IssueTag

	// Condition is a pure predicate over the snapshot.
	Condition func(types.Snapshot) bool
}

// Rules is the classification table, evaluated in order. Multiple rules may
// emit the same tag (R1 and R2 both emit dns_pollution); Classify dedups.
var Rules = []Rule{
	{
		// The network is reachable but names don't resolve: the resolver
		// path itself is polluted.
		Name: "R1",
		Tag:  types.IssueDNSPollution,
		Condition: func(s types.Snapshot) bool {
			return s.StatusOf(types.ProbePingReachability) == types.ProbePass &&
				s.StatusOf(types.ProbeDNSResolution) == types.ProbeFail
		},
	},
	{
		Name: "R2",
		Tag:  types.IssueDNSPollution,
		Condition: func(s types.Snapshot) bool {
			return s.StatusOf(types.ProbeStaleResolverEntries) == types.ProbeFail
		},
	},
	{
		Name: "R3",
		Tag:  types.IssueResolverOverload,
		Condition: func(s types.Snapshot) bool {
			return s.StatusOf(types.ProbeResolverLoad) == types.ProbeDegraded
		},
	},
	{
		Name: "R4",
		Tag:  types.IssueWeakSignal,
		Condition: func(s types.Snapshot) bool {
			return s.StatusOf(types.ProbeSignalStrength) == types.ProbeDegraded
		},
	},
	{
		Name: "R5",
		Tag:  types.IssueARPConflict,
		Condition: func(s types.Snapshot) bool {
			return s.StatusOf(types.ProbeARPAnomalyCount) == types.ProbeDegraded
		},
	},
	{
		Name: "R6",
		Tag:  types.IssuePreferenceCorruption,
		Condition: func(s types.Snapshot) bool {
			return s.StatusOf(types.ProbePreferenceIntegrity) == types.ProbeFail
		},
	},
	{
		Name: "R7",
		Tag:  types.IssueSevereOutage,
		Condition: func(s types.Snapshot) bool {
			return s.StatusOf(types.ProbeDNSResolution) == types.ProbeFail &&
				s.StatusOf(types.ProbeHTTPReachability) == types.ProbeFail
		},
	},
}

// Classify evaluates the full rule table against the snapshot and returns
// the deduplicated union of matched tags, in rule order. An empty
// classification means healthy.
func Classify(snapshot types.Snapshot) types.Classification {
	var classification types.Classification
	for _, rule := range Rules {
		if !rule.Condition(snapshot) {
			continue
		}
		if !classification.Has(rule.Tag) {
			classification = append(classification, rule.Tag)
		}
	}
	return classification
}
