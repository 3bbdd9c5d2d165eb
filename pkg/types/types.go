// Package types defines the core types shared by the WiFi Doctor diagnostic
// engine: probe results, health classifications, remediation actions, and the
// session report handed to reporters.
package types

import (
	"time"
)

// ProbeStatus is the outcome of a single probe.
type ProbeStatus string

const (
	// ProbePass indicates the probed subsystem is healthy.
	ProbePass ProbeStatus = "Pass"

	// ProbeFail indicates the probed subsystem is broken or unreadable.
	ProbeFail ProbeStatus = "Fail"

	// ProbeDegraded indicates the probed subsystem works but is impaired
	// (e.g., weak signal, overloaded resolver).
	ProbeDegraded ProbeStatus = "Degraded"
)

// ProbeID identifies one of the known probes. The set of probe IDs is fixed;
// a snapshot must contain exactly one result per known ID.
type ProbeID string

const (
	ProbeLinkAssociation      ProbeID = "link_association"
	ProbeSignalStrength       ProbeID = "signal_strength"
	ProbePingReachability     ProbeID = "ping_reachability"
	ProbeDNSResolution        ProbeID = "dns_resolution"
	ProbeHTTPReachability     ProbeID = "http_reachability"
	ProbeHTTPSReachability    ProbeID = "https_reachability"
	ProbeResolverLoad         ProbeID = "resolver_load"
	ProbeStaleResolverEntries ProbeID = "stale_resolver_entries"
	ProbeARPAnomalyCount      ProbeID = "arp_anomaly_count"
	ProbePreferenceIntegrity  ProbeID = "preference_integrity"
)

// ProbeOrder is the fixed execution order of probes within a round. Snapshot
// order matches this order.
var ProbeOrder = []ProbeID{
	ProbeLinkAssociation,
	ProbeSignalStrength,
	ProbePingReachability,
	ProbeDNSResolution,
	ProbeHTTPReachability,
	ProbeHTTPSReachability,
	ProbeResolverLoad,
	ProbeStaleResolverEntries,
	ProbeARPAnomalyCount,
	ProbePreferenceIntegrity,
}

// ProbeResult is the immutable outcome of one probe in one round.
type ProbeResult struct {
	// ProbeID identifies the probe that produced this result.
	ProbeID ProbeID `json:"probe_id"`

	// Status is the Pass/Fail/Degraded outcome.
	Status ProbeStatus `json:"status"`

	// Value is the measured numeric value, when the probe has one
	// (RSSI in dBm, resolver CPU percent, stale entry count, ...).
	Value *float64 `json:"value,omitempty"`

	// Detail is a short human-readable explanation of the result.
	// A probe that hit its timeout reports Detail == "timeout".
	Detail string `json:"detail,omitempty"`
}

// Measured returns a ProbeResult carrying a numeric measurement.
func Measured(id ProbeID, status ProbeStatus, value float64, detail string) ProbeResult {
	return ProbeResult{ProbeID: id, Status: status, Value: &value, Detail: detail}
}

// Snapshot is the ordered set of probe results for a single round.
// Insertion order is probe execution order.
type Snapshot []ProbeResult

// Result returns the result for the given probe ID, or a zero result and
// false if the snapshot does not contain it.
func (s Snapshot) Result(id ProbeID) (ProbeResult, bool) {
	for _, r := range s {
		if r.ProbeID == id {
			return r, true
		}
	}
	return ProbeResult{}, false
}

// StatusOf returns the status for the given probe ID, or ProbeFail if the
// snapshot does not contain it. Missing results are treated as failures so
// an incomplete snapshot can never mask a problem.
func (s Snapshot) StatusOf(id ProbeID) ProbeStatus {
	if r, ok := s.Result(id); ok {
		return r.Status
	}
	return ProbeFail
}

// AllPass reports whether every result in the snapshot passed.
func (s Snapshot) AllPass() bool {
	for _, r := range s {
		if r.Status != ProbePass {
			return false
		}
	}
	return true
}

// IssueTag names a symptom derived from a snapshot.
type IssueTag string

const (
	// IssueDNSPollution indicates name resolution is broken while the
	// network itself is reachable, or stale VPN resolver entries linger.
	IssueDNSPollution IssueTag = "dns_pollution"

	// IssueResolverOverload indicates the OS resolver process is burning
	// excessive CPU.
	IssueResolverOverload IssueTag = "resolver_overload"

	// IssueWeakSignal indicates RSSI below the configured floor.
	IssueWeakSignal IssueTag = "weak_signal"

	// IssueARPConflict indicates incomplete ARP entries on the segment.
	IssueARPConflict IssueTag = "arp_conflict"

	// IssuePreferenceCorruption indicates the persisted network preference
	// store failed its structural lint.
	IssuePreferenceCorruption IssueTag = "preference_corruption"

	// IssueSevereOutage indicates both DNS and HTTP are down. Informational:
	// it escalates the aggressiveness of actions selected by other tags.
	IssueSevereOutage IssueTag = "severe_outage"
)

// Classification is the ordered set of issue tags derived from one snapshot.
// An empty classification means healthy.
type Classification []IssueTag

// Has reports whether the classification contains the given tag.
func (c Classification) Has(tag IssueTag) bool {
	for _, t := range c {
		if t == tag {
			return true
		}
	}
	return false
}

// Healthy reports whether the classification is empty.
func (c Classification) Healthy() bool { return len(c) == 0 }

// Equal reports whether two classifications contain the same tags in the
// same order. Classifications are produced by a deterministic rule table, so
// order-sensitive comparison is sufficient.
func (c Classification) Equal(other Classification) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		if c[i] != other[i] {
			return false
		}
	}
	return true
}

// ActionID identifies a remediation action.
type ActionID string

const (
	ActionFlushDNSCache          ActionID = "flush_dns_cache"
	ActionRestartResolverService ActionID = "restart_resolver_service"
	ActionSetDNSServers          ActionID = "set_dns_servers"
	ActionClearARPEntries        ActionID = "clear_arp_entries"
	ActionToggleInterfacePower   ActionID = "toggle_interface_power"
	ActionResetNetworkLocation   ActionID = "reset_network_location"
)

// RemediationAction describes a corrective action as data, so the policy can
// be tested without executing anything.
type RemediationAction struct {
	// ID uniquely identifies the action.
	ID ActionID

	// Precondition gates the action on the current classification. A nil
	// precondition always passes.
	Precondition func(Classification) bool

	// Idempotent actions may be applied in every round that requests them.
	Idempotent bool

	// Destructive actions disrupt connectivity while they run and are
	// applied at most once per session.
	Destructive bool
}

// Allowed reports whether the action's precondition holds for the given
// classification.
func (a RemediationAction) Allowed(c Classification) bool {
	return a.Precondition == nil || a.Precondition(c)
}

// ActionRecord is the audit entry for one applied (or attempted) action.
type ActionRecord struct {
	// ActionID identifies the action that ran.
	ActionID ActionID `json:"action_id"`

	// Error holds the failure message when the action did not succeed.
	// Action failures never abort the convergence loop.
	Error string `json:"error,omitempty"`

	// ErrorKind classifies the failure (permission-denied, unsupported,
	// failed). Empty on success.
	ErrorKind string `json:"error_kind,omitempty"`

	// Duration is how long the action took.
	Duration time.Duration `json:"duration_ns"`
}

// ConvergenceRound captures one probe→classify→remediate→reprobe cycle.
// Rounds are append-only history; past rounds are never mutated.
type ConvergenceRound struct {
	// Number is the 1-based round number.
	Number int `json:"round"`

	// SnapshotBefore is the probe snapshot the classification was derived
	// from.
	SnapshotBefore Snapshot `json:"snapshot_before"`

	// Classification is the issue set derived from SnapshotBefore.
	Classification Classification `json:"classification"`

	// ActionsApplied lists the remediation actions attempted this round, in
	// execution order.
	ActionsApplied []ActionRecord `json:"actions_applied"`

	// SnapshotAfter is the re-probe snapshot taken after remediation. Nil
	// for a terminal round that needed no remediation.
	SnapshotAfter Snapshot `json:"snapshot_after,omitempty"`
}

// ActionIDs returns the IDs of the actions applied in this round, in order.
func (r ConvergenceRound) ActionIDs() []ActionID {
	ids := make([]ActionID, 0, len(r.ActionsApplied))
	for _, a := range r.ActionsApplied {
		ids = append(ids, a.ActionID)
	}
	return ids
}

// Outcome is the terminal state of a diagnostic session.
type Outcome string

const (
	// OutcomeResolved means the final classification is empty.
	OutcomeResolved Outcome = "Resolved"

	// OutcomePartiallyResolved means the classification shrank but is still
	// non-empty after the round budget was exhausted.
	OutcomePartiallyResolved Outcome = "PartiallyResolved"

	// OutcomeUnresolved means the classification did not improve and no
	// further progress is possible.
	OutcomeUnresolved Outcome = "Unresolved"
)

// SessionReport is the full record of one diagnostic session, handed to the
// configured reporters.
type SessionReport struct {
	// StartedAt is when the session began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the session ended.
	FinishedAt time.Time `json:"finished_at"`

	// Platform records which control surface variant ran (darwin, linux).
	Platform string `json:"platform"`

	// DryRun records whether mutating actions were skipped.
	DryRun bool `json:"dry_run"`

	// Rounds is the append-only convergence history.
	Rounds []ConvergenceRound `json:"rounds"`

	// FinalClassification is the classification after the last round.
	FinalClassification Classification `json:"final_classification"`

	// Outcome summarizes the session per the convergence invariant.
	Outcome Outcome `json:"outcome"`
}
