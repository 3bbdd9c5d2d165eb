package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supporttools/wifi-doctor/pkg/types"
)

func planIDs(plan []types.RemediationAction) []types.ActionID {
	ids := make([]types.ActionID, 0, len(plan))
	for _, a := range plan {
		ids = append(ids, a.ID)
	}
	return ids
}

func TestHealthyClassificationYieldsEmptyPlan(t *testing.T) {
	p := New()
	assert.Empty(t, p.Plan(types.Classification{}))
}

func TestWeakSignalHasNoRemediation(t *testing.T) {
	p := New()
	assert.Empty(t, p.Plan(types.Classification{types.IssueWeakSignal}))
}

func TestSingleTagPlans(t *testing.T) {
	tests := []struct {
		name string
		tag  types.IssueTag
		want []types.ActionID
	}{
		{
			name: "dns pollution",
			tag:  types.IssueDNSPollution,
			want: []types.ActionID{
				types.ActionFlushDNSCache,
				types.ActionRestartResolverService,
				types.ActionSetDNSServers,
			},
		},
		{
			name: "resolver overload",
			tag:  types.IssueResolverOverload,
			want: []types.ActionID{types.ActionRestartResolverService},
		},
		{
			name: "arp conflict",
			tag:  types.IssueARPConflict,
			want: []types.ActionID{types.ActionClearARPEntries},
		},
		{
			name: "preference corruption",
			tag:  types.IssuePreferenceCorruption,
			want: []types.ActionID{
				types.ActionResetNetworkLocation,
				types.ActionToggleInterfacePower,
			},
		},
		{
			name: "severe outage appends reset",
			tag:  types.IssueSevereOutage,
			want: []types.ActionID{types.ActionResetNetworkLocation},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New()
			got := planIDs(p.Plan(types.Classification{tt.tag}))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTagPriorityOrdersPlan(t *testing.T) {
	p := New()
	// Input order is whatever classification produced; the plan must still
	// follow tag priority, not input order.
	c := types.Classification{
		types.IssuePreferenceCorruption,
		types.IssueARPConflict,
		types.IssueDNSPollution,
	}
	got := planIDs(p.Plan(c))
	assert.Equal(t, []types.ActionID{
		types.ActionFlushDNSCache,
		types.ActionRestartResolverService,
		types.ActionSetDNSServers,
		types.ActionClearARPEntries,
		types.ActionResetNetworkLocation,
		types.ActionToggleInterfacePower,
	}, got)
}

func TestDedupKeepsFirstOccurrence(t *testing.T) {
	p := New()
	c := types.Classification{
		types.IssueDNSPollution,
		types.IssueResolverOverload,
	}
	got := planIDs(p.Plan(c))
	// restart_resolver_service is requested by both tags but appears once,
	// at its dns_pollution position.
	assert.Equal(t, []types.ActionID{
		types.ActionFlushDNSCache,
		types.ActionRestartResolverService,
		types.ActionSetDNSServers,
	}, got)
}

func TestSevereOutageResetDedupsAgainstPreferenceCorruption(t *testing.T) {
	p := New()
	c := types.Classification{
		types.IssuePreferenceCorruption,
		types.IssueSevereOutage,
	}
	got := planIDs(p.Plan(c))
	assert.Equal(t, []types.ActionID{
		types.ActionResetNetworkLocation,
		types.ActionToggleInterfacePower,
	}, got)
}

func TestDestructiveActionsRunOncePerSession(t *testing.T) {
	p := New()
	c := types.Classification{types.IssueSevereOutage}

	first := p.Plan(c)
	require.Len(t, first, 1)
	p.MarkAttempted(first[0].ID)

	// Second round with the same classification must not propose the
	// reset again, even though severe_outage persists.
	assert.Empty(t, p.Plan(c))
}

func TestFailedDestructiveAttemptStillCounts(t *testing.T) {
	p := New()
	c := types.Classification{types.IssuePreferenceCorruption}

	first := planIDs(p.Plan(c))
	require.Equal(t, []types.ActionID{
		types.ActionResetNetworkLocation,
		types.ActionToggleInterfacePower,
	}, first)

	// The engine marks attempts regardless of error outcome.
	p.MarkAttempted(types.ActionResetNetworkLocation)
	p.MarkAttempted(types.ActionToggleInterfacePower)

	assert.Empty(t, p.Plan(c))
}

func TestIdempotentActionsRepeatAcrossRounds(t *testing.T) {
	p := New()
	c := types.Classification{types.IssueDNSPollution}

	first := planIDs(p.Plan(c))
	for _, id := range first {
		p.MarkAttempted(id)
	}

	second := planIDs(p.Plan(c))
	assert.Equal(t, first, second)
}

func TestCatalogFlags(t *testing.T) {
	destructive := map[types.ActionID]bool{
		types.ActionResetNetworkLocation: true,
		types.ActionToggleInterfacePower: true,
	}
	for id, action := range Catalog {
		assert.Equal(t, id, action.ID)
		assert.Equal(t, destructive[id], action.Destructive, "destructive flag for %s", id)
		assert.Equal(t, !destructive[id], action.Idempotent, "idempotent flag for %s", id)
	}
}

func TestPreconditionGatesUnrelatedTags(t *testing.T) {
	action := Catalog[types.ActionClearARPEntries]
	assert.True(t, action.Allowed(types.Classification{types.IssueARPConflict}))
	assert.False(t, action.Allowed(types.Classification{types.IssueDNSPollution}))
}
