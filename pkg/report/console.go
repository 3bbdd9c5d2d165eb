package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/supporttools/wifi-doctor/pkg/probes"
	"github.com/supporttools/wifi-doctor/pkg/types"
)

// timePrecision is the rounding applied to displayed durations.
const timePrecision = time.Millisecond

// Console renders a human-readable session summary with colored statuses.
type Console struct {
	// Out is the destination writer. Defaults to os.Stdout.
	Out io.Writer

	// Verbose includes every round's probe table instead of only the last.
	Verbose bool
}

// NewConsole returns a console reporter writing to stdout.
func NewConsole(verbose bool) *Console {
	return &Console{Out: os.Stdout, Verbose: verbose}
}

var (
	passColor    = color.New(color.FgGreen)
	degradeColor = color.New(color.FgYellow)
	failColor    = color.New(color.FgRed, color.Bold)
	headerColor  = color.New(color.FgCyan, color.Bold)
	dimColor     = color.New(color.Faint)
)

// Report implements Reporter.
func (c *Console) Report(report *types.SessionReport) error {
	out := c.Out
	if out == nil {
		out = os.Stdout
	}

	headerColor.Fprintf(out, "WiFi Doctor session (%s)\n", report.Platform)
	if report.DryRun {
		degradeColor.Fprintln(out, "dry run: no changes were made")
	}

	for _, round := range report.Rounds {
		last := round.Number == len(report.Rounds)
		if !c.Verbose && !last {
			c.printRoundBrief(out, round)
			continue
		}
		c.printRound(out, round)
	}

	fmt.Fprintf(out, "\nFinal classification: %s\n", formatClassification(report.FinalClassification))
	fmt.Fprint(out, "Outcome: ")
	outcomeColor(report.Outcome).Fprintln(out, string(report.Outcome))
	dimColor.Fprintf(out, "Completed in %s over %d round(s)\n",
		report.FinishedAt.Sub(report.StartedAt).Round(timePrecision),
		len(report.Rounds))
	return nil
}

func (c *Console) printRoundBrief(out io.Writer, round types.ConvergenceRound) {
	fmt.Fprintf(out, "\nRound %d: %s", round.Number, formatClassification(round.Classification))
	if ids := round.ActionIDs(); len(ids) > 0 {
		fmt.Fprintf(out, " -> applied %s", joinActionIDs(ids))
	}
	fmt.Fprintln(out)
}

func (c *Console) printRound(out io.Writer, round types.ConvergenceRound) {
	fmt.Fprintf(out, "\nRound %d\n", round.Number)
	for _, result := range round.SnapshotBefore {
		fmt.Fprintf(out, "  %-24s ", result.ProbeID)
		statusColor(result.Status).Fprint(out, string(result.Status))
		if detail := probeDetail(result); detail != "" {
			dimColor.Fprintf(out, "  %s", detail)
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "  classification: %s\n", formatClassification(round.Classification))
	for _, record := range round.ActionsApplied {
		fmt.Fprintf(out, "  action %-26s ", record.ActionID)
		if record.Error == "" {
			passColor.Fprint(out, "ok")
		} else {
			failColor.Fprintf(out, "%s (%s)", record.ErrorKind, record.Error)
		}
		dimColor.Fprintf(out, "  %s\n", record.Duration.Round(timePrecision))
	}
}

// probeDetail renders the measurement alongside the probe's own detail text.
// Signal strength additionally gets a 0-100 quality figure, which is easier
// to read than raw dBm.
func probeDetail(result types.ProbeResult) string {
	var parts []string
	if result.Value != nil {
		switch result.ProbeID {
		case types.ProbeSignalStrength:
			parts = append(parts, fmt.Sprintf("%.0f dBm (quality %d/100)",
				*result.Value, probes.SignalQuality(*result.Value)))
		case types.ProbeResolverLoad:
			parts = append(parts, fmt.Sprintf("%.1f%% cpu", *result.Value))
		default:
			parts = append(parts, fmt.Sprintf("%.0f", *result.Value))
		}
	}
	if result.Detail != "" {
		parts = append(parts, result.Detail)
	}
	return strings.Join(parts, ", ")
}

func formatClassification(c types.Classification) string {
	if c.Healthy() {
		return passColor.Sprint("healthy")
	}
	tags := make([]string, len(c))
	for i, tag := range c {
		tags[i] = string(tag)
	}
	return failColor.Sprint(strings.Join(tags, ", "))
}

func joinActionIDs(ids []types.ActionID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}

func statusColor(status types.ProbeStatus) *color.Color {
	switch status {
	case types.ProbePass:
		return passColor
	case types.ProbeDegraded:
		return degradeColor
	default:
		return failColor
	}
}

func outcomeColor(outcome types.Outcome) *color.Color {
	switch outcome {
	case types.OutcomeResolved:
		return passColor
	case types.OutcomePartiallyResolved:
		return degradeColor
	default:
		return failColor
	}
}
