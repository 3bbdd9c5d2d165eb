// Package report renders a finished diagnostic session for humans and
// machines. Reporters are external to the engine: they receive the completed
// SessionReport and never influence the session itself.
package report

import (
	"github.com/supporttools/wifi-doctor/pkg/types"
)

// Reporter renders or persists one SessionReport.
type Reporter interface {
	// Report handles the finished session. A reporter error never alters
	// the session outcome.
	Report(report *types.SessionReport) error
}

// Multi fans one report out to several reporters. All reporters run even if
// an earlier one fails; the first error is returned.
type Multi []Reporter

// Report implements Reporter.
func (m Multi) Report(report *types.SessionReport) error {
	var first error
	for _, r := range m {
		if err := r.Report(report); err != nil && first == nil {
			first = err
		}
	}
	return first
}
