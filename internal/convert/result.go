package convert

import (
	"fmt"

	"github.com/Faultbox/gravity-convert/internal/database"
	"github.com/Faultbox/gravity-convert/internal/grammar"
	"github.com/Faultbox/gravity-convert/pkg/formats"
)

// Status is the outcome of one model conversion.
type Status int

const (
	StatusConverted Status = iota
	StatusSkipped
	StatusFailed
)

// String returns the status name. It is also the ledger status string.
func (s Status) String() string {
	switch s {
	case StatusConverted:
		return "converted"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Skip reasons set by the converter. Exclusions are reported by the
// database scan.
const (
	ReasonImportFailed = "import of the model file failed"
	ReasonUnchanged    = "unchanged since last run"
)

// FatalError aborts the conversion of one model.
type FatalError struct {
	Model string
	Err   error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("converting %s: %v", e.Model, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Result is the outcome of one model.
type Result struct {
	Model  string
	Kind   grammar.VariantKind
	Status Status
	Reason string // Skip reason
	Err    error  // Import error for skips, *FatalError for failures

	Warnings []string
	Manifest *formats.Manifest

	Digest string // Input digest, set when a ledger is attached
	Output string // Model output directory
}

// Report collects every outcome of a run.
type Report struct {
	Results []Result

	// Scan-time skips and warnings.
	Skipped  []database.Skip
	Warnings []database.Warning
}

// NewReport starts a report seeded with the scan results of db.
func NewReport(db *database.Database) *Report {
	r := &Report{}
	if db != nil {
		r.Skipped = append(r.Skipped, db.Skipped...)
		r.Warnings = append(r.Warnings, db.Warnings...)
	}
	return r
}

// Count returns the number of results with status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}

// Failed returns the failed results in order.
func (r *Report) Failed() []Result {
	return r.filter(StatusFailed)
}

// AllSkipped returns scan skips followed by conversion skips.
func (r *Report) AllSkipped() []database.Skip {
	out := append([]database.Skip(nil), r.Skipped...)
	for _, res := range r.filter(StatusSkipped) {
		out = append(out, database.Skip{Name: res.Model, Reason: res.Reason})
	}
	return out
}

// WarningCount returns scan warnings plus per-model warnings.
func (r *Report) WarningCount() int {
	n := len(r.Warnings)
	for _, res := range r.Results {
		n += len(res.Warnings)
	}
	return n
}

func (r *Report) filter(s Status) []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Status == s {
			out = append(out, res)
		}
	}
	return out
}
