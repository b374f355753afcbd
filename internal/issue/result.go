package issue

import (
	"fmt"

	"github.com/marineinst/doimint/pkg/doi"
)

// Outcome is the explicit discriminant for a per-publication issuance
// attempt. Callers branch on it rather than on the shape of a return value.
type Outcome int

const (
	// OutcomeIssued means the DOI was registered and both local updates
	// succeeded.
	OutcomeIssued Outcome = iota

	// OutcomeRegistrationFailed means the provider rejected the registration.
	// Nothing was persisted; the candidate DOI was discarded.
	OutcomeRegistrationFailed

	// OutcomeRegisteredUnpersisted means the provider confirmed the
	// registration (201) but a later step failed, so the DOI exists upstream
	// without matching local records. Manual reconciliation is required; the
	// registered DOI is carried in the result.
	OutcomeRegisteredUnpersisted
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeIssued:
		return "issued"
	case OutcomeRegistrationFailed:
		return "registration-failed"
	case OutcomeRegisteredUnpersisted:
		return "registered-but-unpersisted"
	default:
		return fmt.Sprintf("unknown(%d)", int(o))
	}
}

// Result reports one publication's trip through the issuance workflow.
type Result struct {
	PubID   uint
	Outcome Outcome

	// DOI is the candidate identifier, replaced by the provider-confirmed
	// value once registration succeeds.
	DOI      doi.DOI
	ShortDOI string

	// MetadataExported records whether a fresh metadata document was written
	// this run. Registration proceeds either way.
	MetadataExported bool

	// Affected-row counts from the two update statements.
	PublicationRows int64
	DatasetRows     int64

	// Detail carries status, body, or error text for failed outcomes.
	Detail string
}

// Succeeded returns true for a fully persisted issuance.
func (r Result) Succeeded() bool {
	return r.Outcome == OutcomeIssued
}

// Summary renders the human-readable per-publication report line.
func (r Result) Summary() string {
	switch r.Outcome {
	case OutcomeIssued:
		return fmt.Sprintf(
			"publication %d issued DOI %s (alias %q): publication rows affected: %d, dataset rows affected: %d",
			r.PubID, r.DOI, r.ShortDOI, r.PublicationRows, r.DatasetRows)
	case OutcomeRegistrationFailed:
		return fmt.Sprintf(
			"DOI creation failed for publication %d: %s. If the metadata file was created, manually upload it to DataCite from the export directory",
			r.PubID, r.Detail)
	case OutcomeRegisteredUnpersisted:
		return fmt.Sprintf(
			"DOI %s was registered for publication %d but local records were not updated: %s. Reconcile manually",
			r.DOI, r.PubID, r.Detail)
	default:
		return fmt.Sprintf("publication %d: %s", r.PubID, r.Outcome)
	}
}

// Summary aggregates a whole batch run.
type Summary struct {
	Results []Result
	Issued  int
	Failed  int
}
