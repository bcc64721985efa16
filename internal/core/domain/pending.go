package domain

import "time"

// PendingStatus is the literal status carried by a pending artifact.
const PendingStatus = "pending"

// QualityIssue flags a pending plan that was forced into review because
// the extraction quality fell below the threshold.
type QualityIssue struct {
	// Score is the quality heuristic that triggered review.
	Score int `json:"score"`

	// Method is the extraction method that produced the low-quality text.
	Method ExtractionMethod `json:"method"`

	// Reason is a short human-readable explanation.
	Reason string `json:"reason"`
}

// PendingPlan is the durable artifact for a plan awaiting external
// resolution. It persists until an actor approves or rejects it; there
// is no automatic expiry.
type PendingPlan struct {
	// ID is the artifact identifier, unique within the pending store.
	ID string `json:"id"`

	// OriginalFile is the absolute path of the unprocessed file.
	OriginalFile string `json:"original_file"`

	// OriginalName is the filename at discovery time.
	OriginalName string `json:"original_name"`

	// NewName is the proposed filename including extension.
	NewName string `json:"new_name"`

	// DestDir is the proposed destination, relative to the archive root.
	DestDir string `json:"dest_dir"`

	// Category is the inferred document category.
	Category Category `json:"category"`

	// Confidence is the classification confidence in [0,1].
	Confidence float64 `json:"confidence"`

	// Extracted holds the classifier's field map.
	Extracted map[string]string `json:"extracted"`

	// Rationale is the classifier's reasoning.
	Rationale string `json:"rationale"`

	// Preview is a bounded excerpt of the extracted text.
	Preview string `json:"preview"`

	// CreatedAt is the artifact creation time.
	CreatedAt time.Time `json:"created_at"`

	// Status is always the literal "pending" while unresolved.
	Status string `json:"status"`

	// QualityIssue is set when low extraction quality forced review.
	QualityIssue *QualityIssue `json:"quality_issue,omitempty"`

	// RoutingSource records which routing tier chose DestDir.
	RoutingSource RoutingSource `json:"routing_source,omitempty"`
}

// Disposition is the action an external actor takes on a pending plan.
type Disposition string

const (
	// DispositionApprove applies the (possibly amended) plan.
	DispositionApprove Disposition = "approve"

	// DispositionReject discards the plan; the file stays in place.
	DispositionReject Disposition = "reject"

	// DispositionQuarantine discards the plan and parks the artifact
	// in the quarantine directory for later inspection.
	DispositionQuarantine Disposition = "quarantine"
)

// Resolution is the externally-supplied answer to a pending plan.
type Resolution struct {
	// Disposition is approve, reject or quarantine.
	Disposition Disposition

	// FinalName is the filename to use; empty means keep the proposal.
	FinalName string

	// FinalDir is the destination to use; empty means keep the proposal.
	FinalDir string
}
