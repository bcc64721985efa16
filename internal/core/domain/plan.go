package domain

// Decision is the terminal outcome of the approval gate for one plan.
type Decision string

const (
	// DecisionApproved means the plan may be applied immediately.
	DecisionApproved Decision = "approved"

	// DecisionRejected means a human declined the plan.
	DecisionRejected Decision = "rejected"

	// DecisionAutoRejectInvalid means validation failed; no approval
	// policy was consulted.
	DecisionAutoRejectInvalid Decision = "auto_reject_invalid"

	// DecisionPending means a durable pending artifact was written for
	// later human resolution.
	DecisionPending Decision = "pending"

	// DecisionSkipped means the file was passed over without a plan.
	DecisionSkipped Decision = "skipped"
)

// RoutingSource records which routing tier produced the destination.
// Observability only; it feeds the audit record, not further decisions.
type RoutingSource string

const (
	// RoutePreference means a learned (vendor, category) preference fired.
	RoutePreference RoutingSource = "preference"

	// RouteDatePartition means the category's date-partition template fired.
	RouteDatePartition RoutingSource = "date_partition"

	// RouteSemantic means the category/vendor semantic fallback fired.
	RouteSemantic RoutingSource = "semantic"
)

// RenamePlan is the proposed rename-and-move for one file. The validator
// mutates it in place (it may rewrite NewName to a sanitised form), the
// approval gate annotates Decision, and the executor reads it to apply.
type RenamePlan struct {
	// Category is the document category driving the routing.
	Category Category

	// NewName is the proposed filename including extension.
	NewName string

	// DestDir is the destination directory relative to the archive root,
	// forward-slash normalised, no leading separator.
	DestDir string

	// Confidence is the classification confidence in [0,1].
	Confidence float64

	// Extracted holds the classifier's field map (date, amount, vendor, title).
	Extracted map[string]string

	// Rationale is the classifier's reasoning, kept for the audit trail.
	Rationale string

	// IsValid is set by the validator. An invalid plan is always
	// auto-rejected without consulting any approval policy.
	IsValid bool

	// ValidationMsg holds the semicolon-joined validation failures.
	ValidationMsg string

	// Decision is set by the approval gate.
	Decision Decision

	// RoutingSource records which routing tier chose DestDir.
	RoutingSource RoutingSource
}
