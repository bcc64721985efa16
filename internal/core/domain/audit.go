package domain

import "time"

// ExecutionStatus is the apply-stage outcome recorded in the audit trail.
type ExecutionStatus string

const (
	// ExecSuccess means the file was moved.
	ExecSuccess ExecutionStatus = "success"

	// ExecFailed means the move was attempted and failed.
	ExecFailed ExecutionStatus = "failed"

	// ExecDryRun means apply was simulated without touching the filesystem.
	ExecDryRun ExecutionStatus = "dry_run"

	// ExecSkipped means no move was attempted (rejected, pending, skipped).
	ExecSkipped ExecutionStatus = "skipped"
)

// MoveStatus is the outcome of one safe-move invocation.
type MoveStatus string

const (
	// MoveSuccess means the rename completed.
	MoveSuccess MoveStatus = "success"

	// MoveFailed means the move did not happen; Err explains why.
	MoveFailed MoveStatus = "failed"
)

// MoveOutcome reports one safe-move invocation. It lives only within a
// single apply call; its fields are copied into the audit record.
type MoveOutcome struct {
	// Status is success or failed.
	Status MoveStatus

	// Src is the source path as requested.
	Src string

	// OriginalDst is the destination as originally requested.
	OriginalDst string

	// Dst is the destination actually used, which may differ from
	// OriginalDst when a collision was resolved.
	Dst string

	// ConflictResolved is true when a numeric suffix was appended.
	ConflictResolved bool

	// Err describes the failure when Status is failed.
	Err string
}

// AuditRecord is the append-only trace of one processed file.
// Written once after the pipeline finishes; never mutated.
type AuditRecord struct {
	// Timestamp is when the record was created.
	Timestamp time.Time

	// SessionID groups records from one run or watch session.
	SessionID string

	// SourcePath is the original file location.
	SourcePath string

	// SizeBytes is the file size at processing time.
	SizeBytes int64

	// Preview is a bounded excerpt of the extracted text.
	Preview string

	// Plan is a snapshot of the rename plan after the gate ran.
	Plan RenamePlan

	// DryRun records whether apply was simulated.
	DryRun bool

	// Decision duplicates Plan.Decision for flat querying.
	Decision Decision

	// ExecutionStatus is the apply-stage outcome.
	ExecutionStatus ExecutionStatus

	// MovedTo is the final destination path on success, empty otherwise.
	MovedTo string

	// Move holds the full move outcome, when a move was attempted.
	Move *MoveOutcome

	// ExtractionMethod records which cascade path produced the preview.
	ExtractionMethod ExtractionMethod

	// QualityScore is the extraction quality heuristic in [0,100].
	QualityScore int

	// Elapsed is the wall time the pipeline spent on this file. Zero
	// for records that did not go through the full processing path.
	Elapsed time.Duration

	// RoutingSource records which routing tier chose the destination.
	RoutingSource RoutingSource

	// PendingPath is the pending artifact location for pending decisions.
	PendingPath string
}
