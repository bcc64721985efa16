// Package domain contains the core business entities for the archivist
// pipeline: file records, extraction results, rename plans, decisions,
// and audit records. It has no dependencies on adapters or services.
package domain
