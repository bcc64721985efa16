package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/custodia-labs/archivist-cli/internal/core/domain"
	"github.com/custodia-labs/archivist-cli/internal/core/ports/driven"
)

// defaultListLimit caps ListRecent when the filter gives no limit.
const defaultListLimit = 20

// topVendorLimit caps the vendor breakdown in Stats.
const topVendorLimit = 5

// auditStore implements driven.AuditStore. The full record is stored as
// a JSON document; flat columns exist only to serve the query surface.
type auditStore struct {
	store *Store
}

var _ driven.AuditStore = (*auditStore)(nil)

// Append persists one record.
func (s *auditStore) Append(ctx context.Context, rec domain.AuditRecord) error {
	recordJSON, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshalling audit record: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO audit_records
			(timestamp, session_id, source_path, category, vendor, decision, execution_status, elapsed_ns, record)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.Timestamp.UTC(), rec.SessionID, rec.SourcePath,
		string(rec.Plan.Category), rec.Plan.Extracted["vendor"],
		string(rec.Decision), string(rec.ExecutionStatus),
		rec.Elapsed.Nanoseconds(), string(recordJSON))
	if err != nil {
		return fmt.Errorf("appending audit record: %w", err)
	}

	return nil
}

// ListRecent returns the newest matching records, newest first.
func (s *auditStore) ListRecent(ctx context.Context, filter driven.AuditFilter) ([]domain.AuditRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `SELECT record FROM audit_records WHERE 1=1`
	var args []any
	if filter.Category != "" {
		query += " AND category = ?"
		args = append(args, filter.Category)
	}
	if filter.Vendor != "" {
		query += " AND vendor LIKE ? COLLATE NOCASE"
		args = append(args, "%"+filter.Vendor+"%")
	}
	if filter.Decision != "" {
		query += " AND decision = ?"
		args = append(args, filter.Decision)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit records: %w", err)
	}
	defer rows.Close()

	var out []domain.AuditRecord
	for rows.Next() {
		var recordJSON string
		if err := rows.Scan(&recordJSON); err != nil {
			return nil, fmt.Errorf("scanning audit record: %w", err)
		}
		var rec domain.AuditRecord
		if err := json.Unmarshal([]byte(recordJSON), &rec); err != nil {
			return nil, fmt.Errorf("unmarshalling audit record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit records: %w", err)
	}

	return out, nil
}

// Stats aggregates activity over the window ending now.
func (s *auditStore) Stats(ctx context.Context, window time.Duration) (driven.AuditStats, error) {
	stats := driven.AuditStats{ByDecision: make(map[string]int)}
	cutoff := time.Now().UTC().Add(-window)

	row := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_records")
	if err := row.Scan(&stats.Total); err != nil {
		return driven.AuditStats{}, fmt.Errorf("counting audit records: %w", err)
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT decision, COUNT(*)
		FROM audit_records
		WHERE timestamp >= ?
		GROUP BY decision
	`, cutoff)
	if err != nil {
		return driven.AuditStats{}, fmt.Errorf("aggregating decisions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			decision string
			count    int
		)
		if err := rows.Scan(&decision, &count); err != nil {
			return driven.AuditStats{}, fmt.Errorf("scanning decision count: %w", err)
		}
		stats.ByDecision[decision] = count
		stats.Recent += count
	}
	if err := rows.Err(); err != nil {
		return driven.AuditStats{}, fmt.Errorf("iterating decision counts: %w", err)
	}

	vendorRows, err := s.store.db.QueryContext(ctx, `
		SELECT vendor, COUNT(*) AS n
		FROM audit_records
		WHERE timestamp >= ? AND vendor != ''
		GROUP BY vendor
		ORDER BY n DESC, vendor ASC
		LIMIT ?
	`, cutoff, topVendorLimit)
	if err != nil {
		return driven.AuditStats{}, fmt.Errorf("aggregating vendors: %w", err)
	}
	defer vendorRows.Close()

	for vendorRows.Next() {
		var vc driven.VendorCount
		if err := vendorRows.Scan(&vc.Vendor, &vc.Count); err != nil {
			return driven.AuditStats{}, fmt.Errorf("scanning vendor count: %w", err)
		}
		stats.TopVendors = append(stats.TopVendors, vc)
	}
	if err := vendorRows.Err(); err != nil {
		return driven.AuditStats{}, fmt.Errorf("iterating vendor counts: %w", err)
	}

	var (
		elapsedCount int
		elapsedSum   int64
	)
	row = s.store.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(elapsed_ns), 0)
		FROM audit_records
		WHERE timestamp >= ? AND elapsed_ns > 0
	`, cutoff)
	if err := row.Scan(&elapsedCount, &elapsedSum); err != nil {
		return driven.AuditStats{}, fmt.Errorf("averaging elapsed time: %w", err)
	}
	if elapsedCount > 0 {
		stats.AvgElapsed = time.Duration(elapsedSum / int64(elapsedCount))
	}

	return stats, nil
}
