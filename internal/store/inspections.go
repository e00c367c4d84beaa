package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an inspection.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusReported   Status = "reported"
)

// IsValid returns true if the status is a recognized value.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusInProgress, StatusCompleted, StatusReported:
		return true
	}
	return false
}

// Inspection is the header record of one field inspection.
type Inspection struct {
	ID         string `json:"id"`
	ClientName string `json:"client_name"`
	WorkSite   string `json:"work_site"`
	Status     Status `json:"status"`
	Progress   int    `json:"progress"`
	CreatedBy  string `json:"created_by,omitempty"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

const inspectionColumns = `id, client_name, work_site, status, progress, created_by, created_at, updated_at`

func scanInspection(row rowScanner) (*Inspection, error) {
	var in Inspection
	var status string
	if err := row.Scan(&in.ID, &in.ClientName, &in.WorkSite, &status, &in.Progress,
		&in.CreatedBy, &in.CreatedAt, &in.UpdatedAt); err != nil {
		return nil, err
	}
	in.Status = Status(status)
	return &in, nil
}

// CreateInspection inserts a draft inspection and returns it.
func (s *Store) CreateInspection(ctx context.Context, clientName, workSite, createdBy string) (*Inspection, error) {
	now := formatTime(s.now())
	in := &Inspection{
		ID:         uuid.NewString(),
		ClientName: clientName,
		WorkSite:   workSite,
		Status:     StatusDraft,
		CreatedBy:  createdBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO inspections(`+inspectionColumns+`) VALUES(?,?,?,?,?,?,?,?)`,
		in.ID, in.ClientName, in.WorkSite, string(in.Status), in.Progress, in.CreatedBy, in.CreatedAt, in.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting inspection: %w", err)
	}
	return in, nil
}

// GetInspection returns one inspection or ErrNotFound.
func (s *Store) GetInspection(ctx context.Context, id string) (*Inspection, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+inspectionColumns+` FROM inspections WHERE id=?`, id)
	in, err := scanInspection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("inspection %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading inspection: %w", err)
	}
	return in, nil
}

// ListInspections returns inspections, newest first.
func (s *Store) ListInspections(ctx context.Context) ([]Inspection, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+inspectionColumns+` FROM inspections ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("listing inspections: %w", err)
	}
	defer rows.Close()

	var out []Inspection
	for rows.Next() {
		in, err := scanInspection(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning inspection: %w", err)
		}
		out = append(out, *in)
	}
	return out, rows.Err()
}

// UpdateInspectionStatus sets the lifecycle status.
func (s *Store) UpdateInspectionStatus(ctx context.Context, id string, status Status) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid inspection status %q", status)
	}
	return s.updateInspection(ctx, `UPDATE inspections SET status=?, updated_at=? WHERE id=?`,
		id, string(status), formatTime(s.now()), id)
}

// UpdateProgress records the filled percentage of required modules and derives the status:
// draft at 0, in_progress below 100, completed at 100. Reported inspections keep their status.
func (s *Store) UpdateProgress(ctx context.Context, id string, progress int) error {
	progress = max(0, min(100, progress))
	status := StatusInProgress
	switch progress {
	case 0:
		status = StatusDraft
	case 100:
		status = StatusCompleted
	}
	return s.updateInspection(ctx,
		`UPDATE inspections SET progress=?,
			status=CASE WHEN status=? THEN status ELSE ? END,
			updated_at=? WHERE id=?`,
		id, progress, string(StatusReported), string(status), formatTime(s.now()), id)
}

func (s *Store) updateInspection(ctx context.Context, query, id string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating inspection: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("inspection %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteInspection removes an inspection and, by cascade, every dependent record.
func (s *Store) DeleteInspection(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM inspections WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("deleting inspection: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("inspection %s: %w", id, ErrNotFound)
	}
	return nil
}
