package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ExportStatus tracks one export through upload and delivery.
type ExportStatus string

const (
	ExportPending     ExportStatus = "pending"
	ExportUploaded    ExportStatus = "uploaded"
	ExportFailed      ExportStatus = "failed"
	ExportSuccess     ExportStatus = "success"
	ExportEmailFailed ExportStatus = "email_failed"
)

// ExportLog is the diagnostic record of one report export. It is created before any
// artifact is uploaded and updated as each step completes.
type ExportLog struct {
	ID           string            `json:"id"`
	InspectionID string            `json:"inspection_id"`
	UserID       string            `json:"user_id,omitempty"`
	ArtifactType string            `json:"artifact_type"`
	FileName     string            `json:"file_name"`
	Version      int               `json:"version"`
	Recipients   []string          `json:"recipients,omitempty"`
	Mode         string            `json:"mode"`
	Status       ExportStatus      `json:"status"`
	Error        string            `json:"error,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	// Attempts counts notification deliveries, including retries.
	Attempts  int    `json:"attempts"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

const exportLogColumns = `id, inspection_id, user_id, artifact_type, file_name, version, recipients, mode,
	status, error, metadata, attempts, created_at, updated_at`

func scanExportLog(row rowScanner) (*ExportLog, error) {
	var l ExportLog
	var recipients, metadata, status string
	if err := row.Scan(&l.ID, &l.InspectionID, &l.UserID, &l.ArtifactType, &l.FileName, &l.Version,
		&recipients, &l.Mode, &status, &l.Error, &metadata, &l.Attempts, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	l.Status = ExportStatus(status)
	l.Recipients = decodeList(recipients)
	if metadata != "" && metadata != "{}" {
		_ = json.Unmarshal([]byte(metadata), &l.Metadata)
	}
	return &l, nil
}

func encodeMap(m map[string]string) string {
	if len(m) == 0 {
		return "{}"
	}
	b, _ := json.Marshal(m)
	return string(b)
}

// CreateExportLog inserts l, assigning its id and timestamps.
func (s *Store) CreateExportLog(ctx context.Context, l *ExportLog) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	now := formatTime(s.now())
	l.CreatedAt, l.UpdatedAt = now, now
	if l.Status == "" {
		l.Status = ExportPending
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO export_logs(`+exportLogColumns+`) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		l.ID, l.InspectionID, l.UserID, l.ArtifactType, l.FileName, l.Version, encodeList(l.Recipients), l.Mode,
		string(l.Status), l.Error, encodeMap(l.Metadata), l.Attempts, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting export log: %w", err)
	}
	return nil
}

// UpdateExportLog persists the mutable columns of l.
func (s *Store) UpdateExportLog(ctx context.Context, l *ExportLog) error {
	l.UpdatedAt = formatTime(s.now())
	res, err := s.db.ExecContext(ctx,
		`UPDATE export_logs SET status=?, error=?, metadata=?, recipients=?, attempts=?, updated_at=? WHERE id=?`,
		string(l.Status), l.Error, encodeMap(l.Metadata), encodeList(l.Recipients), l.Attempts, l.UpdatedAt, l.ID)
	if err != nil {
		return fmt.Errorf("updating export log: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("export log %s: %w", l.ID, ErrNotFound)
	}
	return nil
}

// GetExportLog returns one export log or ErrNotFound.
func (s *Store) GetExportLog(ctx context.Context, id string) (*ExportLog, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+exportLogColumns+` FROM export_logs WHERE id=?`, id)
	l, err := scanExportLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("export log %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading export log: %w", err)
	}
	return l, nil
}

// ListExportLogs returns the export logs of an inspection, oldest first.
func (s *Store) ListExportLogs(ctx context.Context, inspectionID string) ([]ExportLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+exportLogColumns+` FROM export_logs WHERE inspection_id=? ORDER BY created_at, version`, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("listing export logs: %w", err)
	}
	defer rows.Close()

	var out []ExportLog
	for rows.Next() {
		l, err := scanExportLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning export log: %w", err)
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}
