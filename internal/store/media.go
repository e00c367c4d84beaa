package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GeneralPhotoType is the bucket for media without a photo-type tag.
const GeneralPhotoType = "general"

// MediaRow is one attached file.
type MediaRow struct {
	ID           string `json:"id"`
	InspectionID string `json:"inspection_id"`
	ModuleType   string `json:"module_type"`
	FileName     string `json:"file_name"`
	FilePath     string `json:"file_path"`
	// FileType is the MIME type, e.g. image/jpeg.
	FileType   string `json:"file_type"`
	IsRequired bool   `json:"is_required"`
	PhotoType  string `json:"photo_type,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// IsImage reports whether the file is an image.
func (m MediaRow) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(m.FileType), "image/")
}

// PhotoTypeOrGeneral returns the photo-type tag, or "general" when untagged.
func (m MediaRow) PhotoTypeOrGeneral() string {
	if strings.TrimSpace(m.PhotoType) == "" {
		return GeneralPhotoType
	}
	return m.PhotoType
}

// AttachMedia records a file reference. ID and CreatedAt are assigned here.
func (s *Store) AttachMedia(ctx context.Context, m MediaRow) (*MediaRow, error) {
	m.ID = uuid.NewString()
	m.CreatedAt = formatTime(s.now())
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO media_files(id, inspection_id, module_type, file_name, file_path, file_type, is_required, photo_type, created_at)
		 VALUES(?,?,?,?,?,?,?,?,?)`,
		m.ID, m.InspectionID, m.ModuleType, m.FileName, m.FilePath, m.FileType, boolInt(m.IsRequired), m.PhotoType, m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting media: %w", err)
	}
	return &m, nil
}

// MediaRows returns every media row of the inspection in attachment order.
func (s *Store) MediaRows(ctx context.Context, inspectionID string) ([]MediaRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, inspection_id, module_type, file_name, file_path, file_type, is_required, photo_type, created_at
		 FROM media_files WHERE inspection_id=? ORDER BY created_at, rowid`, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("reading media: %w", err)
	}
	defer rows.Close()

	var out []MediaRow
	for rows.Next() {
		var m MediaRow
		var required int
		if err := rows.Scan(&m.ID, &m.InspectionID, &m.ModuleType, &m.FileName, &m.FilePath,
			&m.FileType, &required, &m.PhotoType, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning media: %w", err)
		}
		m.IsRequired = required != 0
		out = append(out, m)
	}
	return out, rows.Err()
}

// ImageRows returns only the image media of the inspection.
func (s *Store) ImageRows(ctx context.Context, inspectionID string) ([]MediaRow, error) {
	all, err := s.MediaRows(ctx, inspectionID)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, m := range all {
		if m.IsImage() {
			out = append(out, m)
		}
	}
	return out, nil
}
