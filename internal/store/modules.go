package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ariel-frischer/vistoria/internal/schema"
)

// FieldRow is one stored (module, field) value. Values are strings; booleans are the
// literals "true"/"false".
type FieldRow struct {
	InspectionID string `json:"inspection_id"`
	ModuleType   string `json:"module_type"`
	FieldName    string `json:"field_name"`
	FieldValue   string `json:"field_value"`
	FieldType    string `json:"field_type"`
	IsRequired   bool   `json:"is_required"`
}

// BuildFieldRows turns raw values into rows annotated with the module's field specs.
// Keys unknown to the module (such as "<field>_other") are stored as text.
// Rows are ordered by field name.
func BuildFieldRows(inspectionID string, module *schema.ModuleConfig, values map[string]string) []FieldRow {
	names := make([]string, 0, len(values))
	for k := range values {
		names = append(names, k)
	}
	sort.Strings(names)

	rows := make([]FieldRow, 0, len(names))
	for _, name := range names {
		row := FieldRow{
			InspectionID: inspectionID,
			ModuleType:   module.ID,
			FieldName:    name,
			FieldValue:   values[name],
			FieldType:    schema.FieldText.String(),
		}
		if spec, ok := module.Field(name); ok {
			row.FieldType = spec.Type.String()
			row.IsRequired = spec.Required
		} else if strings.HasPrefix(name, schema.MeasurementPrefix) {
			row.FieldType = schema.FieldMeasurement.String()
		}
		rows = append(rows, row)
	}
	return rows
}

// SaveModule replaces every stored row of one module with rows.
//
// Delete-then-reinsert gives last-write-wins at module granularity. It runs in a single
// transaction, but callers must assume one active editor per inspection.
// Saving the client module also refreshes the inspection's header columns.
func (s *Store) SaveModule(ctx context.Context, inspectionID, moduleType string, rows []FieldRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM module_data WHERE inspection_id=? AND module_type=?`, inspectionID, moduleType); err != nil {
		return fmt.Errorf("clearing module %s: %w", moduleType, err)
	}

	values := make(map[string]string, len(rows))
	for _, r := range rows {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO module_data(inspection_id, module_type, field_name, field_value, field_type, is_required)
			 VALUES(?,?,?,?,?,?)`,
			inspectionID, moduleType, r.FieldName, r.FieldValue, r.FieldType, boolInt(r.IsRequired)); err != nil {
			return fmt.Errorf("inserting field %s.%s: %w", moduleType, r.FieldName, err)
		}
		values[r.FieldName] = r.FieldValue
	}

	query := `UPDATE inspections SET updated_at=? WHERE id=?`
	args := []any{formatTime(s.now()), inspectionID}
	if moduleType == schema.ModuleClient {
		query = `UPDATE inspections SET client_name=?, work_site=?, updated_at=? WHERE id=?`
		args = []any{values[schema.FieldClientName], values[schema.FieldWorkSite], formatTime(s.now()), inspectionID}
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("touching inspection: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("inspection %s: %w", inspectionID, ErrNotFound)
	}

	return tx.Commit()
}

// MergeModule overlays values onto the module's stored values and saves the result.
// An empty value removes the field.
func (s *Store) MergeModule(ctx context.Context, inspectionID string, module *schema.ModuleConfig, values map[string]string) error {
	current, err := s.ModuleValues(ctx, inspectionID, module.ID)
	if err != nil {
		return err
	}
	for k, v := range values {
		if strings.TrimSpace(v) == "" {
			delete(current, k)
			continue
		}
		current[k] = v
	}
	return s.SaveModule(ctx, inspectionID, module.ID, BuildFieldRows(inspectionID, module, current))
}

// FieldRows returns every stored field row of the inspection, ordered by module and field.
func (s *Store) FieldRows(ctx context.Context, inspectionID string) ([]FieldRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT inspection_id, module_type, field_name, field_value, field_type, is_required
		 FROM module_data WHERE inspection_id=? ORDER BY module_type, field_name`, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("reading module data: %w", err)
	}
	defer rows.Close()

	var out []FieldRow
	for rows.Next() {
		var r FieldRow
		var required int
		if err := rows.Scan(&r.InspectionID, &r.ModuleType, &r.FieldName, &r.FieldValue, &r.FieldType, &required); err != nil {
			return nil, fmt.Errorf("scanning module data: %w", err)
		}
		r.IsRequired = required != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// ModuleValues returns the stored values of one module as a map. A module with no rows
// yields an empty map.
func (s *Store) ModuleValues(ctx context.Context, inspectionID, moduleType string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT field_name, field_value FROM module_data WHERE inspection_id=? AND module_type=?`,
		inspectionID, moduleType)
	if err != nil {
		return nil, fmt.Errorf("reading module %s: %w", moduleType, err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scanning module %s: %w", moduleType, err)
		}
		out[k] = v
	}
	return out, rows.Err()
}
