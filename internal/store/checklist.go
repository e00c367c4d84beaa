package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ariel-frischer/vistoria/internal/checklist"
)

var _ checklist.Repository = (*Store)(nil)

// SaveExecution stores e, replacing any earlier execution of the same item.
func (s *Store) SaveExecution(ctx context.Context, e *checklist.Execution) error {
	var validation sql.NullString
	if e.Validation != nil {
		b, err := json.Marshal(e.Validation)
		if err != nil {
			return fmt.Errorf("encoding validation: %w", err)
		}
		validation = sql.NullString{String: string(b), Valid: true}
	}
	var measured sql.NullFloat64
	if e.MeasuredValue != nil {
		measured = sql.NullFloat64{Float64: *e.MeasuredValue, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO checklist_executions(id, inspection_id, item_id, status, measured_value, observation, photos, validation, executed_at, executed_by)
		 VALUES(?,?,?,?,?,?,?,?,?,?)
		 ON CONFLICT(inspection_id, item_id) DO UPDATE SET
			id=excluded.id, status=excluded.status, measured_value=excluded.measured_value,
			observation=excluded.observation, photos=excluded.photos, validation=excluded.validation,
			executed_at=excluded.executed_at, executed_by=excluded.executed_by`,
		e.ID, e.InspectionID, e.ItemID, string(e.Status), measured, e.Observation, encodeList(e.Photos),
		validation, formatTime(e.ExecutedAt), e.ExecutedBy)
	if err != nil {
		return fmt.Errorf("saving execution: %w", err)
	}
	return nil
}

// Executions returns the current execution of each item, ordered by execution time.
func (s *Store) Executions(ctx context.Context, inspectionID string) ([]checklist.Execution, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, inspection_id, item_id, status, measured_value, observation, photos, validation, executed_at, executed_by
		 FROM checklist_executions WHERE inspection_id=? ORDER BY executed_at, item_id`, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("listing executions: %w", err)
	}
	defer rows.Close()

	var out []checklist.Execution
	for rows.Next() {
		var e checklist.Execution
		var status, photos, executedAt string
		var measured sql.NullFloat64
		var validation sql.NullString
		if err := rows.Scan(&e.ID, &e.InspectionID, &e.ItemID, &status, &measured, &e.Observation,
			&photos, &validation, &executedAt, &e.ExecutedBy); err != nil {
			return nil, fmt.Errorf("scanning execution: %w", err)
		}
		e.Status = checklist.ExecutionStatus(status)
		e.Photos = decodeList(photos)
		e.ExecutedAt = parseTime(executedAt)
		if measured.Valid {
			v := measured.Float64
			e.MeasuredValue = &v
		}
		if validation.Valid {
			var mr checklist.MeasurementResult
			if err := json.Unmarshal([]byte(validation.String), &mr); err == nil {
				e.Validation = &mr
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

const actionColumns = `id, inspection_id, item_id, description, criticality, remediation_type, materials,
	estimated_cost, before_photos, after_photos, detected_at, corrected_at, responsible, status,
	work_order_id, automatic`

// SaveCorrectiveAction inserts or updates a.
func (s *Store) SaveCorrectiveAction(ctx context.Context, a *checklist.CorrectiveAction) error {
	var corrected sql.NullString
	if a.CorrectedAt != nil {
		corrected = sql.NullString{String: formatTime(*a.CorrectedAt), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO corrective_actions(`+actionColumns+`) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		 ON CONFLICT(id) DO UPDATE SET
			description=excluded.description, criticality=excluded.criticality,
			remediation_type=excluded.remediation_type, materials=excluded.materials,
			estimated_cost=excluded.estimated_cost, before_photos=excluded.before_photos,
			after_photos=excluded.after_photos, corrected_at=excluded.corrected_at,
			responsible=excluded.responsible, status=excluded.status, work_order_id=excluded.work_order_id`,
		a.ID, a.InspectionID, a.ItemID, a.Description, string(a.Criticality), string(a.RemediationType),
		encodeList(a.Materials), a.EstimatedCost, encodeList(a.BeforePhotos), encodeList(a.AfterPhotos),
		formatTime(a.DetectedAt), corrected, a.Responsible, string(a.Status), a.WorkOrderID, boolInt(a.Automatic))
	if err != nil {
		return fmt.Errorf("saving corrective action: %w", err)
	}
	return nil
}

func scanAction(row rowScanner) (*checklist.CorrectiveAction, error) {
	var a checklist.CorrectiveAction
	var criticality, remediation, materials, before, after, detected, status string
	var corrected sql.NullString
	var automatic int
	if err := row.Scan(&a.ID, &a.InspectionID, &a.ItemID, &a.Description, &criticality, &remediation,
		&materials, &a.EstimatedCost, &before, &after, &detected, &corrected, &a.Responsible, &status,
		&a.WorkOrderID, &automatic); err != nil {
		return nil, err
	}
	a.Criticality = checklist.Criticality(criticality)
	a.RemediationType = checklist.RemediationType(remediation)
	a.Materials = decodeList(materials)
	a.BeforePhotos = decodeList(before)
	a.AfterPhotos = decodeList(after)
	a.DetectedAt = parseTime(detected)
	if corrected.Valid {
		t := parseTime(corrected.String)
		a.CorrectedAt = &t
	}
	a.Status = checklist.ActionStatus(status)
	a.Automatic = automatic != 0
	return &a, nil
}

// CorrectiveAction returns one corrective action or ErrNotFound.
func (s *Store) CorrectiveAction(ctx context.Context, id string) (*checklist.CorrectiveAction, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+actionColumns+` FROM corrective_actions WHERE id=?`, id)
	a, err := scanAction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("corrective action %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading corrective action: %w", err)
	}
	return a, nil
}

// CorrectiveActions returns the corrective actions of the inspection by detection time.
func (s *Store) CorrectiveActions(ctx context.Context, inspectionID string) ([]checklist.CorrectiveAction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+actionColumns+` FROM corrective_actions WHERE inspection_id=? ORDER BY detected_at, id`, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("listing corrective actions: %w", err)
	}
	defer rows.Close()

	var out []checklist.CorrectiveAction
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning corrective action: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// SaveWorkOrder inserts a work order.
func (s *Store) SaveWorkOrder(ctx context.Context, w *checklist.WorkOrder) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO work_orders(id, number, inspection_id, fault_id, description, criticality, status, created_at)
		 VALUES(?,?,?,?,?,?,?,?)`,
		w.ID, w.Number, w.InspectionID, w.FaultID, w.Description, string(w.Criticality), w.Status, formatTime(w.CreatedAt))
	if err != nil {
		return fmt.Errorf("saving work order: %w", err)
	}
	return nil
}

// WorkOrders returns the work orders of the inspection.
func (s *Store) WorkOrders(ctx context.Context, inspectionID string) ([]checklist.WorkOrder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, number, inspection_id, fault_id, description, criticality, status, created_at
		 FROM work_orders WHERE inspection_id=? ORDER BY created_at, number`, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("listing work orders: %w", err)
	}
	defer rows.Close()

	var out []checklist.WorkOrder
	for rows.Next() {
		var w checklist.WorkOrder
		var criticality, created string
		if err := rows.Scan(&w.ID, &w.Number, &w.InspectionID, &w.FaultID, &w.Description,
			&criticality, &w.Status, &created); err != nil {
			return nil, fmt.Errorf("scanning work order: %w", err)
		}
		w.Criticality = checklist.Criticality(criticality)
		w.CreatedAt = parseTime(created)
		out = append(out, w)
	}
	return out, rows.Err()
}
