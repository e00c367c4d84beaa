// Package checklist tests item execution, automatic corrective actions and work-order
// escalation.
// Related: internal/checklist/engine.go
// Tags: checklist, engine, corrective-action, work-order, alerts

package checklist

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/vistoria/internal/log"
	"github.com/ariel-frischer/vistoria/internal/notify"
	"github.com/ariel-frischer/vistoria/internal/schema"
)

type memRepo struct {
	mu         sync.Mutex
	cabinType  string
	executions map[string]Execution
	actions    map[string]CorrectiveAction
	workOrders []WorkOrder
	saveErr    error
}

func newMemRepo(cabinType string) *memRepo {
	return &memRepo{
		cabinType:  cabinType,
		executions: make(map[string]Execution),
		actions:    make(map[string]CorrectiveAction),
	}
}

func (r *memRepo) ModuleValues(_ context.Context, _, moduleID string) (map[string]string, error) {
	if moduleID != schema.ModuleCabinType || r.cabinType == "" {
		return map[string]string{}, nil
	}
	return map[string]string{schema.FieldCabinType: r.cabinType}, nil
}

func (r *memRepo) SaveExecution(_ context.Context, e *Execution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.executions[e.InspectionID+"/"+e.ItemID] = *e
	return nil
}

func (r *memRepo) Executions(_ context.Context, inspectionID string) ([]Execution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Execution
	for _, e := range r.executions {
		if e.InspectionID == inspectionID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memRepo) SaveCorrectiveAction(_ context.Context, a *CorrectiveAction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[a.ID] = *a
	return nil
}

func (r *memRepo) CorrectiveAction(_ context.Context, id string) (*CorrectiveAction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.actions[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return &a, nil
}

func (r *memRepo) CorrectiveActions(_ context.Context, inspectionID string) ([]CorrectiveAction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []CorrectiveAction
	for _, a := range r.actions {
		if a.InspectionID == inspectionID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memRepo) SaveWorkOrder(_ context.Context, w *WorkOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workOrders = append(r.workOrders, *w)
	return nil
}

type recordingSink struct {
	mu   sync.Mutex
	sent []notify.Notification
	err  error
}

func (s *recordingSink) Send(_ context.Context, n notify.Notification) (notify.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, n)
	return notify.Receipt{Success: s.err == nil}, s.err
}

func (s *recordingSink) types() []notify.NotificationType {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []notify.NotificationType
	for _, n := range s.sent {
		out = append(out, n.Type)
	}
	return out
}

var fixedNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func newTestEngine(repo *memRepo, sink notify.Sink) *Engine {
	n := 0
	return NewEngine(repo, sink, schema.Default(), log.Discard(),
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%06d", n)
		}),
	)
}

func measured(v float64) *float64 { return &v }

func TestExecuteItem_MeasurementWithinRange(t *testing.T) {
	t.Parallel()
	repo := newMemRepo("Alvenaria")
	sink := &recordingSink{}
	e := newTestEngine(repo, sink)

	exec, err := e.ExecuteItem(context.Background(), "insp-1", "conv_bt_voltage_fn", ExecutionInput{
		MeasuredValue: measured(128),
		Actor:         "tecnico",
	})

	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, exec.Status)
	require.NotNil(t, exec.Validation)
	assert.True(t, exec.Validation.IsValid)
	assert.Equal(t, fixedNow, exec.ExecutedAt)
	assert.Empty(t, repo.actions)
	assert.Empty(t, sink.types())
}

func TestExecuteItem_MeasurementFailureEscalates(t *testing.T) {
	t.Parallel()
	repo := newMemRepo("CONVENCIONAL")
	sink := &recordingSink{}
	e := newTestEngine(repo, sink)

	exec, err := e.ExecuteItem(context.Background(), "insp-1", "conv_bt_voltage_fn", ExecutionInput{
		MeasuredValue: measured(100),
	})

	require.NoError(t, err)
	assert.Equal(t, StatusFailed, exec.Status)
	assert.False(t, exec.Validation.IsValid)

	require.Len(t, repo.actions, 1)
	var action CorrectiveAction
	for _, a := range repo.actions {
		action = a
	}
	assert.True(t, action.Automatic)
	assert.Equal(t, CriticalityHigh, action.Criticality)
	assert.Equal(t, ActionPending, action.Status)
	assert.Contains(t, action.Description, "Medir tensão secundária fase-neutro")

	require.Len(t, repo.workOrders, 1)
	wo := repo.workOrders[0]
	assert.Equal(t, action.ID, wo.FaultID)
	assert.Equal(t, action.WorkOrderID, wo.ID)
	assert.Regexp(t, `^OS-20260314-[0-9A-Z]{6}$`, wo.Number)
	assert.Equal(t, WorkOrderOpen, wo.Status)

	assert.Equal(t, []notify.NotificationType{
		notify.TypeWorkOrder,
		notify.TypeMeasurementAlert,
		notify.TypeCriticalAlert,
	}, sink.types())
}

func TestExecuteItem_SafetyFailure(t *testing.T) {
	t.Parallel()
	repo := newMemRepo("SIMPLIFICADA")
	sink := &recordingSink{}
	e := newTestEngine(repo, sink)

	exec, err := e.ExecuteItem(context.Background(), "insp-1", "simp_safety_fuse", ExecutionInput{
		Nonconforming: true,
		Observation:   "Elo fusível oxidado",
	})

	require.NoError(t, err)
	assert.Equal(t, StatusFailed, exec.Status)
	assert.Nil(t, exec.Validation)
	// medium criticality without before photos: no work order
	assert.Empty(t, repo.workOrders)
	assert.Equal(t, []notify.NotificationType{notify.TypeSafetyAlert}, sink.types())
}

func TestExecuteItem_Errors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		itemID  string
		in      ExecutionInput
		saveErr error
		wantErr error
	}{
		"unknown item": {
			itemID:  "nope",
			wantErr: ErrItemNotFound,
		},
		"photo required": {
			itemID:  "conv_visual_masonry",
			wantErr: ErrPhotoRequired,
		},
		"save fails": {
			itemID:  "conv_operational_ventilation",
			saveErr: errors.New("disk full"),
		},
		"nan reading": {
			itemID:  "conv_bt_voltage_fn",
			in:      ExecutionInput{MeasuredValue: measured(math.NaN())},
			wantErr: ErrInvalidMeasurement,
		},
		"infinite reading": {
			itemID:  "conv_bt_voltage_fn",
			in:      ExecutionInput{MeasuredValue: measured(math.Inf(-1))},
			wantErr: ErrInvalidMeasurement,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			repo := newMemRepo("CONVENCIONAL")
			repo.saveErr = tt.saveErr
			e := newTestEngine(repo, nil)

			_, err := e.ExecuteItem(context.Background(), "insp-1", tt.itemID, tt.in)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestExecuteItem_NotApplicableSkipsPhotoRequirement(t *testing.T) {
	t.Parallel()
	repo := newMemRepo("CONVENCIONAL")
	e := newTestEngine(repo, nil)

	exec, err := e.ExecuteItem(context.Background(), "insp-1", "conv_visual_masonry", ExecutionInput{NotApplicable: true})

	require.NoError(t, err)
	assert.Equal(t, StatusNotApplicable, exec.Status)
}

func TestExecuteItem_AlertFailureDoesNotFail(t *testing.T) {
	t.Parallel()
	repo := newMemRepo("CONVENCIONAL")
	sink := &recordingSink{err: errors.New("smtp down")}
	e := newTestEngine(repo, sink)

	exec, err := e.ExecuteItem(context.Background(), "insp-1", "conv_safety_extinguisher", ExecutionInput{
		Nonconforming: true,
		PhotoURIs:     []string{"file:///ext.jpg"},
	})

	require.NoError(t, err)
	assert.Equal(t, StatusFailed, exec.Status)
	assert.NotEmpty(t, sink.types())
}

func TestExecuteItem_Supersedes(t *testing.T) {
	t.Parallel()
	repo := newMemRepo("CONVENCIONAL")
	e := newTestEngine(repo, nil)
	ctx := context.Background()

	_, err := e.ExecuteItem(ctx, "insp-1", "conv_transformer_temperature", ExecutionInput{MeasuredValue: measured(90)})
	require.NoError(t, err)
	_, err = e.ExecuteItem(ctx, "insp-1", "conv_transformer_temperature", ExecutionInput{MeasuredValue: measured(66)})
	require.NoError(t, err)

	execs, err := e.Executions(ctx, "insp-1")
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.Equal(t, StatusCompleted, execs[0].Status)
}

func TestUpdateCorrectiveAction_EscalatesOnce(t *testing.T) {
	t.Parallel()
	repo := newMemRepo("CONVENCIONAL")
	e := newTestEngine(repo, nil)
	ctx := context.Background()

	faultID, err := e.CreateAutomaticCorrectiveAction(ctx, "insp-1", "conv_visual_masonry", "Trinca na parede", CriticalityMedium)
	require.NoError(t, err)
	assert.Empty(t, repo.workOrders)

	action, err := repo.CorrectiveAction(ctx, faultID)
	require.NoError(t, err)
	action.BeforePhotos = []string{"file:///trinca.jpg"}
	require.NoError(t, e.UpdateCorrectiveAction(ctx, action))
	require.Len(t, repo.workOrders, 1)

	// replaying the update does not create a second work order
	again, err := repo.CorrectiveAction(ctx, faultID)
	require.NoError(t, err)
	again.Responsible = "Equipe B"
	require.NoError(t, e.UpdateCorrectiveAction(ctx, again))
	assert.Len(t, repo.workOrders, 1)
}

func TestUpdateCorrectiveAction_DoneSetsCorrectedAt(t *testing.T) {
	t.Parallel()
	repo := newMemRepo("CONVENCIONAL")
	e := newTestEngine(repo, nil)
	ctx := context.Background()

	faultID, err := e.CreateAutomaticCorrectiveAction(ctx, "insp-1", "x", "d", CriticalityLow)
	require.NoError(t, err)

	action, _ := repo.CorrectiveAction(ctx, faultID)
	action.Status = ActionDone
	require.NoError(t, e.UpdateCorrectiveAction(ctx, action))

	stored, _ := repo.CorrectiveAction(ctx, faultID)
	require.NotNil(t, stored.CorrectedAt)
	assert.Equal(t, fixedNow, *stored.CorrectedAt)
	assert.True(t, stored.Automatic)
}

func TestUpdateCorrectiveAction_Errors(t *testing.T) {
	t.Parallel()
	repo := newMemRepo("CONVENCIONAL")
	e := newTestEngine(repo, nil)
	ctx := context.Background()

	err := e.UpdateCorrectiveAction(ctx, &CorrectiveAction{ID: "missing"})
	assert.ErrorIs(t, err, ErrActionNotFound)

	faultID, err := e.CreateAutomaticCorrectiveAction(ctx, "insp-1", "x", "d", CriticalityLow)
	require.NoError(t, err)
	action, _ := repo.CorrectiveAction(ctx, faultID)
	action.Status = "archived"
	assert.Error(t, e.UpdateCorrectiveAction(ctx, action))

	_, err = e.CreateAutomaticCorrectiveAction(ctx, "insp-1", "x", "d", "severe")
	assert.Error(t, err)
}

func TestApplyActionUpdate_BeforePhotosEscalateMedium(t *testing.T) {
	t.Parallel()
	repo := newMemRepo("CONVENCIONAL")
	sink := &recordingSink{}
	e := newTestEngine(repo, sink)
	ctx := context.Background()

	fault, err := e.RegisterFault(ctx, "insp-1", "", "Trinca na alvenaria", CriticalityMedium, "")
	require.NoError(t, err)
	assert.Empty(t, fault.WorkOrderID)

	status := ActionInProgress
	cost := 350.0
	updated, err := e.ApplyActionUpdate(ctx, fault.ID, ActionUpdate{
		Status:        &status,
		EstimatedCost: &cost,
		Materials:     []string{"argamassa", " "},
		BeforePhotos:  []string{"file:///trinca.jpg"},
	})
	require.NoError(t, err)
	assert.Equal(t, ActionInProgress, updated.Status)
	assert.Equal(t, []string{"argamassa"}, updated.Materials)
	assert.NotEmpty(t, updated.WorkOrderID)
	require.Len(t, repo.workOrders, 1)
	assert.Equal(t, fault.ID, repo.workOrders[0].FaultID)
	assert.Contains(t, sink.types(), notify.TypeWorkOrder)

	stored, err := repo.CorrectiveAction(ctx, fault.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.WorkOrderID, stored.WorkOrderID)
	assert.Equal(t, 350.0, stored.EstimatedCost)
}

func TestApplyActionUpdate_LowWithPhotosStaysOpen(t *testing.T) {
	t.Parallel()
	repo := newMemRepo("CONVENCIONAL")
	e := newTestEngine(repo, nil)
	ctx := context.Background()

	fault, err := e.RegisterFault(ctx, "insp-1", "", "Placa apagada", CriticalityLow, "")
	require.NoError(t, err)

	updated, err := e.ApplyActionUpdate(ctx, fault.ID, ActionUpdate{BeforePhotos: []string{"placa.jpg"}})
	require.NoError(t, err)
	assert.Empty(t, updated.WorkOrderID)
	assert.Empty(t, repo.workOrders)
}

func TestApplyActionUpdate_Errors(t *testing.T) {
	t.Parallel()

	badStatus := ActionStatus("archived")
	badRemediation := RemediationType("forever")
	negative := -1.0
	nan := math.NaN()

	tests := map[string]struct {
		faultID string
		update  ActionUpdate
		wantErr error
	}{
		"unknown fault":   {faultID: "missing", wantErr: ErrActionNotFound},
		"bad status":      {update: ActionUpdate{Status: &badStatus}},
		"bad remediation": {update: ActionUpdate{RemediationType: &badRemediation}},
		"negative cost":   {update: ActionUpdate{EstimatedCost: &negative}},
		"non-finite cost": {update: ActionUpdate{EstimatedCost: &nan}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			repo := newMemRepo("CONVENCIONAL")
			e := newTestEngine(repo, nil)
			ctx := context.Background()
			fault, err := e.RegisterFault(ctx, "insp-1", "", "d", CriticalityLow, "")
			require.NoError(t, err)

			id := tt.faultID
			if id == "" {
				id = fault.ID
			}
			_, err = e.ApplyActionUpdate(ctx, id, tt.update)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestRegisterFault(t *testing.T) {
	t.Parallel()
	repo := newMemRepo("CONVENCIONAL")
	sink := &recordingSink{}
	e := newTestEngine(repo, sink)
	ctx := context.Background()

	action, err := e.RegisterFault(ctx, "insp-1", "", "  Cabo com isolação danificada ", CriticalityHigh, "Equipe A")
	require.NoError(t, err)
	assert.False(t, action.Automatic)
	assert.Equal(t, "Cabo com isolação danificada", action.Description)
	assert.Equal(t, ActionPending, action.Status)
	assert.Equal(t, fixedNow, action.DetectedAt)
	require.Len(t, repo.workOrders, 1)
	assert.Equal(t, repo.workOrders[0].ID, action.WorkOrderID)
	assert.Contains(t, sink.types(), notify.TypeWorkOrder)

	low, err := e.RegisterFault(ctx, "insp-1", "conv_operational_ventilation", "Tela solta", CriticalityLow, "")
	require.NoError(t, err)
	assert.Empty(t, low.WorkOrderID)
	assert.Len(t, repo.workOrders, 1)

	_, err = e.RegisterFault(ctx, "insp-1", "", " ", CriticalityLow, "")
	assert.Error(t, err)
	_, err = e.RegisterFault(ctx, "insp-1", "", "x", "urgent", "")
	assert.Error(t, err)
}

func TestPendingItems(t *testing.T) {
	t.Parallel()
	repo := newMemRepo("ESTALEIRO")
	e := newTestEngine(repo, nil)
	ctx := context.Background()

	all, err := e.PendingItems(ctx, "insp-1")
	require.NoError(t, err)
	require.Len(t, all, 4)

	_, err = e.ExecuteItem(ctx, "insp-1", "est_frequency", ExecutionInput{MeasuredValue: measured(60)})
	require.NoError(t, err)

	pending, err := e.PendingItems(ctx, "insp-1")
	require.NoError(t, err)
	require.Len(t, pending, 3)
	for _, it := range pending {
		assert.NotEqual(t, "est_frequency", it.ID)
	}
}

func TestPendingItems_NoCabinType(t *testing.T) {
	t.Parallel()
	e := newTestEngine(newMemRepo(""), nil)

	pending, err := e.PendingItems(context.Background(), "insp-1")
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestWorkOrderNumber(t *testing.T) {
	t.Parallel()
	got := workOrderNumber(fixedNow, "6f1c2a9e-0d4b-4c3e-9a51-7b2e8f3d1a0c")
	assert.Equal(t, "OS-20260314-3D1A0C", got)
}
