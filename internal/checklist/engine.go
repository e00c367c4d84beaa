package checklist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ariel-frischer/vistoria/internal/notify"
	"github.com/ariel-frischer/vistoria/internal/schema"
	"github.com/ariel-frischer/vistoria/internal/textnorm"
)

// Errors returned by the engine.
var (
	ErrItemNotFound       = errors.New("checklist item not found")
	ErrPhotoRequired      = errors.New("checklist item requires at least one photo")
	ErrActionNotFound     = errors.New("corrective action not found")
	ErrInvalidMeasurement = errors.New("measured value must be a finite number")
	ErrInvalidAction      = errors.New("invalid corrective action")
)

// Repository is the persistence the engine needs. store.Store implements it.
type Repository interface {
	ModuleValues(ctx context.Context, inspectionID, moduleID string) (map[string]string, error)
	SaveExecution(ctx context.Context, e *Execution) error
	Executions(ctx context.Context, inspectionID string) ([]Execution, error)
	SaveCorrectiveAction(ctx context.Context, a *CorrectiveAction) error
	CorrectiveAction(ctx context.Context, id string) (*CorrectiveAction, error)
	CorrectiveActions(ctx context.Context, inspectionID string) ([]CorrectiveAction, error)
	SaveWorkOrder(ctx context.Context, w *WorkOrder) error
}

// ExecutionInput is what the technician records for one item.
type ExecutionInput struct {
	Observation   string
	MeasuredValue *float64
	PhotoURIs     []string
	Actor         string
	// NotApplicable records the item as not applicable to this installation.
	NotApplicable bool
	// Nonconforming marks a non-measurement item as failed by the technician.
	Nonconforming bool
}

// Engine executes checklist items and manages corrective actions.
type Engine struct {
	repo      Repository
	sink      notify.Sink
	registry  *schema.Registry
	templates *Templates
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides id generation.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// WithTemplates overrides the embedded templates.
func WithTemplates(t *Templates) Option {
	return func(e *Engine) { e.templates = t }
}

// NewEngine creates a checklist engine. A nil sink disables alerts.
func NewEngine(repo Repository, sink notify.Sink, registry *schema.Registry, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		repo:      repo,
		sink:      sink,
		registry:  registry,
		templates: DefaultTemplates(),
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// CabinType returns the canonical cabin type recorded for the inspection, or "" when
// none is selected.
func (e *Engine) CabinType(ctx context.Context, inspectionID string) (string, error) {
	values, err := e.repo.ModuleValues(ctx, inspectionID, schema.ModuleCabinType)
	if err != nil {
		return "", fmt.Errorf("reading cabin type: %w", err)
	}
	canonical, _ := e.registry.NormalizeCabinType(values[schema.FieldCabinType])
	return canonical, nil
}

// Items returns the checklist of the inspection's cabin type.
func (e *Engine) Items(ctx context.Context, inspectionID string) ([]Item, error) {
	ct, err := e.CabinType(ctx, inspectionID)
	if err != nil {
		return nil, err
	}
	tpl, ok := e.templates.ForCabinType(ct)
	if !ok {
		return nil, nil
	}
	return tpl.Items, nil
}

// ExecuteItem records the outcome of one checklist item.
//
// Measurements are validated against the item's tolerance. A failed item is persisted,
// then an automatic corrective action is created and alerts are dispatched. Alert
// failures are logged and never fail the execution.
func (e *Engine) ExecuteItem(ctx context.Context, inspectionID, itemID string, in ExecutionInput) (*Execution, error) {
	logger := e.logger.With("inspection_id", inspectionID, "item_id", itemID)

	ct, err := e.CabinType(ctx, inspectionID)
	if err != nil {
		return nil, err
	}
	item, ok := e.templates.Item(ct, itemID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}
	if in.MeasuredValue != nil && !textnorm.IsFinite(*in.MeasuredValue) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMeasurement, *in.MeasuredValue)
	}
	if item.PhotoRequired && !in.NotApplicable && len(in.PhotoURIs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrPhotoRequired, itemID)
	}

	exec := &Execution{
		ID:            e.newID(),
		InspectionID:  inspectionID,
		ItemID:        itemID,
		Status:        StatusCompleted,
		MeasuredValue: in.MeasuredValue,
		Observation:   strings.TrimSpace(in.Observation),
		Photos:        in.PhotoURIs,
		ExecutedAt:    e.now(),
		ExecutedBy:    in.Actor,
	}

	switch {
	case in.NotApplicable:
		exec.Status = StatusNotApplicable
	case in.MeasuredValue != nil:
		result := ValidateMeasurement(item, *in.MeasuredValue)
		exec.Validation = &result
		if !result.IsValid {
			exec.Status = StatusFailed
		}
	case in.Nonconforming:
		exec.Status = StatusFailed
	}

	if err := e.repo.SaveExecution(ctx, exec); err != nil {
		return nil, fmt.Errorf("saving execution: %w", err)
	}
	logger.Info("checklist item executed", "status", string(exec.Status))

	if exec.Status == StatusFailed {
		e.handleFailure(ctx, logger, item, exec)
	}
	return exec, nil
}

func (e *Engine) handleFailure(ctx context.Context, logger *slog.Logger, item Item, exec *Execution) {
	description := failureDescription(item, exec)

	faultID, err := e.CreateAutomaticCorrectiveAction(ctx, exec.InspectionID, item.ID, description, item.Criticality)
	if err != nil {
		logger.Error("creating automatic corrective action", "error", err)
	}

	if exec.Validation != nil {
		e.alert(ctx, logger, notify.Notification{
			Type:         notify.TypeMeasurementAlert,
			Subject:      "Medição fora da faixa",
			Message:      fmt.Sprintf("%s: %s", item.Action, exec.Validation.Message),
			InspectionID: exec.InspectionID,
			FaultID:      faultID,
			Urgency:      notify.UrgencyNormal,
			Data:         map[string]string{"item_id": item.ID, "deviation": fmt.Sprintf("%.2f", exec.Validation.Deviation)},
		})
	}
	if item.Category == CategorySafety {
		e.alert(ctx, logger, notify.Notification{
			Type:         notify.TypeSafetyAlert,
			Subject:      "Item de segurança reprovado",
			Message:      description,
			InspectionID: exec.InspectionID,
			FaultID:      faultID,
			Urgency:      notify.UrgencyHigh,
		})
	}
	if item.Criticality == CriticalityHigh {
		e.alert(ctx, logger, notify.Notification{
			Type:         notify.TypeCriticalAlert,
			Subject:      "Falha crítica detectada",
			Message:      description,
			InspectionID: exec.InspectionID,
			FaultID:      faultID,
			Urgency:      notify.UrgencyHigh,
		})
	}
}

func failureDescription(item Item, exec *Execution) string {
	desc := "Falha no item: " + item.Action
	if exec.Validation != nil && exec.MeasuredValue != nil {
		desc += fmt.Sprintf(" (medido %s %s; %s)", formatNumber(*exec.MeasuredValue), item.Unit, exec.Validation.Message)
	}
	if exec.Observation != "" {
		desc += ". " + exec.Observation
	}
	return desc
}

func (e *Engine) alert(ctx context.Context, logger *slog.Logger, n notify.Notification) {
	if e.sink == nil {
		return
	}
	if _, err := e.sink.Send(ctx, n); err != nil {
		logger.Warn("alert not delivered", "type", string(n.Type), "error", err)
	}
}

// CreateAutomaticCorrectiveAction records a pending corrective action for a failed item and
// escalates it to a work order when the escalation predicate holds. It returns the fault id.
func (e *Engine) CreateAutomaticCorrectiveAction(ctx context.Context, inspectionID, itemID, description string, criticality Criticality) (string, error) {
	action, err := e.createAction(ctx, &CorrectiveAction{
		InspectionID: inspectionID,
		ItemID:       itemID,
		Description:  description,
		Criticality:  criticality,
		Automatic:    true,
	})
	if action == nil {
		return "", err
	}
	return action.ID, err
}

// RegisterFault records a fault reported by the technician outside a checklist execution.
// High-criticality faults are escalated like automatic ones.
func (e *Engine) RegisterFault(ctx context.Context, inspectionID, itemID, description string, criticality Criticality, responsible string) (*CorrectiveAction, error) {
	if strings.TrimSpace(description) == "" {
		return nil, errors.New("fault description is required")
	}
	return e.createAction(ctx, &CorrectiveAction{
		InspectionID: inspectionID,
		ItemID:       itemID,
		Description:  strings.TrimSpace(description),
		Criticality:  criticality,
		Responsible:  responsible,
	})
}

func (e *Engine) createAction(ctx context.Context, action *CorrectiveAction) (*CorrectiveAction, error) {
	if !action.Criticality.IsValid() {
		return nil, fmt.Errorf("invalid criticality %q", action.Criticality)
	}
	action.ID = e.newID()
	action.DetectedAt = e.now()
	action.Status = ActionPending
	if err := e.repo.SaveCorrectiveAction(ctx, action); err != nil {
		return nil, fmt.Errorf("saving corrective action: %w", err)
	}
	if err := e.escalate(ctx, action); err != nil {
		return action, err
	}
	return action, nil
}

// UpdateCorrectiveAction persists an edited corrective action and re-evaluates escalation.
// An action already linked to a work order never gets a second one.
func (e *Engine) UpdateCorrectiveAction(ctx context.Context, action *CorrectiveAction) error {
	existing, err := e.repo.CorrectiveAction(ctx, action.ID)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrActionNotFound, action.ID)
	}
	if !action.Criticality.IsValid() {
		return fmt.Errorf("%w: criticality %q", ErrInvalidAction, action.Criticality)
	}
	if !action.Status.IsValid() {
		return fmt.Errorf("%w: status %q", ErrInvalidAction, action.Status)
	}

	action.InspectionID = existing.InspectionID
	action.DetectedAt = existing.DetectedAt
	action.Automatic = existing.Automatic
	if action.WorkOrderID == "" {
		action.WorkOrderID = existing.WorkOrderID
	}
	if action.Status == ActionDone && action.CorrectedAt == nil {
		now := e.now()
		action.CorrectedAt = &now
	}

	if err := e.repo.SaveCorrectiveAction(ctx, action); err != nil {
		return fmt.Errorf("saving corrective action: %w", err)
	}
	return e.escalate(ctx, action)
}

// ActionUpdate is a partial edit of a corrective action. Nil fields keep their current
// value; materials and photos are appended.
type ActionUpdate struct {
	Status          *ActionStatus    `json:"status,omitempty"`
	Criticality     *Criticality     `json:"criticality,omitempty"`
	RemediationType *RemediationType `json:"remediation_type,omitempty"`
	Responsible     *string          `json:"responsible,omitempty"`
	EstimatedCost   *float64         `json:"estimated_cost,omitempty"`
	Materials       []string         `json:"materials,omitempty"`
	BeforePhotos    []string         `json:"before_photos,omitempty"`
	AfterPhotos     []string         `json:"after_photos,omitempty"`
}

// ApplyActionUpdate applies u to the stored corrective action faultID and re-evaluates
// escalation, so documenting a medium fault with before-photos opens its work order.
func (e *Engine) ApplyActionUpdate(ctx context.Context, faultID string, u ActionUpdate) (*CorrectiveAction, error) {
	action, err := e.repo.CorrectiveAction(ctx, faultID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrActionNotFound, faultID)
	}

	if u.Status != nil {
		action.Status = *u.Status
	}
	if u.Criticality != nil {
		action.Criticality = *u.Criticality
	}
	if u.RemediationType != nil {
		if !u.RemediationType.IsValid() {
			return nil, fmt.Errorf("%w: remediation type %q", ErrInvalidAction, *u.RemediationType)
		}
		action.RemediationType = *u.RemediationType
	}
	if u.Responsible != nil {
		action.Responsible = strings.TrimSpace(*u.Responsible)
	}
	if u.EstimatedCost != nil {
		if !textnorm.IsFinite(*u.EstimatedCost) || *u.EstimatedCost < 0 {
			return nil, fmt.Errorf("%w: estimated cost %v", ErrInvalidAction, *u.EstimatedCost)
		}
		action.EstimatedCost = *u.EstimatedCost
	}
	action.Materials = appendNonBlank(action.Materials, u.Materials)
	action.BeforePhotos = appendNonBlank(action.BeforePhotos, u.BeforePhotos)
	action.AfterPhotos = appendNonBlank(action.AfterPhotos, u.AfterPhotos)

	if err := e.UpdateCorrectiveAction(ctx, action); err != nil {
		return nil, err
	}
	e.logger.Info("corrective action updated",
		"inspection_id", action.InspectionID, "fault_id", action.ID, "status", string(action.Status))
	return action, nil
}

func appendNonBlank(dst, src []string) []string {
	for _, v := range src {
		if v = strings.TrimSpace(v); v != "" {
			dst = append(dst, v)
		}
	}
	return dst
}

func (e *Engine) escalate(ctx context.Context, action *CorrectiveAction) error {
	if action.WorkOrderID != "" || !NeedsWorkOrder(*action) {
		return nil
	}

	now := e.now()
	wo := &WorkOrder{
		ID:           e.newID(),
		Number:       workOrderNumber(now, action.ID),
		InspectionID: action.InspectionID,
		FaultID:      action.ID,
		Description:  action.Description,
		Criticality:  action.Criticality,
		Status:       WorkOrderOpen,
		CreatedAt:    now,
	}
	if err := e.repo.SaveWorkOrder(ctx, wo); err != nil {
		return fmt.Errorf("saving work order: %w", err)
	}
	action.WorkOrderID = wo.ID
	if err := e.repo.SaveCorrectiveAction(ctx, action); err != nil {
		return fmt.Errorf("linking work order: %w", err)
	}

	e.logger.Info("work order generated",
		"inspection_id", action.InspectionID, "fault_id", action.ID, "work_order", wo.Number)
	e.alert(ctx, e.logger, notify.Notification{
		Type:         notify.TypeWorkOrder,
		Subject:      "Ordem de serviço " + wo.Number,
		Message:      action.Description,
		InspectionID: action.InspectionID,
		FaultID:      action.ID,
		Urgency:      notify.UrgencyHigh,
		Data:         map[string]string{"work_order": wo.Number},
	})
	return nil
}

// workOrderNumber formats OS-YYYYMMDD-XXXXXX from the date and the fault id.
func workOrderNumber(t time.Time, faultID string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(faultID, "-", ""))
	if len(suffix) > 6 {
		suffix = suffix[len(suffix)-6:]
	}
	return fmt.Sprintf("OS-%s-%s", t.Format("20060102"), suffix)
}

// Executions returns the current execution of every executed item.
func (e *Engine) Executions(ctx context.Context, inspectionID string) ([]Execution, error) {
	return e.repo.Executions(ctx, inspectionID)
}

// CorrectiveActions returns the corrective actions of the inspection.
func (e *Engine) CorrectiveActions(ctx context.Context, inspectionID string) ([]CorrectiveAction, error) {
	return e.repo.CorrectiveActions(ctx, inspectionID)
}

// PendingItems returns template items that have no execution yet, in template order.
func (e *Engine) PendingItems(ctx context.Context, inspectionID string) ([]Item, error) {
	items, err := e.Items(ctx, inspectionID)
	if err != nil {
		return nil, err
	}
	execs, err := e.repo.Executions(ctx, inspectionID)
	if err != nil {
		return nil, fmt.Errorf("listing executions: %w", err)
	}
	done := make(map[string]bool, len(execs))
	for _, ex := range execs {
		done[ex.ItemID] = true
	}
	var pending []Item
	for _, it := range items {
		if !done[it.ID] {
			pending = append(pending, it)
		}
	}
	return pending, nil
}
