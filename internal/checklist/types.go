// Package checklist executes cabin-type checklist templates, validates measurements against
// tolerance, and turns failures into corrective actions and work orders.
package checklist

import "time"

// Category groups checklist items.
type Category string

const (
	CategoryVisual      Category = "visual"
	CategoryMeasurement Category = "measurement"
	CategoryOperational Category = "operational"
	CategorySafety      Category = "safety"
)

// Criticality ranks the impact of a failed item or a fault.
type Criticality string

const (
	CriticalityLow    Criticality = "low"
	CriticalityMedium Criticality = "medium"
	CriticalityHigh   Criticality = "high"
)

// String returns the string representation of the criticality.
func (c Criticality) String() string {
	return string(c)
}

// IsValid returns true if the criticality is a recognized value.
func (c Criticality) IsValid() bool {
	switch c {
	case CriticalityLow, CriticalityMedium, CriticalityHigh:
		return true
	}
	return false
}

// ExecutionStatus is the recorded outcome of one item.
type ExecutionStatus string

const (
	StatusPending       ExecutionStatus = "pending"
	StatusCompleted     ExecutionStatus = "completed"
	StatusFailed        ExecutionStatus = "failed"
	StatusNotApplicable ExecutionStatus = "not_applicable"
)

// ActionStatus tracks remediation progress of a corrective action.
type ActionStatus string

const (
	ActionPending    ActionStatus = "pending"
	ActionInProgress ActionStatus = "in_progress"
	ActionDone       ActionStatus = "done"
	ActionCancelled  ActionStatus = "cancelled"
)

// IsValid returns true if the status is a recognized value.
func (s ActionStatus) IsValid() bool {
	switch s {
	case ActionPending, ActionInProgress, ActionDone, ActionCancelled:
		return true
	}
	return false
}

// RemediationType distinguishes provisional fixes from definitive ones.
type RemediationType string

const (
	RemediationTemporary RemediationType = "temporary"
	RemediationPermanent RemediationType = "permanent"
)

// IsValid returns true if the remediation type is a recognized value.
func (r RemediationType) IsValid() bool {
	return r == RemediationTemporary || r == RemediationPermanent
}

// Item is one immutable entry of a cabin-type checklist template.
type Item struct {
	ID                string      `yaml:"id" json:"id" validate:"required"`
	Action            string      `yaml:"action" json:"action" validate:"required"`
	TestMethod        string      `yaml:"test_method" json:"test_method"`
	ExpectedValue     string      `yaml:"expected_value,omitempty" json:"expected_value,omitempty"`
	Unit              string      `yaml:"unit,omitempty" json:"unit,omitempty"`
	TolerancePercent  *float64    `yaml:"tolerance_percent,omitempty" json:"tolerance_percent,omitempty" validate:"omitempty,gte=0"`
	MeasurementMethod string      `yaml:"measurement_method,omitempty" json:"measurement_method,omitempty"`
	ObservationLabel  string      `yaml:"observation_label,omitempty" json:"observation_label,omitempty"`
	PhotoRequired     bool        `yaml:"photo_required" json:"photo_required"`
	Category          Category    `yaml:"category" json:"category" validate:"required,oneof=visual measurement operational safety"`
	Criticality       Criticality `yaml:"criticality" json:"criticality" validate:"required,oneof=low medium high"`
	EquipmentType     string      `yaml:"equipment_type,omitempty" json:"equipment_type,omitempty"`
	RecurrenceDays    int         `yaml:"recurrence_days,omitempty" json:"recurrence_days,omitempty" validate:"min=0"`
}

// MeasurementResult is the tolerance check embedded in an execution.
type MeasurementResult struct {
	IsValid   bool    `json:"is_valid"`
	Deviation float64 `json:"deviation"`
	Message   string  `json:"message"`
}

// Execution records one item's outcome within an inspection. A newer execution of the same
// item supersedes the previous one.
type Execution struct {
	ID            string             `json:"id"`
	InspectionID  string             `json:"inspection_id"`
	ItemID        string             `json:"item_id"`
	Status        ExecutionStatus    `json:"status"`
	MeasuredValue *float64           `json:"measured_value,omitempty"`
	Observation   string             `json:"observation,omitempty"`
	Photos        []string           `json:"photos,omitempty"`
	ExecutedAt    time.Time          `json:"executed_at"`
	ExecutedBy    string             `json:"executed_by,omitempty"`
	Validation    *MeasurementResult `json:"validation,omitempty"`
}

// CorrectiveAction is a remediation record for a fault found during the inspection.
type CorrectiveAction struct {
	ID              string          `json:"id"`
	InspectionID    string          `json:"inspection_id"`
	ItemID          string          `json:"item_id,omitempty"`
	Description     string          `json:"description"`
	Criticality     Criticality     `json:"criticality"`
	RemediationType RemediationType `json:"remediation_type,omitempty"`
	Materials       []string        `json:"materials,omitempty"`
	EstimatedCost   float64         `json:"estimated_cost,omitempty"`
	BeforePhotos    []string        `json:"before_photos,omitempty"`
	AfterPhotos     []string        `json:"after_photos,omitempty"`
	DetectedAt      time.Time       `json:"detected_at"`
	CorrectedAt     *time.Time      `json:"corrected_at,omitempty"`
	Responsible     string          `json:"responsible,omitempty"`
	Status          ActionStatus    `json:"status"`
	WorkOrderID     string          `json:"work_order_id,omitempty"`
	Automatic       bool            `json:"automatic"`
}

// WorkOrder is the downstream maintenance ticket of an escalated corrective action.
type WorkOrder struct {
	ID           string      `json:"id"`
	Number       string      `json:"number"`
	InspectionID string      `json:"inspection_id"`
	FaultID      string      `json:"fault_id"`
	Description  string      `json:"description"`
	Criticality  Criticality `json:"criticality"`
	Status       string      `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
}

// WorkOrderOpen is the status of a freshly generated work order.
const WorkOrderOpen = "open"
