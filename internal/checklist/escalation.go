package checklist

// NeedsWorkOrder reports whether a corrective action escalates to a work order: always for
// high criticality, and for medium criticality once before-photos document the fault.
// It is a pure predicate, evaluated at creation and again on every update.
func NeedsWorkOrder(a CorrectiveAction) bool {
	if a.Criticality == CriticalityHigh {
		return true
	}
	if len(a.BeforePhotos) > 0 {
		return a.Criticality == CriticalityMedium || a.Criticality == CriticalityHigh
	}
	return false
}
