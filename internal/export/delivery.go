package export

import (
	"github.com/ariel-frischer/vistoria/internal/retry"
	"github.com/ariel-frischer/vistoria/internal/store"
)

// deliveryOperation names report delivery in retry errors.
const deliveryOperation = "report delivery"

// deliveryState counts retries of an export's delivery. The first delivery made during the
// export is not a retry.
func deliveryState(entry *store.ExportLog, maxRetries int) *retry.State {
	return retry.NewState(entry.ID, deliveryOperation, max(entry.Attempts-1, 0), maxRetries)
}
