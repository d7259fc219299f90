package domain

// Status is an order's lifecycle state. Every action the engine exposes
// is legal only from specific statuses.
type Status string

const (
	StatusEditing                   Status = "editing"
	StatusUnderReview               Status = "under_review"
	StatusAwaitingExecutor          Status = "awaiting_executor"
	StatusAwaitingExecutorBroadcast Status = "awaiting_executor_broadcast"
	StatusAwaitingPayment           Status = "awaiting_payment"
	StatusInProgress                Status = "in_progress"
	StatusSubmittedForReview        Status = "submitted_for_review"
	StatusNeedsRevision             Status = "needs_revision"
	StatusApproved                  Status = "approved"
	StatusCompleted                 Status = "completed"
	StatusCancelled                 Status = "cancelled"
)

var allStatuses = []Status{
	StatusEditing,
	StatusUnderReview,
	StatusAwaitingExecutor,
	StatusAwaitingExecutorBroadcast,
	StatusAwaitingPayment,
	StatusInProgress,
	StatusSubmittedForReview,
	StatusNeedsRevision,
	StatusApproved,
	StatusCompleted,
	StatusCancelled,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, v := range allStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions leave s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Negotiating reports whether the order is collecting executor offers.
func (s Status) Negotiating() bool {
	return s == StatusAwaitingExecutor || s == StatusAwaitingExecutorBroadcast
}
