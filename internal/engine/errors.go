package engine

import (
	"errors"
	"fmt"

	"orderline/internal/domain"
)

// ErrNotFound covers missing orders, offers and other referenced
// entities. Actions on entities that vanished concurrently report it
// instead of changing state.
var ErrNotFound = errors.New("not found")

// InvalidTransitionError reports an action illegal for the order's
// current status. No state change accompanies it.
type InvalidTransitionError struct {
	OrderID int64
	Status  domain.Status
	Action  string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("order %d: action %s not available in status %s", e.OrderID, e.Action, e.Status)
}

// ValidationError reports malformed actor input. State is unchanged and
// the actor may retry.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalidf(orderID int64, status domain.Status, action string) error {
	return &InvalidTransitionError{OrderID: orderID, Status: status, Action: action}
}

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}
