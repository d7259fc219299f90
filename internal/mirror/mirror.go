// Package mirror maintains an external bookkeeping sheet of paid orders.
// All mirror traffic is best-effort: callers log failures and move on,
// the order store remains the source of truth.
package mirror

import "context"

// Row is one bookkeeping line, appended when payment is accepted.
type Row struct {
	OrderID       int64
	ClientName    string
	Phone         string
	Group         string
	ExecutorID    string
	Subject       string
	CreatedAt     string
	DueDate       string
	ExecutorPrice int
	FinalPrice    int
	Profit        int
	Status        string
}

// Mirror is the external sheet. MaxOrderID feeds ID assignment:
// new ids are max(local, mirror)+1 so the sheet and the store never
// hand out the same number.
type Mirror interface {
	Append(ctx context.Context, row Row) error
	UpdateStatus(ctx context.Context, orderID int64, status string) error
	Delete(ctx context.Context, orderID int64) error
	MaxOrderID(ctx context.Context) (int64, error)
}

// Noop is used when no mirror is configured.
type Noop struct{}

func (Noop) Append(ctx context.Context, row Row) error                        { return nil }
func (Noop) UpdateStatus(ctx context.Context, orderID int64, st string) error { return nil }
func (Noop) Delete(ctx context.Context, orderID int64) error                  { return nil }
func (Noop) MaxOrderID(ctx context.Context) (int64, error)                    { return 0, nil }
