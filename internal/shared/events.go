package shared

import "context"

// ChangeKind names the data set a mutation touched.
type ChangeKind string

const (
	ChangeStock    ChangeKind = "stock"
	ChangeSales    ChangeKind = "sales"
	ChangePurchase ChangeKind = "purchase"
	ChangeExpense  ChangeKind = "expense"
	ChangeCatalog  ChangeKind = "catalog"
)

// ChangeEvent is published after a unit of work commits.
type ChangeEvent struct {
	Kind     ChangeKind
	EntityID string
}

// ChangeNotifier receives committed changes. Implementations must not fail the caller.
type ChangeNotifier interface {
	NotifyChange(ctx context.Context, evt ChangeEvent)
}

// ChangeNotifierFunc adapts a function to ChangeNotifier.
type ChangeNotifierFunc func(ctx context.Context, evt ChangeEvent)

// NotifyChange calls f.
func (f ChangeNotifierFunc) NotifyChange(ctx context.Context, evt ChangeEvent) {
	f(ctx, evt)
}

// Notifiers fans an event out to every non-nil notifier.
type Notifiers []ChangeNotifier

// NotifyChange forwards evt to each notifier in order.
func (n Notifiers) NotifyChange(ctx context.Context, evt ChangeEvent) {
	for _, notifier := range n {
		if notifier != nil {
			notifier.NotifyChange(ctx, evt)
		}
	}
}
