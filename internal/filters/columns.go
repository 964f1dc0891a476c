package filters

// Table views with configurable columns.
const (
	ViewLeads      = "leads"
	ViewActivities = "activities"
	ViewInventory  = "inventory"
	ViewOrders     = "orders"
)

var defaultColumns = map[string][]string{
	ViewLeads: {
		"clientName", "location", "contactPerson", "phone", "email", "budget",
		"requirement", "status", "assignedTo", "nextFollowUp", "createdAt",
	},
	ViewActivities: {"type", "leadId", "startTime", "duration", "outcome", "nextAction", "assignedTo"},
	ViewInventory:  {"name", "type", "location", "zone", "rate", "quantity", "availableQuantity", "status"},
	ViewOrders:     {"clientName", "status", "subtotal", "gstAmount", "total", "createdAt"},
}

// Columns is the visible column set of one view, in display order.
type Columns struct {
	view  string
	order []string
	shown map[string]bool
}

// DefaultColumns returns the default visibility for a view. Unknown views have no columns.
func DefaultColumns(view string) Columns {
	return NewColumns(view, defaultColumns[view])
}

// NewColumns builds a column set from saved preferences. Names outside the
// view's known columns are ignored.
func NewColumns(view string, visible []string) Columns {
	c := Columns{view: view, order: defaultColumns[view], shown: map[string]bool{}}
	for _, name := range visible {
		if c.known(name) {
			c.shown[name] = true
		}
	}
	return c
}

// Visible reports whether the column is shown.
func (c Columns) Visible(name string) bool { return c.shown[name] }

// Toggle flips a column and returns the new set. Unknown names are a no-op.
func (c Columns) Toggle(name string) Columns {
	if !c.known(name) {
		return c
	}
	next := Columns{view: c.view, order: c.order, shown: make(map[string]bool, len(c.shown)+1)}
	for k, v := range c.shown {
		next.shown[k] = v
	}
	next.shown[name] = !c.shown[name]
	return next
}

// List returns the visible column names in display order.
func (c Columns) List() []string {
	out := make([]string, 0, len(c.shown))
	for _, name := range c.order {
		if c.shown[name] {
			out = append(out, name)
		}
	}
	return out
}

// View names the table the set belongs to.
func (c Columns) View() string { return c.view }

// All returns every configurable column of the view in display order.
func (c Columns) All() []string {
	return append([]string(nil), c.order...)
}

func (c Columns) known(name string) bool {
	for _, n := range c.order {
		if n == name {
			return true
		}
	}
	return false
}

// IsView reports whether view has configurable columns.
func IsView(view string) bool {
	_, ok := defaultColumns[view]
	return ok
}
