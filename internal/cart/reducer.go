package cart

import (
	"time"

	"github.com/dishly/dishly/internal/model"
)

type actionKind int

const (
	actionAdd actionKind = iota
	actionRemove
	actionSetQuantity
	actionPrune
	actionClear
)

type action struct {
	kind  actionKind
	line  model.CartLine // actionAdd
	id    string         // actionRemove, actionSetQuantity
	qty   int            // actionSetQuantity
	today time.Weekday   // actionPrune
}

// apply is the pure cart reducer: old lines + action -> new lines. It never
// touches storage and reports whether anything changed.
func apply(lines []model.CartLine, a action) ([]model.CartLine, bool) {
	switch a.kind {
	case actionAdd:
		// re-adding replaces the old line, resetting quantity to 1
		out := make([]model.CartLine, 0, len(lines)+1)
		for _, l := range lines {
			if l.ProductID != a.line.ProductID {
				out = append(out, l)
			}
		}
		return append(out, a.line), true

	case actionRemove:
		out := lines[:0:0]
		for _, l := range lines {
			if l.ProductID != a.id {
				out = append(out, l)
			}
		}
		return out, len(out) != len(lines)

	case actionSetQuantity:
		if a.qty <= 0 {
			return apply(lines, action{kind: actionRemove, id: a.id})
		}
		out := append([]model.CartLine(nil), lines...)
		changed := false
		for i := range out {
			if out[i].ProductID == a.id && out[i].Quantity != a.qty {
				out[i].Quantity = a.qty
				changed = true
			}
		}
		return out, changed

	case actionPrune:
		out := lines[:0:0]
		for _, l := range lines {
			if model.SameDay(l.Day, a.today) {
				out = append(out, l)
			}
		}
		return out, len(out) != len(lines)

	case actionClear:
		return nil, len(lines) > 0
	}
	return lines, false
}

func total(lines []model.CartLine) float64 {
	var sum float64
	for _, l := range lines {
		sum += l.Subtotal()
	}
	return sum
}

func staleCount(lines []model.CartLine, today time.Weekday) int {
	n := 0
	for _, l := range lines {
		if !model.SameDay(l.Day, today) {
			n++
		}
	}
	return n
}
