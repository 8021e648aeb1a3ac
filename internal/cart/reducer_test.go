package cart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dishly/dishly/internal/model"
)

func line(id string, day string, price float64, qty int) model.CartLine {
	return model.CartLine{ProductID: id, Title: "dish-" + id, Day: day, UnitPrice: price, Quantity: qty}
}

func TestApply_AddKeepsOneLinePerID(t *testing.T) {
	t.Parallel()

	lines, changed := apply(nil, action{kind: actionAdd, line: line("A", "Monday", 10, 1)})
	assert.True(t, changed)
	lines, _ = apply(lines, action{kind: actionAdd, line: line("B", "Monday", 5, 1)})
	lines, _ = apply(lines, action{kind: actionSetQuantity, id: "A", qty: 9})

	// re-add moves A to the end with quantity 1
	lines, changed = apply(lines, action{kind: actionAdd, line: line("A", "Monday", 10, 1)})
	assert.True(t, changed)
	assert.Equal(t, []model.CartLine{
		line("B", "Monday", 5, 1),
		line("A", "Monday", 10, 1),
	}, lines)
}

func TestApply_SetQuantityUnknownID(t *testing.T) {
	t.Parallel()

	start := []model.CartLine{line("A", "Monday", 10, 1)}
	lines, changed := apply(start, action{kind: actionSetQuantity, id: "ghost", qty: 3})
	assert.False(t, changed)
	assert.Equal(t, start, lines)
}

func TestApply_Prune(t *testing.T) {
	t.Parallel()

	start := []model.CartLine{
		line("A", "Monday", 10, 1),
		line("B", "Tuesday", 5, 2),
		line("C", "", 5, 2),
	}
	lines, changed := apply(start, action{kind: actionPrune, today: time.Monday})
	assert.True(t, changed)
	assert.Equal(t, []model.CartLine{line("A", "Monday", 10, 1)}, lines)

	same, changed := apply(lines, action{kind: actionPrune, today: time.Monday})
	assert.False(t, changed)
	assert.Equal(t, lines, same)
}

func TestApply_Clear(t *testing.T) {
	t.Parallel()

	lines, changed := apply([]model.CartLine{line("A", "Monday", 10, 1)}, action{kind: actionClear})
	assert.True(t, changed)
	assert.Empty(t, lines)

	_, changed = apply(nil, action{kind: actionClear})
	assert.False(t, changed)
}

func TestStaleCount(t *testing.T) {
	t.Parallel()

	lines := []model.CartLine{
		line("A", "Monday", 10, 1),
		line("B", "Tuesday", 5, 2),
	}
	assert.Equal(t, 1, staleCount(lines, time.Monday))
	assert.Equal(t, 2, staleCount(lines, time.Sunday))
	assert.Zero(t, staleCount(nil, time.Monday))
}
