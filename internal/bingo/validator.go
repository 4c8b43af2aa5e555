package bingo

import (
	"errors"

	"bingohall/internal/model"
)

var (
	ErrUncalledNumber = errors.New("marked number was not called")
	ErrNoPattern      = errors.New("marked numbers do not complete a line")
)

// MarkedAreCalled reports whether every non-free marked number is in called.
func MarkedAreCalled(marked []int, called []model.CalledNumber) bool {
	calledSet := make(map[int]bool, len(called))
	for _, c := range called {
		calledSet[c.Number] = true
	}
	for _, n := range marked {
		if n == model.FreeSpace {
			continue
		}
		if !calledSet[n] {
			return false
		}
	}
	return true
}

// HasLine reports whether the marked numbers complete a row, a column or a
// diagonal of the grid. The centre cell counts as marked.
func HasLine(numbers model.CardNumbers, marked []int) bool {
	markedSet := make(map[int]bool, len(marked))
	for _, n := range marked {
		markedSet[n] = true
	}

	cols := numbers.Columns()
	for _, col := range cols {
		if len(col) != 5 {
			return false
		}
	}

	isMarked := func(row, col int) bool {
		if row == 2 && col == 2 {
			return true
		}
		v := cols[col][row]
		return v != model.FreeSpace && markedSet[v]
	}

	line := func(cell func(i int) (int, int)) bool {
		for i := 0; i < 5; i++ {
			if !isMarked(cell(i)) {
				return false
			}
		}
		return true
	}

	for k := 0; k < 5; k++ {
		if line(func(i int) (int, int) { return k, i }) ||
			line(func(i int) (int, int) { return i, k }) {
			return true
		}
	}
	return line(func(i int) (int, int) { return i, i }) ||
		line(func(i int) (int, int) { return i, 4 - i })
}

// ValidateClaim checks a win claim against the called list first and the
// card's grid second. It never mutates its inputs.
func ValidateClaim(card model.Card, marked []int, called []model.CalledNumber) error {
	if !MarkedAreCalled(marked, called) {
		return ErrUncalledNumber
	}
	if !HasLine(card.Numbers, marked) {
		return ErrNoPattern
	}
	return nil
}
