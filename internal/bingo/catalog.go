package bingo

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"

	"bingohall/internal/model"
)

// CatalogSize is the number of reservable cards in every session.
const CatalogSize = 100

var ErrInvalidCatalog = errors.New("invalid card catalog")

// Catalog is the fixed set of pre-generated cards that every session copies.
type Catalog struct {
	cards []model.Card
}

// DefaultCatalog generates the standard 100 cards. Card k is drawn from a
// source seeded with k, so every process builds the same catalog.
func DefaultCatalog() *Catalog {
	cards := make([]model.Card, 0, CatalogSize)
	for number := 1; number <= CatalogSize; number++ {
		cards = append(cards, generateCard(number))
	}
	return &Catalog{cards: cards}
}

func generateCard(number int) model.Card {
	rng := rand.New(rand.NewSource(int64(number)))

	var cols [5][]int
	for col := range cols {
		low := col*ColumnSpan + 1
		perm := rng.Perm(ColumnSpan)
		values := make([]int, 5)
		for row := range values {
			values[row] = low + perm[row]
		}
		cols[col] = values
	}
	cols[2][2] = model.FreeSpace

	return model.Card{
		Number: number,
		Numbers: model.CardNumbers{
			B: cols[0], I: cols[1], N: cols[2], G: cols[3], O: cols[4],
		},
	}
}

// LoadCatalog reads a catalog from a JSON file holding an array of cards.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read card catalog: %w", err)
	}

	var cards []model.Card
	if err := json.Unmarshal(data, &cards); err != nil {
		return nil, fmt.Errorf("failed to unmarshal card catalog: %w", err)
	}

	for i := range cards {
		cards[i].Reserved = false
		cards[i].ReservedBy = ""
	}
	if err := validateCatalog(cards); err != nil {
		return nil, err
	}
	return &Catalog{cards: cards}, nil
}

func validateCatalog(cards []model.Card) error {
	if len(cards) != CatalogSize {
		return fmt.Errorf("%w: want %d cards, got %d", ErrInvalidCatalog, CatalogSize, len(cards))
	}

	seen := make(map[int]bool, len(cards))
	for _, card := range cards {
		if card.Number < 1 || card.Number > CatalogSize || seen[card.Number] {
			return fmt.Errorf("%w: bad or duplicate card number %d", ErrInvalidCatalog, card.Number)
		}
		seen[card.Number] = true

		for col, values := range card.Numbers.Columns() {
			if len(values) != 5 {
				return fmt.Errorf("%w: card %d column %s has %d cells", ErrInvalidCatalog, card.Number, Letters[col], len(values))
			}
			low, high := col*ColumnSpan+1, (col+1)*ColumnSpan
			used := make(map[int]bool, 5)
			for row, v := range values {
				if col == 2 && row == 2 {
					if v != model.FreeSpace {
						return fmt.Errorf("%w: card %d centre is not free", ErrInvalidCatalog, card.Number)
					}
					continue
				}
				if v < low || v > high || used[v] {
					return fmt.Errorf("%w: card %d has bad %s value %d", ErrInvalidCatalog, card.Number, Letters[col], v)
				}
				used[v] = true
			}
		}
	}
	return nil
}

// Cards returns a copy of the catalog for read-only listing.
func (c *Catalog) Cards() []model.Card {
	return c.NewCardSet()
}

// NewCardSet returns a fresh, unreserved copy of every card for a new session.
func (c *Catalog) NewCardSet() []model.Card {
	out := make([]model.Card, len(c.cards))
	for i, card := range c.cards {
		out[i] = card.Clone()
		out[i].Reserved = false
		out[i].ReservedBy = ""
	}
	return out
}
