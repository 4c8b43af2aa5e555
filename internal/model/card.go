package model

import "slices"

// FreeSpace marks the centre cell of the N column.
const FreeSpace = 0

// CardNumbers holds the five grid columns of a card, top to bottom.
type CardNumbers struct {
	B []int `json:"B" bson:"B"`
	I []int `json:"I" bson:"I"`
	N []int `json:"N" bson:"N"`
	G []int `json:"G" bson:"G"`
	O []int `json:"O" bson:"O"`
}

// Columns returns the columns in B, I, N, G, O order.
func (n CardNumbers) Columns() [5][]int {
	return [5][]int{n.B, n.I, n.N, n.G, n.O}
}

// Card is one of the reservable cards of a session.
// Reserved is true exactly when ReservedBy is non-empty.
type Card struct {
	Number     int         `json:"number" bson:"number"`
	Numbers    CardNumbers `json:"numbers" bson:"numbers"`
	Reserved   bool        `json:"reserved" bson:"reserved"`
	ReservedBy string      `json:"reservedBy" bson:"reservedBy"`
}

func (c Card) Clone() Card {
	c.Numbers = CardNumbers{
		B: slices.Clone(c.Numbers.B),
		I: slices.Clone(c.Numbers.I),
		N: slices.Clone(c.Numbers.N),
		G: slices.Clone(c.Numbers.G),
		O: slices.Clone(c.Numbers.O),
	}
	return c
}

// CalledNumber is one announced call, e.g. {"B", 12, "B-12"}.
type CalledNumber struct {
	Letter string `json:"letter" bson:"letter"`
	Number int    `json:"number" bson:"number"`
	Voice  string `json:"voice" bson:"voice"`
}
