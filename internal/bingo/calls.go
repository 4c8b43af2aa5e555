// Package bingo holds the pure rules of a 75-ball bingo round: the call
// universe, the card catalog and claim validation.
package bingo

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"bingohall/internal/model"
)

const (
	// MaxBallValue is the highest callable number.
	MaxBallValue = 75

	// ColumnSpan is how many numbers each letter column covers.
	ColumnSpan = 15
)

// Letters are the column letters in grid order.
var Letters = [5]string{"B", "I", "N", "G", "O"}

var ErrNumberOutOfRange = errors.New("number out of range")

// LetterFor returns the column letter implied by n.
func LetterFor(n int) (string, error) {
	if n < 1 || n > MaxBallValue {
		return "", fmt.Errorf("%w: %d", ErrNumberOutOfRange, n)
	}
	return Letters[(n-1)/ColumnSpan], nil
}

// NewCall builds the call for n.
func NewCall(n int) (model.CalledNumber, error) {
	letter, err := LetterFor(n)
	if err != nil {
		return model.CalledNumber{}, err
	}
	return model.CalledNumber{
		Letter: letter,
		Number: n,
		Voice:  fmt.Sprintf("%s-%d", letter, n),
	}, nil
}

// NumberPool returns the 75 calls in ascending order.
func NumberPool() []model.CalledNumber {
	pool := make([]model.CalledNumber, 0, MaxBallValue)
	for n := 1; n <= MaxBallValue; n++ {
		call, _ := NewCall(n)
		pool = append(pool, call)
	}
	return pool
}

// Shuffler produces permutations of the number pool. A *rand.Rand is not
// safe for concurrent use, hence the mutex.
type Shuffler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewShuffler creates a shuffler seeded with seed.
func NewShuffler(seed int64) *Shuffler {
	return &Shuffler{rng: rand.New(rand.NewSource(seed))}
}

// NewTimeSeededShuffler creates a shuffler seeded from the clock.
func NewTimeSeededShuffler() *Shuffler {
	return NewShuffler(time.Now().UnixNano())
}

// Shuffle returns a fresh random call order for one round.
func (s *Shuffler) Shuffle() []model.CalledNumber {
	calls := NumberPool()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng.Shuffle(len(calls), func(i, j int) { calls[i], calls[j] = calls[j], calls[i] })
	return calls
}
