package service_test

import (
	"context"
	"testing"

	"bingohall/internal/model"
	"bingohall/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReservation_HandOver(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	s, err := h.game.Join(ctx, alice, 10)
	require.NoError(t, err)
	updates := len(h.rec.ofType(service.EventSessionUpdate))

	require.NoError(t, h.cards.Reserve(ctx, carol.ID, s.ID, 42))
	assert.Equal(t, carol.ID, h.session(t, s.ID).Card(42).ReservedBy)
	assert.Len(t, h.rec.ofType(service.EventSessionUpdate), updates+1)

	err = h.cards.Reserve(ctx, bob.ID, s.ID, 42)
	assert.ErrorIs(t, err, service.ErrCardUnavailable)
	assert.True(t, service.IsSilent(err))
	assert.Equal(t, carol.ID, h.session(t, s.ID).Card(42).ReservedBy)
	assert.Len(t, h.rec.ofType(service.EventSessionUpdate), updates+1, "failures are not broadcast")

	assert.ErrorIs(t, h.cards.Unreserve(ctx, bob.ID, s.ID, 42), service.ErrNotCardOwner)
	assert.Equal(t, carol.ID, h.session(t, s.ID).Card(42).ReservedBy)

	require.NoError(t, h.cards.Unreserve(ctx, carol.ID, s.ID, 42))
	require.NoError(t, h.cards.Reserve(ctx, bob.ID, s.ID, 42))

	card := h.session(t, s.ID).Card(42)
	assert.True(t, card.Reserved)
	assert.Equal(t, bob.ID, card.ReservedBy)
}

func TestReservation_Idempotent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	s, err := h.game.Join(ctx, alice, 10)
	require.NoError(t, err)

	require.NoError(t, h.cards.Reserve(ctx, alice.ID, s.ID, 7))
	require.NoError(t, h.cards.Reserve(ctx, alice.ID, s.ID, 7))
	assert.Equal(t, alice.ID, h.session(t, s.ID).Card(7).ReservedBy)
}

func TestReservation_ManyIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	s, err := h.game.Join(ctx, alice, 10)
	require.NoError(t, err)
	require.NoError(t, h.cards.Reserve(ctx, bob.ID, s.ID, 3))

	err = h.cards.ReserveMany(ctx, alice.ID, s.ID, []int{1, 2, 3})
	assert.ErrorIs(t, err, service.ErrCardUnavailable)

	got := h.session(t, s.ID)
	assert.False(t, got.Card(1).Reserved)
	assert.False(t, got.Card(2).Reserved)
	assert.Equal(t, bob.ID, got.Card(3).ReservedBy)

	require.NoError(t, h.cards.ReserveMany(ctx, alice.ID, s.ID, []int{1, 2}))
	assert.ErrorIs(t, h.cards.UnreserveMany(ctx, alice.ID, s.ID, []int{1, 3}), service.ErrNotCardOwner)
	assert.True(t, h.session(t, s.ID).Card(1).Reserved)

	require.NoError(t, h.cards.UnreserveMany(ctx, alice.ID, s.ID, []int{1, 2}))
	got = h.session(t, s.ID)
	for _, n := range []int{1, 2} {
		assert.False(t, got.Card(n).Reserved)
		assert.Empty(t, got.Card(n).ReservedBy)
	}
}

func TestReservation_NotFound(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	assert.ErrorIs(t, h.cards.Reserve(ctx, alice.ID, "missing", 1), service.ErrSessionNotFound)

	s, err := h.game.Join(ctx, alice, 10)
	require.NoError(t, err)
	assert.ErrorIs(t, h.cards.Reserve(ctx, alice.ID, s.ID, 101), service.ErrCardNotFound)
	assert.ErrorIs(t, h.cards.ReserveMany(ctx, alice.ID, s.ID, nil), service.ErrCardNotFound)
}

func TestReservation_LockedDuringRound(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	s, err := h.game.Join(ctx, alice, 10)
	require.NoError(t, err)
	h.runCountdown(t, s.ID, alice)

	err = h.cards.Reserve(ctx, alice.ID, s.ID, 1)
	assert.ErrorIs(t, err, service.ErrInvalidState)
	assert.True(t, service.IsRejected(err))
	assert.Equal(t, model.SessionOngoing, h.session(t, s.ID).Status)
}
