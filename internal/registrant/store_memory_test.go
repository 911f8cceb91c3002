package registrant

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededStore(rows ...Registrant) *MemoryStore {
	s := NewMemoryStore()
	for _, r := range rows {
		s.Add(r)
	}
	return s
}

func inside(id int64, enteredAt time.Time) Registrant {
	return Registrant{ID: id, Name: "n", District: "d", Church: "c", EnteredAt: &enteredAt}
}

func outside(id int64) Registrant {
	return Registrant{ID: id, Name: "n", District: "d", Church: "c"}
}

func TestEnterRejectsInsideIDWithoutMutation(t *testing.T) {
	t0 := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	store := seededStore(outside(1), inside(2, t0))
	svc := NewService(store)

	err := svc.Transition(context.Background(), "enter", []int64{1, 2})

	var terr *TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, []int64{2}, terr.Conflicts)

	// the valid id must not have moved either
	r1, _ := store.Get(1)
	assert.Equal(t, StatusOutside, r1.Status())
	assert.Nil(t, r1.EnteredAt)
	r2, _ := store.Get(2)
	require.NotNil(t, r2.EnteredAt)
	assert.True(t, r2.EnteredAt.Equal(t0))
}

func TestExitRejectsOutsideIDWithoutMutation(t *testing.T) {
	t0 := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	store := seededStore(inside(1, t0), outside(2))
	svc := NewService(store)

	err := svc.Transition(context.Background(), "exit", []int64{1, 2})

	var terr *TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, []int64{2}, terr.Conflicts)

	r1, _ := store.Get(1)
	assert.Equal(t, StatusInside, r1.Status())
	assert.Nil(t, r1.LeftAt)
}

func TestTransitionRejectsUnknownID(t *testing.T) {
	store := seededStore(outside(1))
	svc := NewService(store)

	err := svc.Transition(context.Background(), "enter", []int64{1, 9})

	var terr *TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, []int64{9}, terr.Missing)

	r1, _ := store.Get(1)
	assert.Equal(t, StatusOutside, r1.Status())
}

func TestAttendanceCycleTimestampsIncrease(t *testing.T) {
	store := seededStore(outside(7))
	clock := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	svc := NewService(store)
	ctx := context.Background()

	require.NoError(t, svc.Transition(ctx, "enter", []int64{7}))
	r, _ := store.Get(7)
	require.Equal(t, StatusInside, r.Status())
	require.NotNil(t, r.EnteredAt)
	firstEnter := *r.EnteredAt

	require.NoError(t, svc.Transition(ctx, "exit", []int64{7}))
	r, _ = store.Get(7)
	require.Equal(t, StatusOutside, r.Status())
	require.NotNil(t, r.LeftAt)
	assert.Nil(t, r.EnteredAt)
	firstLeave := *r.LeftAt
	assert.True(t, firstLeave.After(firstEnter))

	require.NoError(t, svc.Transition(ctx, "enter", []int64{7}))
	r, _ = store.Get(7)
	require.Equal(t, StatusInside, r.Status())
	require.NotNil(t, r.EnteredAt)
	assert.Nil(t, r.LeftAt)
	assert.True(t, r.EnteredAt.After(firstLeave))
}

func TestEnterIsInvalidTwiceInARow(t *testing.T) {
	store := seededStore(outside(3))
	svc := NewService(store)
	ctx := context.Background()

	require.NoError(t, svc.Transition(ctx, "enter", []int64{3}))
	err := svc.Transition(ctx, "enter", []int64{3})

	var terr *TransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, []int64{3}, terr.Conflicts)
}

func TestMemorySearchExactIDReturnsOnce(t *testing.T) {
	store := seededStore(
		Registrant{ID: 1, Name: "Ana", District: "norte", Church: "central"},
		Registrant{ID: 2, Name: "Beto", District: "sur", Church: "peniel"},
		Registrant{ID: 3, Name: "Caro", District: "norte", Church: "betel"},
	)

	res, err := store.Search(context.Background(), SearchParams{Query: "2"})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.EqualValues(t, 2, res.Rows[0].ID)
	assert.Equal(t, 1, res.Total)
}

func TestMemorySearchOrdersByDistrictChurchID(t *testing.T) {
	store := seededStore(
		Registrant{ID: 5, Name: "e", District: "sur", Church: "peniel"},
		Registrant{ID: 1, Name: "a", District: "norte", Church: "central"},
		Registrant{ID: 3, Name: "c", District: "norte", Church: "betel"},
	)

	res, err := store.Search(context.Background(), SearchParams{})
	require.NoError(t, err)
	require.Len(t, res.Rows, 3)
	got := []int64{res.Rows[0].ID, res.Rows[1].ID, res.Rows[2].ID}
	assert.Equal(t, []int64{3, 1, 5}, got)
}

func TestMemorySearchChurchFilter(t *testing.T) {
	store := seededStore(
		Registrant{ID: 1, Name: "Ana Perez", District: "norte", Church: "central"},
		Registrant{ID: 2, Name: "Ana Gomez", District: "norte", Church: "betel"},
	)

	res, err := store.Search(context.Background(), SearchParams{Query: "ana", Church: "betel"})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.EqualValues(t, 2, res.Rows[0].ID)
}

func TestMemoryTransitionBadActionAndEmptyIDs(t *testing.T) {
	store := seededStore(outside(1))

	var terr *TransitionError
	err := store.Transition(context.Background(), Action("teleport"), []int64{1})
	require.True(t, errors.As(err, &terr))
	assert.True(t, terr.BadAction)

	err = store.Transition(context.Background(), ActionEnter, nil)
	require.True(t, errors.As(err, &terr))
	assert.True(t, terr.EmptyIDs)
}
