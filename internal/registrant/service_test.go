package registrant

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	for input, want := range map[string]Action{
		"enter": ActionEnter,
		"exit":  ActionExit,
		"ENTER": ActionEnter,
		" exit": ActionExit,
	} {
		act, ok := ParseAction(input)
		require.True(t, ok, input)
		assert.Equal(t, want, act)
	}

	for _, input := range []string{"", "entr", "leave", "enter exit"} {
		_, ok := ParseAction(input)
		assert.False(t, ok, input)
	}
}

func TestValidateTransition(t *testing.T) {
	t.Run("bad action", func(t *testing.T) {
		_, _, err := ValidateTransition("teleport", []int64{1})
		require.NotNil(t, err)
		assert.True(t, err.BadAction)
	})

	t.Run("empty ids", func(t *testing.T) {
		_, _, err := ValidateTransition("enter", nil)
		require.NotNil(t, err)
		assert.True(t, err.EmptyIDs)
	})

	t.Run("dedups ids", func(t *testing.T) {
		act, ids, err := ValidateTransition("exit", []int64{2, 2, 1})
		require.Nil(t, err)
		assert.Equal(t, ActionExit, act)
		assert.Equal(t, []int64{2, 1}, ids)
	})
}

func TestTransitionErrorMessages(t *testing.T) {
	assert.Contains(t, (&TransitionError{Action: "foo", BadAction: true}).Error(), "foo")
	assert.Contains(t, (&TransitionError{Action: ActionEnter, Missing: []int64{3, 9}}).Error(), "[3 9]")
	assert.Contains(t, (&TransitionError{Action: ActionExit, Conflicts: []int64{5}}).Error(), "[5]")
}

func TestRegistrantStatus(t *testing.T) {
	now := time.Now()
	earlier := now.Add(-time.Hour)

	tests := []struct {
		name    string
		entered *time.Time
		left    *time.Time
		want    Status
	}{
		{"never arrived", nil, nil, StatusOutside},
		{"currently inside", &earlier, nil, StatusInside},
		{"completed a visit", nil, &now, StatusOutside},
		{"both set from old data", &earlier, &now, StatusOutside},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Registrant{EnteredAt: tt.entered, LeftAt: tt.left}
			assert.Equal(t, tt.want, r.Status())
		})
	}
}

func TestBuildFilter(t *testing.T) {
	t.Run("no filters", func(t *testing.T) {
		where, args := buildFilter(SearchParams{})
		assert.Empty(t, where)
		assert.Empty(t, args)
	})

	t.Run("id list token", func(t *testing.T) {
		where, args := buildFilter(SearchParams{Query: "1, 2"})
		assert.Equal(t, " WHERE id IN ($1,$2)", where)
		assert.Equal(t, []any{int64(1), int64(2)}, args)
	})

	t.Run("free text", func(t *testing.T) {
		where, args := buildFilter(SearchParams{Query: "central"})
		assert.Equal(t, " WHERE (name ILIKE $1 OR church ILIKE $2 OR district ILIKE $3)", where)
		assert.Equal(t, []any{"%central%", "%central%", "%central%"}, args)
	})

	t.Run("bare integer also matches id exactly", func(t *testing.T) {
		where, args := buildFilter(SearchParams{Query: "42"})
		// an all-integer token short-circuits to id membership
		assert.Equal(t, " WHERE id IN ($1)", where)
		assert.Equal(t, []any{int64(42)}, args)
	})

	t.Run("church filter is ANDed", func(t *testing.T) {
		where, args := buildFilter(SearchParams{Query: "ana", Church: "Central"})
		assert.Equal(t, " WHERE (name ILIKE $1 OR church ILIKE $2 OR district ILIKE $3) AND church = $4", where)
		assert.Equal(t, []any{"%ana%", "%ana%", "%ana%", "Central"}, args)
	})

	t.Run("church filter alone", func(t *testing.T) {
		where, args := buildFilter(SearchParams{Church: "Central"})
		assert.Equal(t, " WHERE church = $1", where)
		assert.Equal(t, []any{"Central"}, args)
	})
}
