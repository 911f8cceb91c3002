package registrant

import (
	"context"
	"fmt"
	"strings"
)

// Action is a requested attendance transition.
type Action string

const (
	// ActionEnter starts a fresh attendance cycle.
	ActionEnter Action = "enter"
	// ActionExit ends the current cycle.
	ActionExit Action = "exit"
)

// ParseAction normalizes an action string.
func ParseAction(s string) (Action, bool) {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case ActionEnter:
		return ActionEnter, true
	case ActionExit:
		return ActionExit, true
	}
	return "", false
}

// TransitionError rejects a whole transition batch. Exactly one of the
// fields is populated; no mutation happened when it is returned.
type TransitionError struct {
	Action    Action
	BadAction bool
	EmptyIDs  bool
	Missing   []int64 // ids not present in the store
	Conflicts []int64 // ids whose current state forbids the action
}

func (e *TransitionError) Error() string {
	switch {
	case e.BadAction:
		return fmt.Sprintf("unknown action %q", string(e.Action))
	case e.EmptyIDs:
		return "no registrant ids given"
	case len(e.Missing) > 0:
		return fmt.Sprintf("%s rejected: unknown ids %v", e.Action, e.Missing)
	default:
		return fmt.Sprintf("%s rejected: ids %v are not in a valid state", e.Action, e.Conflicts)
	}
}

// Store is the persistence surface the service needs. The Postgres
// repository implements it for real deployments, the memory store for tests.
type Store interface {
	Transition(ctx context.Context, action Action, ids []int64) error
	Search(ctx context.Context, p SearchParams) (SearchResult, error)
}

// Service coordinates roster queries and attendance transitions.
type Service struct {
	store Store
}

// NewService creates a service backed by a store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// ValidateTransition checks the request shape before any store access.
// It returns the normalized action and the deduplicated id list.
func ValidateTransition(action string, ids []int64) (Action, []int64, *TransitionError) {
	act, ok := ParseAction(action)
	if !ok {
		return "", nil, &TransitionError{Action: Action(action), BadAction: true}
	}
	ids = DedupIDs(ids)
	if len(ids) == 0 {
		return "", nil, &TransitionError{Action: act, EmptyIDs: true}
	}
	return act, ids, nil
}

// Transition validates and applies an attendance action to all ids
// atomically. Any invalid id rejects the whole batch with no mutation.
func (s *Service) Transition(ctx context.Context, action string, ids []int64) error {
	act, ids, verr := ValidateTransition(action, ids)
	if verr != nil {
		return verr
	}
	return s.store.Transition(ctx, act, ids)
}

// Search serves the interactive roster view.
func (s *Service) Search(ctx context.Context, p SearchParams) (SearchResult, error) {
	return s.store.Search(ctx, p)
}
