package registrant

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps registrants in process memory. It honors the same
// transition and search contracts as the Postgres repository and backs unit
// tests and local runs without a database.
type MemoryStore struct {
	mu   sync.Mutex
	rows map[int64]*Registrant
	now  func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows: make(map[int64]*Registrant),
		now:  time.Now,
	}
}

// Add inserts or replaces a registrant.
func (s *MemoryStore) Add(r Registrant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := r
	s.rows[r.ID] = &cp
}

// Get returns a copy of the registrant, if present.
func (s *MemoryStore) Get(id int64) (Registrant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok {
		return Registrant{}, false
	}
	return *r, true
}

// Transition applies an attendance action to every id or to none, under the
// same preconditions the Postgres repository enforces in SQL.
func (s *MemoryStore) Transition(ctx context.Context, action Action, ids []int64) error {
	if action != ActionEnter && action != ActionExit {
		return &TransitionError{Action: action, BadAction: true}
	}
	if len(ids) == 0 {
		return &TransitionError{Action: action, EmptyIDs: true}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var missing, conflicts []int64
	for _, id := range ids {
		r, ok := s.rows[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		switch action {
		case ActionEnter:
			if r.Status() == StatusInside {
				conflicts = append(conflicts, id)
			}
		case ActionExit:
			if r.Status() == StatusOutside {
				conflicts = append(conflicts, id)
			}
		}
	}
	if len(missing) > 0 {
		return &TransitionError{Action: action, Missing: missing}
	}
	if len(conflicts) > 0 {
		return &TransitionError{Action: action, Conflicts: conflicts}
	}

	ts := s.now()
	for _, id := range ids {
		r := s.rows[id]
		switch action {
		case ActionEnter:
			at := ts
			r.EnteredAt = &at
			r.LeftAt = nil
		case ActionExit:
			at := ts
			r.LeftAt = &at
			r.EnteredAt = nil
		}
		r.UpdatedAt = ts
	}
	return nil
}

// Search mirrors the repository's filter semantics: an all-integer token is
// exact id membership, otherwise a case-insensitive substring over
// name/church/district, with the church filter ANDed in.
func (s *MemoryStore) Search(ctx context.Context, p SearchParams) (SearchResult, error) {
	if p.Page < 1 {
		p.Page = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	token := strings.TrimSpace(p.Query)
	idSet := map[int64]bool{}
	byID := false
	if token != "" {
		if ids, ok := ParseIDList(token); ok {
			byID = true
			for _, id := range ids {
				idSet[id] = true
			}
		}
	}

	var matched []Registrant
	for _, r := range s.rows {
		if token != "" {
			if byID {
				if !idSet[r.ID] {
					continue
				}
			} else if !foldContains(r.Name, token) &&
				!foldContains(r.Church, token) &&
				!foldContains(r.District, token) {
				continue
			}
		}
		if p.Church != "" && r.Church != p.Church {
			continue
		}
		matched = append(matched, *r)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].District != matched[j].District {
			return matched[i].District < matched[j].District
		}
		if matched[i].Church != matched[j].Church {
			return matched[i].Church < matched[j].Church
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	start := (p.Page - 1) * PageSize
	if start > total {
		start = total
	}
	end := start + PageSize
	if end > total {
		end = total
	}

	return SearchResult{
		Rows:      append([]Registrant{}, matched[start:end]...),
		Total:     total,
		Page:      p.Page,
		PageCount: (total + PageSize - 1) / PageSize,
	}, nil
}

func foldContains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
