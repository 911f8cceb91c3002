package registrant

import (
	"strconv"
	"strings"
)

// idSeparator reports whether r separates ids inside a free-text token.
func idSeparator(r rune) bool {
	switch r {
	case ',', ' ', ';', '|', '\t':
		return true
	}
	return false
}

// ParseIDList splits a free-text token on comma/space/semicolon/pipe and, if
// every piece is an integer, returns the deduplicated id list. ok is false
// when the token is empty or any piece is not a bare integer, in which case
// the caller should fall back to substring matching.
func ParseIDList(token string) (ids []int64, ok bool) {
	parts := strings.FieldsFunc(token, idSeparator)
	if len(parts) == 0 {
		return nil, false
	}
	seen := make(map[int64]bool, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, false
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, true
}

// DedupIDs removes duplicates while preserving order. Transition requests
// and explicit badge id lists are deduplicated before they hit SQL so
// rows-affected comparisons stay meaningful.
func DedupIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
