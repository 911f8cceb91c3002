package registrant

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PageSize is the fixed page size for roster browsing.
const PageSize = 50

// Repository persists registrant data in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// SearchParams filter the roster listing.
type SearchParams struct {
	Query  string
	Church string
	Page   int
}

// SearchResult is one page of the roster plus pagination metadata.
type SearchResult struct {
	Rows      []Registrant `json:"rows"`
	Total     int          `json:"total"`
	Page      int          `json:"page"`
	PageCount int          `json:"page_count"`
}

const registrantColumns = `id, name, district, church, meal, director, phone, email, entered_at, left_at, created_at, updated_at`

func scanRegistrant(row interface{ Scan(...any) error }) (Registrant, error) {
	var r Registrant
	err := row.Scan(&r.ID, &r.Name, &r.District, &r.Church, &r.Meal, &r.Director,
		&r.Phone, &r.Email, &r.EnteredAt, &r.LeftAt, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

// buildFilter translates search params into a WHERE fragment and its args.
// An all-integer token becomes an exact id-membership match, which also
// covers the bare single-id case; otherwise the token matches
// name/church/district as a case-insensitive substring.
func buildFilter(p SearchParams) (string, []any) {
	clauses := []string{}
	args := []any{}

	token := strings.TrimSpace(p.Query)
	if token != "" {
		if ids, ok := ParseIDList(token); ok {
			ph, a := placeholders(len(args)+1, ids)
			clauses = append(clauses, "id IN ("+ph+")")
			args = append(args, a...)
		} else {
			like := "%" + token + "%"
			clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR church ILIKE $%d OR district ILIKE $%d)",
				len(args)+1, len(args)+2, len(args)+3))
			args = append(args, like, like, like)
		}
	}
	if p.Church != "" {
		clauses = append(clauses, fmt.Sprintf("church = $%d", len(args)+1))
		args = append(args, p.Church)
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// Search returns one page of the roster ordered by district then church.
func (r *Repository) Search(ctx context.Context, p SearchParams) (SearchResult, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	where, args := buildFilter(p)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM registrants"+where, args...).Scan(&total); err != nil {
		return SearchResult{}, fmt.Errorf("count registrants: %w", err)
	}

	query := "SELECT " + registrantColumns + " FROM registrants" + where +
		fmt.Sprintf(" ORDER BY district, church, id LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, PageSize, (p.Page-1)*PageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return SearchResult{}, fmt.Errorf("search registrants: %w", err)
	}
	defer rows.Close()

	res := SearchResult{Rows: []Registrant{}, Total: total, Page: p.Page}
	for rows.Next() {
		reg, err := scanRegistrant(rows)
		if err != nil {
			return SearchResult{}, err
		}
		res.Rows = append(res.Rows, reg)
	}
	if err := rows.Err(); err != nil {
		return SearchResult{}, err
	}
	res.PageCount = (total + PageSize - 1) / PageSize
	return res, nil
}

// Churches returns the distinct non-blank church names for filter population.
func (r *Repository) Churches(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT church FROM registrants
		WHERE church IS NOT NULL AND church != ''
		GROUP BY church
		ORDER BY church
	`)
	if err != nil {
		return nil, fmt.Errorf("list churches: %w", err)
	}
	defer rows.Close()

	var churches []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		churches = append(churches, c)
	}
	return churches, rows.Err()
}

// Contacts returns the distinct (district, church, email) triples with a
// non-empty email, ordered by district then church.
func (r *Repository) Contacts(ctx context.Context) ([]Contact, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT district, church, email FROM registrants
		WHERE email IS NOT NULL AND email != ''
		ORDER BY district, church
	`)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.District, &c.Church, &c.Email); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// CountBadgeRows returns how many registrants the badge batch will process.
func (r *Repository) CountBadgeRows(ctx context.Context, ids []int64) (int, error) {
	query := "SELECT COUNT(*) FROM registrants"
	args := []any{}
	if len(ids) > 0 {
		ph, a := placeholders(1, ids)
		query += " WHERE id IN (" + ph + ")"
		args = a
	}
	var total int
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&total)
	return total, err
}

// BadgeRows returns up to limit badge projections with id > afterID, ordered
// by id. Keyset pagination keeps memory bounded on large rosters.
func (r *Repository) BadgeRows(ctx context.Context, afterID int64, limit int, ids []int64) ([]BadgeRow, error) {
	query := "SELECT id, name, district, church FROM registrants WHERE id > $1"
	args := []any{afterID}
	if len(ids) > 0 {
		ph, a := placeholders(len(args)+1, ids)
		query += " AND id IN (" + ph + ")"
		args = append(args, a...)
	}
	query += fmt.Sprintf(" ORDER BY id LIMIT $%d", len(args)+1)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("badge rows: %w", err)
	}
	defer rows.Close()

	var out []BadgeRow
	for rows.Next() {
		var b BadgeRow
		if err := rows.Scan(&b.ID, &b.Name, &b.District, &b.Church); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Transition applies an attendance action to every id or to none. Existence
// and state preconditions are checked inside the same transaction as the
// conditional update, so a rejection never leaves partial mutations behind.
func (r *Repository) Transition(ctx context.Context, action Action, ids []int64) error {
	pred, ok := preconditions[action]
	if !ok {
		return &TransitionError{Action: action, BadAction: true}
	}
	if len(ids) == 0 {
		return &TransitionError{Action: action, EmptyIDs: true}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transition: %w", err)
	}
	defer tx.Rollback()

	ph, args := placeholders(1, ids)

	missing, err := missingIDs(ctx, tx, ids, ph, args)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return &TransitionError{Action: action, Missing: missing}
	}

	conflicts, err := collectIDs(ctx, tx,
		"SELECT id FROM registrants WHERE id IN ("+ph+") AND NOT ("+pred.valid+") ORDER BY id", args)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return &TransitionError{Action: action, Conflicts: conflicts}
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE registrants SET "+pred.set+", updated_at = NOW() WHERE id IN ("+ph+") AND ("+pred.valid+")", args...)
	if err != nil {
		return fmt.Errorf("apply %s: %w", action, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected != int64(len(ids)) {
		// a concurrent writer moved some id out of the valid state between
		// the conflict check and the update; report it like any conflict
		conflicts, cerr := collectIDs(ctx, tx,
			"SELECT id FROM registrants WHERE id IN ("+ph+") AND NOT ("+pred.valid+") ORDER BY id", args)
		if cerr == nil && len(conflicts) > 0 {
			return &TransitionError{Action: action, Conflicts: conflicts}
		}
		return fmt.Errorf("apply %s: expected %d rows, updated %d", action, len(ids), affected)
	}
	return tx.Commit()
}

// preconditions pairs each action's state predicate with its mutation.
// Exit resets the whole cycle (entered_at cleared) rather than only stamping
// the exit; re-entry is then a fresh cycle.
var preconditions = map[Action]struct {
	valid string
	set   string
}{
	ActionEnter: {
		valid: "entered_at IS NULL OR left_at IS NOT NULL",
		set:   "entered_at = NOW(), left_at = NULL",
	},
	ActionExit: {
		valid: "entered_at IS NOT NULL AND left_at IS NULL",
		set:   "left_at = NOW(), entered_at = NULL",
	},
}

func missingIDs(ctx context.Context, tx *sql.Tx, ids []int64, ph string, args []any) ([]int64, error) {
	found, err := collectIDs(ctx, tx, "SELECT id FROM registrants WHERE id IN ("+ph+")", args)
	if err != nil {
		return nil, err
	}
	present := make(map[int64]bool, len(found))
	for _, id := range found {
		present[id] = true
	}
	var missing []int64
	for _, id := range ids {
		if !present[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func collectIDs(ctx context.Context, tx *sql.Tx, query string, args []any) ([]int64, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// placeholders renders $start..$start+n-1 for an id list and returns the ids
// as query args.
func placeholders(start int, ids []int64) (string, []any) {
	parts := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("$%d", start+i)
		args[i] = id
	}
	return strings.Join(parts, ","), args
}
