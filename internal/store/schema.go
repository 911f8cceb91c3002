package store

import (
	"context"
	"fmt"
)

// EnsureSchema creates the registrants table if needed. Keeping the migration
// in code lets the API and the batch CLI bootstrap a fresh database without a
// separate migration tool.
func (d *DB) EnsureSchema(ctx context.Context) error {
	const stmt = `
CREATE TABLE IF NOT EXISTS registrants (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	district TEXT NOT NULL,
	church TEXT NOT NULL,
	meal TEXT,
	director TEXT,
	phone TEXT,
	email TEXT,
	entered_at TIMESTAMPTZ,
	left_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_registrants_district_church ON registrants(district, church);
CREATE INDEX IF NOT EXISTS idx_registrants_email ON registrants(email) WHERE email IS NOT NULL AND email != '';`
	if _, err := d.Client.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
