package registrant

import "time"

// Status is the logical attendance state derived from the two timestamps.
type Status string

const (
	// StatusInside means the registrant entered and has not left.
	StatusInside Status = "inside"
	// StatusOutside covers everything else: never arrived, or completed a
	// visit and left.
	StatusOutside Status = "outside"
)

// Registrant is a person enrolled in the event. Only the two attendance
// timestamps are mutated after import; everything else is read-only here.
type Registrant struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	District  string     `json:"district"`
	Church    string     `json:"church"`
	Meal      *string    `json:"meal,omitempty"`
	Director  *string    `json:"director,omitempty"`
	Phone     *string    `json:"phone,omitempty"`
	Email     *string    `json:"email,omitempty"`
	EnteredAt *time.Time `json:"entered_at,omitempty"`
	LeftAt    *time.Time `json:"left_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Status reports whether the registrant is currently inside the venue.
// Inside means entered with no exit recorded; every other combination of the
// two timestamps is outside.
func (r Registrant) Status() Status {
	if r.EnteredAt != nil && r.LeftAt == nil {
		return StatusInside
	}
	return StatusOutside
}

// Contact is a distinct (district, church, email) notification target.
type Contact struct {
	District string
	Church   string
	Email    string
}

// BadgeRow is the projection used by the badge generator; the batch reads
// thousands of rows so it selects only what the renderer needs.
type BadgeRow struct {
	ID       int64
	Name     string
	District string
	Church   string
}
