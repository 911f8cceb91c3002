// Package slugify normalizes district, church, and registrant names into
// filesystem-safe folder and file names.
package slugify

import (
	"github.com/gosimple/slug"
)

// Placeholders used when a grouping field is blank so badges still land in a
// deterministic folder.
const (
	NoDistrict = "no-district"
	NoChurch   = "no-church"
	NoName     = "registrant"
)

// District returns the folder slug for a district, falling back to a
// placeholder when the value is blank.
func District(name string) string {
	return orDefault(name, NoDistrict)
}

// Church returns the folder slug for a church.
func Church(name string) string {
	return orDefault(name, NoChurch)
}

// Name returns the file-name slug for a registrant name.
func Name(name string) string {
	return orDefault(name, NoName)
}

func orDefault(name, def string) string {
	s := slug.Make(name)
	if s == "" {
		return def
	}
	return s
}
