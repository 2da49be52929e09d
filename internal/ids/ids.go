package ids

import "github.com/oklog/ulid/v2"

// New returns a lexicographically sortable unique identifier for CRM
// records.
func New() string {
	return ulid.Make().String()
}
