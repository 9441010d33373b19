package models

// Group scopes a set of expenses, settlements and friends.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Goa Trip", "Flat 4B").
	Name string

	// Code is a 6 character uppercase hex code people use to join the group.
	Code string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// Scope restricts a ledger query. The zero value covers the whole ledger.
type Scope struct {
	GroupID string
}

// Global reports whether the scope is unrestricted.
func (s Scope) Global() bool {
	return s.GroupID == ""
}

// Key is a stable string form used for cache keys and logging.
func (s Scope) Key() string {
	if s.Global() {
		return "global"
	}
	return "group:" + s.GroupID
}
