package models

// Friend is an entry in the identity registry. Its Name is the identity used in
// expenses and settlements.
type Friend struct {
	ID        string
	Name      string
	GroupID   string
	CreatedAt int64
}
