package models

import "time"

// SearchEvent records one emitted search.
type SearchEvent struct {
	ID        string       `json:"id"`
	Profile   string       `json:"profile"`
	Trigger   string       `json:"trigger"`
	Params    SearchParams `json:"params"`
	CreatedAt time.Time    `json:"created_at"`
}
