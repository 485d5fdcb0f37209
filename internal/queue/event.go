// Package queue defines message payloads exchanged over the message broker.
package queue

// MovieSelectedEvent is published when pick-random lands on a movie for a
// night. It carries enough for downstream consumers to log or notify
// without querying the primary database.
type MovieSelectedEvent struct {
	NightID     uint64 `json:"night_id"`
	GroupID     uint64 `json:"group_id"`
	GroupHandle string `json:"group_handle"`
	MovieID     string `json:"movie_id"`
	MovieTitle  string `json:"movie_title"`
	StartsAt    string `json:"starts_at"`
	SelectedAt  string `json:"selected_at"`
}

// NightCancelledEvent is published when a movie night is cancelled. The row
// is gone by the time consumers see this, so the payload is the only record
// of what was dropped.
type NightCancelledEvent struct {
	NightID     uint64 `json:"night_id"`
	GroupID     uint64 `json:"group_id"`
	GroupHandle string `json:"group_handle"`
	StartsAt    string `json:"starts_at"`
	Nominations int    `json:"nominations"`
	CancelledAt string `json:"cancelled_at"`
}
