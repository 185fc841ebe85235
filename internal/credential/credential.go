// Package credential defines the credential record model and the canonical
// form used to detect duplicate submissions across both services.
package credential

import "time"

// Record is a stored credential. Content is the canonical string form of the
// submitted document and acts as the primary key: the id, worker, and
// timestamp are assigned at first insert and never change afterwards.
type Record struct {
	ID       int64     `json:"id"`
	Content  string    `json:"content"`
	WorkerID string    `json:"workerId"`
	IssuedAt time.Time `json:"issuedAt"`
}
