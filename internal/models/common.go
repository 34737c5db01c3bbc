package models

import "time"

// AuditFields are the bookkeeping columns shared by every table.
type AuditFields struct {
	CreatedAt     time.Time `db:"created_at"`
	LastUpdatedAt time.Time `db:"updated_at"`
	Version       int       `db:"version"`
}
