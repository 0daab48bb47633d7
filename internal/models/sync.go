// internal/models/sync.go
package models

// SyncResult is the outcome of one sync invocation against a client site.
// Missing counts in the wire response default to zero.
type SyncResult struct {
	Synced  int `json:"synced"`
	Skipped int `json:"skipped"`
}
