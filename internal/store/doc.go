// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic, allowing business rules to remain
// independent of specific database technologies or persistence details.
//
// The local store is the single source of truth for availability: every
// question the scheduling core asks ("is this card due?") is answered here,
// never from the remote mirror.
package store
