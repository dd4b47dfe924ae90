// Package sqlite implements the store interfaces on an embedded SQLite
// database, the offline-capable local store that the rest of the system
// treats as its source of truth. The schema is managed with goose
// migrations embedded in the binary.
package sqlite
