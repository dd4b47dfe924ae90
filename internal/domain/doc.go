// Package domain contains the core entities of the verse memorization
// system: verses, cards, review logs, and sync queue entries, along with
// their validation rules.
//
// Entities in this package are plain data structures with validation
// methods. All scheduling behavior lives in the schedule subpackage, and
// all persistence concerns live in the store and platform packages.
package domain
