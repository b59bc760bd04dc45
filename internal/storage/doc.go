// Package storage defines the persistence boundary for accounts and
// short-lived login state bindings.
package storage
