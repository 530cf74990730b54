// Package storage provides the persisted string key/value store the client
// keeps its session in between runs.
package storage

// KeyValueStore is a string key/value store that survives process restarts.
// Absence of a key is reported by ok == false.
type KeyValueStore interface {
	// Get returns the value stored under key.
	Get(key string) (value string, ok bool)
	// Set stores value under key. The write is complete when Set returns.
	Set(key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
}
