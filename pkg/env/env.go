// Package env reads single environment variables for the few call sites
// that need a value before the envconfig-backed config is loaded.
package env

import "os"

// Get returns the named environment variable, or fallback when it is
// unset or empty.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
