//go:build !windows

package secrets

// Only Windows has a persistent per-user environment to mirror into.
func mirrorUserEnv(name, value string) error { return nil }
