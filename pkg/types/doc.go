// Package types defines the State and transition types, router options,
// guard and middleware contracts, events, and standard errors for the
// Wayfind navigation engine.
package types
