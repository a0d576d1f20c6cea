// Package alert decides whether a sensor reading breaches its configured limits.
//
// Evaluate is a pure function: it holds no state and never touches the
// tenant store. Callers keep the active-alert set and decide when a raise
// or clear should be published.
//
// Minimum is checked before maximum, so a limit with min > max reports
// BelowMinimum for values under min.
package alert
