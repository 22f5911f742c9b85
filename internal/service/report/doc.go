// Package report produces campaign reports: it gathers a campaign's
// configured sources, compares against the previous snapshot, runs the
// analytics engine and records the result as the next snapshot.
package report
