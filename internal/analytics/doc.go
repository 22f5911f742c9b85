// Package analytics computes campaign performance reports from tabular
// exports: it narrows a dataset to one campaign, totals and derives the
// standard ad metrics, mines per-column statistics for insights and scores
// the campaign's overall health.
//
// Everything here is a pure function of its inputs. Nothing performs I/O,
// logs or keeps state between calls, and data problems never surface as
// errors: they come back as Warning values next to a best-effort result.
// Fetching and merging the input datasets is the job of package sources.
package analytics
