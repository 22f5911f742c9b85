// Package integration manages connections to ad platforms and analytics
// accounts, including the OAuth tokens stored for Google Analytics.
package integration
