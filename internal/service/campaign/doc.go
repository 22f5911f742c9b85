// Package campaign implements campaign management.
//
// The service layer validates input and owns the business rules for
// creating, updating and removing campaigns and their report configuration.
// It depends on repository interfaces defined in this package and should
// never import from the api package.
//
// The Postgres implementation lives in repository/postgres/.
package campaign
