// Package pg bootstraps the PostgreSQL layer of the notification engine:
// connection pooling with startup retry, goose schema migrations, a health
// check closure, and error classification helpers shared by the repository
// implementations in the domain packages.
//
// Config is populated from environment variables (see the struct tags), so
// the daemon can be tuned per deployment without code changes.
package pg
