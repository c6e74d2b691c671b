// Package postgres implements the store using pgx/v5 with raw SQL.
// Features: embedded SQL migrations, ON CONFLICT upserts for the alert
// ledger and team memberships, cascading deletes for ledger entries.
package postgres
