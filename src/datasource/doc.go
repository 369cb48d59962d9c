// Package datasource defines the persistent query backend a node applies
// consensus events to.
//
// Two backends exist: sqlstore, over database/sql with the Postgres or
// SQLite drivers, and fsstore, over a local Badger database. Both store the
// same records and answer the same queries; the dstest package checks them
// against one suite.
//
// Applying an event is not idempotent. Every Decide event is stored under
// the next block height, so applying the same event twice stores the block
// twice. Lookups by hash return the lowest height.
package datasource
