// Package models contains GORM persistence models for the relational mirror.
// Domain types stay free of ORM tags; every model here has a TableName and
// ToDomain/FromDomain mappers used by the repositories.
//
// Uniqueness that idempotency depends on:
//   - listings.ledger_listing_id
//   - transactions.ledger_tx_hash
//   - ownerships(asset_id, owner_address)
//   - pending_ledger_transactions.tx_hash
package models
