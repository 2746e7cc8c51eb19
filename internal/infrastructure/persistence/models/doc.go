// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
// - base.go: BaseModel and AggregateModel
// - inventory.go: items and their ordered link tables (lot sources, share holders)
// - finance.go: ledger transactions and expenses
// - partner.go: customers
// - processing.go: cut-and-polish, sort and heat treatment records
//
// Comma-joined id lists of the legacy schema are stored as link tables with a
// position column; the repositories rebuild the ordered slices.
package models
