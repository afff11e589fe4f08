package storage

import (
	"database/sql"

	sq "github.com/Masterminds/squirrel"

	"ReviewHarvester/internal/ports"
)

// Repository persists ingestion and analysis data in a relational store.
type Repository struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

var (
	_ ports.IngestRepository   = (*Repository)(nil)
	_ ports.AnalysisRepository = (*Repository)(nil)
)

// NewRepository wires a sql.DB opened with the given driver name.
func NewRepository(db *sql.DB, driver string) *Repository {
	return &Repository{db: db, sb: Builder(driver)}
}
