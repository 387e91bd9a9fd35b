// Package models contains GORM persistence models that map to database tables.
// Domain aggregates stay free of ORM tags; each model converts to and from its
// aggregate with ToDomain and FromDomain. Nested value lists that are always
// loaded with their aggregate (tracking log, documents, status history) are
// stored as JSON columns.
package models
