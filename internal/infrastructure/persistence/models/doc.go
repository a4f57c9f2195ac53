// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
//  1. Domain entities should be free of GORM tags and infrastructure concerns
//  2. Persistence models contain all GORM annotations and table mappings
//  3. Mappers convert between domain entities and persistence models
//  4. JSON payload columns are stored as text (jsonb in PostgreSQL) and decoded with
//     json.Number so numeric attribute rules see the stored value
//
// Structure:
// - base.go: Base persistence models (BaseModel, AggregateModel)
// - catalog.go: Organization, Store, Category, Item, ItemAttribute and User models
// - json.go: payload column encoding
package models
