// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities should be free of GORM tags and infrastructure concerns
// 2. Persistence models contain all GORM annotations and table mappings
// 3. Mappers convert between domain entities and persistence models
// 4. Repositories use persistence models for database operations
//
// Structure:
// - base.go: Base persistence model (BaseModel)
// - catalog.go: Product model with its derived displayed price
// - inventory.go: StockBatch model, the FIFO consumption unit
// - sales.go: Sale, SaleLine and BatchAllocation ledger models
package models
