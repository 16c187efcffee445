// Package models contains GORM persistence models that map to database tables.
// Domain types stay free of ORM tags; each model converts to and from its
// aggregate with ToDomain/FromDomain.
//
//   - base.go: BaseModel and AggregateModel (version column)
//   - json.go: JSON column types
//   - catalog.go: products with embedded variants
//   - cart.go: carts and their lines
//   - order.go: orders and their lines
//   - identity.go: users
//   - outbox.go: transactional outbox entries
package models
