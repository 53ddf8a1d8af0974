// Package models contains the GORM persistence models of the entitlement
// service. Domain entities stay free of ORM tags; each model converts to and
// from its entity with ToDomain and FromDomain.
//
// plan_configs and plan_prices are owned by this service. The remaining tables
// are written by other parts of the platform and mapped here for reads and for
// the gated creates.
package models
