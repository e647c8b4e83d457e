// Package shadow keeps hidden shadow fields in semi-structured documents.
//
// A mapping pairs source field paths with destination paths. For every
// document in a store, each source value is copied to its destination after
// a transform (uppercase by default), so queries can match the hidden copy
// case-insensitively while the source field stays untouched. Paths may use the
// "*" wildcard to address every element of an array:
//
//	fields:
//	  name: "@hidden.name"
//	  orders.*.lines.*.sku: "orders.*.lines.*.@hidden.sku"
//
// The n-th wildcard of a source binds the n-th wildcard of its destination,
// so orders.3.lines.1.sku lands in orders.3.lines.1.@hidden.sku.
//
// Stores are reached through core.Repository. The default adapter keeps
// documents as JSON, YAML or Markdown files (optionally versioned with git);
// a SQLite adapter is also available.
//
// Usage:
//
//	repo, err := shadow.Init("./data", shadow.WithVersioning(false))
//	m, err := shadow.LoadMapping("shadow.yaml")
//	report, err := shadow.Populate(ctx, repo, m, shadow.WithConcurrency(4))
package shadow
