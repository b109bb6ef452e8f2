// Package migrations embarque les scripts CQL, un répertoire par keyspace.
package migrations

import "embed"

//go:embed products/*.cql users/*.cql orders/*.cql
var FS embed.FS

// Keyspace logique → répertoire de migrations.
const (
	Products = "products"
	Users    = "users"
	Orders   = "orders"
)
