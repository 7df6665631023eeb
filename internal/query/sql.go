package query

import "github.com/jackc/pgx/v5"

// quoteSchema double-quotes a schema name for safe interpolation into SQL
// that can't use a bind parameter (schema names aren't parameterizable).
func quoteSchema(schemaName string) string {
	return pgx.Identifier{schemaName}.Sanitize()
}
