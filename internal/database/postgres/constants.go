package postgres

// PostgreSQL Error Codes
const (
	// PgErrorCodeUniqueViolation is the PostgreSQL error code for unique constraint violations
	PgErrorCodeUniqueViolation = "23505"

	// PgErrorCodeCheckViolation is raised by the terminal listing status guard
	PgErrorCodeCheckViolation = "23514"
)

const documentColumns = "id, version, doc, created_at, updated_at"

var sqlOps = map[string]string{
	"eq":  "=",
	"ne":  "IS DISTINCT FROM",
	"lt":  "<",
	"lte": "<=",
	"gt":  ">",
	"gte": ">=",
}
