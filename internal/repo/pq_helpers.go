package repo

import "github.com/lib/pq"

// pqStringArray adapts a []string for use as a Postgres text[] parameter.
func pqStringArray(values []string) interface{} {
	return pq.Array(values)
}
