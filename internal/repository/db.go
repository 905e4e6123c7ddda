package repository

// scanner is satisfied by both *sql.Row and *sql.Rows, so the per-entity scan
// helpers serve single and multi row queries alike.
type scanner interface {
	Scan(dest ...any) error
}
