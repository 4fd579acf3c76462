package query

// Result is the collected-search envelope: one result per `search`
// statement, with rows in clause-declaration order of the returned
// variables.
type Result struct {
	Columns  []string
	RowTypes [][]string
	RowCount int
	Limited  bool
	Rows     [][]string
}
