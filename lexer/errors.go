package lexer

import "github.com/transitdb/transit/errors"

var (
	errUnexpectedEOF = errors.New(errors.Parse, "unexpected end of input in JSON literal")
	errNotJSON       = errors.New(errors.Parse, "expected '{' or '[' to start a JSON literal")
)
