package event

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyInput = errors.New("no event rows in input")
)

// SchemaError is fatal: the input table is missing required columns, so the
// whole batch is rejected with no partial output.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("raw events missing required columns: %s", strings.Join(e.Missing, ", "))
}
