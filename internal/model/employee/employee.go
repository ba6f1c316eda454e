package employee

import (
	"fmt"
	"strconv"
	"strings"
)

// Header is the column layout written at the top of the data file.
var Header = []string{"id", "name", "role", "salary"}

// Employee is a single row of the collection.
type Employee struct {
	ID     int     `json:"id"`
	Name   string  `json:"name"`
	Role   string  `json:"role"`
	Salary float64 `json:"salary"`
}

// Payload is the request body accepted by create and update. Pointer fields
// let the decoder tell a missing field from a zero value.
type Payload struct {
	ID     *int     `json:"id"`
	Name   *string  `json:"name"`
	Role   *string  `json:"role"`
	Salary *float64 `json:"salary"`
}

// Validate checks that every field is present and returns the record.
// Carriage returns are refused because the CSV reader folds "\r\n" inside a
// quoted field into "\n", so such a value would not read back unchanged.
func (p Payload) Validate() (Employee, error) {
	switch {
	case p.ID == nil:
		return Employee{}, &ValidationError{Field: "id", Reason: "field required"}
	case p.Name == nil:
		return Employee{}, &ValidationError{Field: "name", Reason: "field required"}
	case p.Role == nil:
		return Employee{}, &ValidationError{Field: "role", Reason: "field required"}
	case p.Salary == nil:
		return Employee{}, &ValidationError{Field: "salary", Reason: "field required"}
	case strings.ContainsRune(*p.Name, '\r'):
		return Employee{}, &ValidationError{Field: "name", Reason: errCarriageReturn}
	case strings.ContainsRune(*p.Role, '\r'):
		return Employee{}, &ValidationError{Field: "role", Reason: errCarriageReturn}
	}
	return Employee{ID: *p.ID, Name: *p.Name, Role: *p.Role, Salary: *p.Salary}, nil
}

const errCarriageReturn = "carriage returns are not supported"

// ValidationError reports a payload that does not match the record schema.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ParseError reports a malformed data file.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse employees file line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// row renders the record in Header order.
func (e Employee) row() []string {
	return []string{strconv.Itoa(e.ID), e.Name, e.Role, FormatSalary(e.Salary)}
}

// FormatSalary renders a salary the way it is kept on disk: integral values
// keep a trailing ".0", everything else uses the shortest exact decimal.
func FormatSalary(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if strings.ContainsAny(s, ".naI") {
		return s
	}
	return s + ".0"
}
