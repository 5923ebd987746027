package lightdao

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for the compilation and execution pipeline.
var (
	// ErrInitialization is matched by every InitializationError.
	ErrInitialization = errors.New("lightdao: initialization failed")

	// ErrTemplate is matched by every TemplateError.
	ErrTemplate = errors.New("lightdao: template error")

	// ErrArgumentMismatch is matched by every ArgumentMismatchError.
	ErrArgumentMismatch = errors.New("lightdao: argument mismatch")

	// ErrNotSingular is returned when a query that expects at most one result
	// returns multiple results.
	ErrNotSingular = errors.New("lightdao: result not singular")
)

// InitializationError is raised while planning a DAO method: the method name
// matches no strategy, or a name segment cannot be tokenized.
type InitializationError struct {
	Method string // Method signature, e.g. "UserDao.findByName(string)"
	Text   string // Offending name fragment (optional)
	Err    error  // Underlying cause (optional)
}

// Error returns the error string.
func (e *InitializationError) Error() string {
	var b strings.Builder
	b.WriteString("lightdao: cannot plan method")
	if e.Method != "" {
		b.WriteString(" ")
		b.WriteString(e.Method)
	}
	if e.Text != "" {
		fmt.Fprintf(&b, " at %q", e.Text)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *InitializationError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches ErrInitialization.
func (e *InitializationError) Is(err error) bool {
	return err == ErrInitialization
}

// NewInitializationError returns a new InitializationError.
func NewInitializationError(method, text string, err error) *InitializationError {
	return &InitializationError{Method: method, Text: text, Err: err}
}

// IsInitializationError returns true if the error is an InitializationError.
func IsInitializationError(err error) bool {
	if err == nil {
		return false
	}
	var e *InitializationError
	return errors.As(err, &e)
}

// TemplateError is raised while parsing or executing an SQL template.
type TemplateError struct {
	Template string // Template name, usually "Dao.method"
	Line     int    // 1-based, 0 if unknown
	Col      int    // 1-based, 0 if unknown
	Msg      string
	Err      error
}

// Error returns the error string.
func (e *TemplateError) Error() string {
	var b strings.Builder
	b.WriteString("lightdao: template")
	if e.Template != "" {
		fmt.Fprintf(&b, " %s", e.Template)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " line %d", e.Line)
		if e.Col > 0 {
			fmt.Fprintf(&b, " col %d", e.Col)
		}
	}
	b.WriteString(": ")
	b.WriteString(e.Msg)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *TemplateError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches ErrTemplate.
func (e *TemplateError) Is(err error) bool {
	return err == ErrTemplate
}

// IsTemplateError returns true if the error is a TemplateError.
func IsTemplateError(err error) bool {
	if err == nil {
		return false
	}
	var e *TemplateError
	return errors.As(err, &e)
}

// ArgumentMismatchError signals a programming error: a predicate needs more
// positional arguments than remain, or arguments are left after planning.
type ArgumentMismatchError struct {
	Method string
	Want   int
	Have   int
}

// Error returns the error string.
func (e *ArgumentMismatchError) Error() string {
	if e.Want < e.Have {
		return fmt.Sprintf("lightdao: %s: %d argument(s) left unconsumed", e.Method, e.Have-e.Want)
	}
	return fmt.Sprintf("lightdao: %s: need %d argument(s), have %d", e.Method, e.Want, e.Have)
}

// Is reports whether the target error matches ErrArgumentMismatch.
func (e *ArgumentMismatchError) Is(err error) bool {
	return err == ErrArgumentMismatch
}

// NewArgumentMismatchError returns a new ArgumentMismatchError.
func NewArgumentMismatchError(method string, want, have int) *ArgumentMismatchError {
	return &ArgumentMismatchError{Method: method, Want: want, Have: have}
}

// IsArgumentMismatch returns true if the error is an ArgumentMismatchError.
func IsArgumentMismatch(err error) bool {
	if err == nil {
		return false
	}
	var e *ArgumentMismatchError
	return errors.As(err, &e)
}

// NotSingularError represents an error when a method declared to return a
// single value receives multiple rows.
type NotSingularError struct {
	method string
	count  int // Number of results returned (-1 if unknown)
}

// Error returns the error string.
func (e *NotSingularError) Error() string {
	if e.count >= 0 {
		return fmt.Sprintf("lightdao: %s not singular (got %d results, expected 1)", e.method, e.count)
	}
	return fmt.Sprintf("lightdao: %s not singular", e.method)
}

// Is reports whether the target error matches NotSingularError.
// This allows errors.Is(notSingularErr, ErrNotSingular) to return true.
func (e *NotSingularError) Is(err error) bool {
	return err == ErrNotSingular
}

// Method returns the method signature.
func (e *NotSingularError) Method() string {
	return e.method
}

// Count returns the number of results, or -1 if unknown.
func (e *NotSingularError) Count() int {
	return e.count
}

// NewNotSingularErrorWithCount returns a new NotSingularError with the result count.
func NewNotSingularErrorWithCount(method string, count int) *NotSingularError {
	return &NotSingularError{method: method, count: count}
}

// IsNotSingular returns true if the error is a NotSingularError.
func IsNotSingular(err error) bool {
	if err == nil {
		return false
	}
	var e *NotSingularError
	return errors.As(err, &e) || errors.Is(err, ErrNotSingular)
}

// ConstraintError represents a database constraint violation error.
type ConstraintError struct {
	msg  string
	wrap error
}

// Error returns the error string.
func (e ConstraintError) Error() string {
	return fmt.Sprintf("lightdao: constraint failed: %s", e.msg)
}

// Unwrap returns the underlying error.
func (e ConstraintError) Unwrap() error {
	return e.wrap
}

// NewConstraintError returns a new ConstraintError with the given message.
func NewConstraintError(msg string, wrap error) error {
	return ConstraintError{msg: msg, wrap: wrap}
}

// IsConstraintError returns true if the error is a ConstraintError.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e ConstraintError
	return errors.As(err, &e)
}

// QueryError wraps an executor error raised for a planned query.
type QueryError struct {
	Method string // Method signature
	Op     string // Operation (e.g., "select", "count", "template")
	Err    error  // Underlying error
}

// Error returns the error string.
func (e *QueryError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("lightdao: querying %s (%s): %v", e.Method, e.Op, e.Err)
	}
	return fmt.Sprintf("lightdao: querying %s: %v", e.Method, e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewQueryError returns a new QueryError.
func NewQueryError(method, op string, err error) *QueryError {
	return &QueryError{Method: method, Op: op, Err: err}
}

// IsQueryError returns true if the error is a QueryError.
func IsQueryError(err error) bool {
	if err == nil {
		return false
	}
	var e *QueryError
	return errors.As(err, &e)
}

// MutationError wraps a DML error with the table and operation.
type MutationError struct {
	Table string // Table being mutated
	Op    string // Operation (e.g., "save", "update", "delete")
	Err   error  // Underlying error
}

// Error returns the error string.
func (e *MutationError) Error() string {
	return fmt.Sprintf("lightdao: %s %s: %v", e.Op, e.Table, e.Err)
}

// Unwrap returns the underlying error.
func (e *MutationError) Unwrap() error {
	return e.Err
}

// NewMutationError returns a new MutationError.
func NewMutationError(table, op string, err error) *MutationError {
	return &MutationError{Table: table, Op: op, Err: err}
}

// IsMutationError returns true if the error is a MutationError.
func IsMutationError(err error) bool {
	if err == nil {
		return false
	}
	var e *MutationError
	return errors.As(err, &e)
}
