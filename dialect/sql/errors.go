package sql

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"

	"github.com/syssam/lightdao"
)

// PostgreSQL SQLSTATE codes for constraint violations (Class 23).
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// MySQL error numbers for constraint violations.
const (
	mysqlDuplicateEntry         = 1062
	mysqlForeignKeyParent       = 1451 // Cannot delete or update a parent row
	mysqlForeignKeyChild        = 1452 // Cannot add or update a child row
	mysqlCheckConstraintViolate = 3819
)

// IsConstraintError reports whether err is a constraint violation, either
// already classified or raw from the driver.
func IsConstraintError(err error) bool {
	return lightdao.IsConstraintError(err) ||
		IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err)
}

// IsUniqueConstraintError reports if the error resulted from a DB uniqueness
// constraint violation.
func IsUniqueConstraintError(err error) bool {
	return match(err, []uint16{mysqlDuplicateEntry}, pgUniqueViolation,
		"UNIQUE constraint failed", "violates unique constraint")
}

// IsForeignKeyConstraintError reports if the error resulted from a foreign
// key constraint violation.
func IsForeignKeyConstraintError(err error) bool {
	return match(err, []uint16{mysqlForeignKeyParent, mysqlForeignKeyChild}, pgForeignKeyViolation,
		"FOREIGN KEY constraint failed", "violates foreign key constraint")
}

// IsCheckConstraintError reports if the error resulted from a check
// constraint violation.
func IsCheckConstraintError(err error) bool {
	return match(err, []uint16{mysqlCheckConstraintViolate}, pgCheckViolation,
		"CHECK constraint failed", "violates check constraint")
}

// Classify wraps driver constraint violations into lightdao.ConstraintError.
// Other errors are returned unchanged.
func Classify(err error) error {
	if err == nil || lightdao.IsConstraintError(err) {
		return err
	}
	if IsUniqueConstraintError(err) || IsForeignKeyConstraintError(err) || IsCheckConstraintError(err) {
		return lightdao.NewConstraintError(err.Error(), err)
	}
	return err
}

func match(err error, numbers []uint16, state string, texts ...string) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		for _, n := range numbers {
			if me.Number == n {
				return true
			}
		}
		return false
	}
	var pe *pq.Error
	if errors.As(err, &pe) {
		return string(pe.Code) == state
	}
	// modernc.org/sqlite reports constraint failures in the message only.
	msg := err.Error()
	for _, t := range texts {
		if strings.Contains(msg, t) {
			return true
		}
	}
	return false
}
