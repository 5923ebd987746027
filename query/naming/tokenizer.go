// Package naming splits DAO method-name tails into field tokens and resolves
// field tokens to column names.
package naming

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/syssam/lightdao"
)

// MaxScan bounds the number of "And" occurrences examined for one input.
const MaxScan = 500

const and = "And"

var errRunaway = errors.New(`"And" scan exceeded 500 iterations; a field name probably collides with the And keyword`)

type splitResult struct {
	tokens []string
	err    error
}

// splits memoizes SplitByAnd by exact input. Results never change for a
// given input, so concurrent duplicate computation is harmless.
var splits sync.Map

// SplitByAnd splits a PascalCase method-name tail on "And" boundaries:
//
//	SplitByAnd("IdEqAndNameEqAndAgeGt") // ["IdEq" "NameEq" "AgeGt"]
//	SplitByAnd("AndroidEq")             // ["AndroidEq"]
//
// An occurrence of "And" is a boundary only when the rune before it is not
// uppercase and the rune after it exists and is not lowercase. A tail that
// itself starts with "And" keeps that prefix on its first token.
func SplitByAnd(s string) ([]string, error) {
	if v, ok := splits.Load(s); ok {
		r := v.(splitResult)
		return slices.Clone(r.tokens), r.err
	}
	tokens, err := splitByAnd(s)
	v, _ := splits.LoadOrStore(s, splitResult{tokens: tokens, err: err})
	r := v.(splitResult)
	return slices.Clone(r.tokens), r.err
}

func splitByAnd(s string) ([]string, error) {
	var (
		tokens []string
		rest   = s
		iter   int
	)
	for rest != "" {
		from := 0
		if strings.HasPrefix(rest, and) {
			from = len(and)
		}
		cut := -1
		for {
			i := strings.Index(rest[from:], and)
			if i < 0 {
				break
			}
			i += from
			if iter++; iter > MaxScan {
				return nil, lightdao.NewInitializationError("", s, errRunaway)
			}
			if isBoundary(rest, i) {
				cut = i
				break
			}
			from = i + 1
		}
		if cut < 0 {
			tokens = append(tokens, rest)
			break
		}
		tokens = append(tokens, rest[:cut])
		rest = rest[cut+len(and):]
	}
	return tokens, nil
}

// isBoundary reports whether the "And" at byte offset i of s separates two
// tokens.
func isBoundary(s string, i int) bool {
	if i > 0 {
		before, _ := utf8.DecodeLastRuneInString(s[:i])
		if unicode.IsUpper(before) {
			return false
		}
	}
	after, size := utf8.DecodeRuneInString(s[i+len(and):])
	if size == 0 {
		return false
	}
	return !unicode.IsLower(after)
}
