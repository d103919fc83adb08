// Package sql provides SQL safety validation. Every SQL string that
// reaches execution passes through Validate, regardless of whether it
// was typed by a user or generated by a model.
package sql

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/luminabi/lumina-engine/pkg/apperrors"
)

// restrictedKeywords is the fixed blacklist enforcing read-only access.
// This is a defense-in-depth word-boundary check, not a parser.
var restrictedKeywords = []string{
	"DROP", "DELETE", "TRUNCATE", "ALTER", "CREATE",
	"INSERT", "UPDATE", "GRANT", "REVOKE", "EXEC", "EXECUTE",
}

var (
	// \b treats underscores as word characters, so identifiers like
	// UPDATED_AT do not trigger the UPDATE keyword.
	restrictedPattern = regexp.MustCompile(`(?i)\b(` + strings.Join(restrictedKeywords, "|") + `)\b`)

	limitClausePattern = regexp.MustCompile(`(?i)\bLIMIT\s+\d+`)

	selectPrefixPattern = regexp.MustCompile(`(?i)^\s*SELECT\b`)
)

// Validate rejects empty SQL and SQL containing a restricted keyword as
// a whole word, case-insensitively. Returns nil when the query is allowed.
func Validate(sqlText string) error {
	trimmed := strings.TrimSpace(sqlText)
	if trimmed == "" {
		return fmt.Errorf("%w: query cannot be empty", apperrors.ErrValidationFailure)
	}
	if match := restrictedPattern.FindString(trimmed); match != "" {
		return fmt.Errorf("%w: query contains restricted keyword: %s",
			apperrors.ErrValidationFailure, strings.ToUpper(match))
	}
	return nil
}

// IsSelect reports whether the statement starts with SELECT.
func IsSelect(sqlText string) bool {
	return selectPrefixPattern.MatchString(sqlText)
}

// HasLimitClause reports whether the SQL already carries a LIMIT clause.
func HasLimitClause(sqlText string) bool {
	return limitClausePattern.MatchString(sqlText)
}

// EnsureLimit appends "LIMIT n" unless the SQL already has a LIMIT
// clause. The check is a case-insensitive pattern match, not a parse.
func EnsureLimit(sqlText string, limit int) string {
	if limit <= 0 || HasLimitClause(sqlText) {
		return sqlText
	}
	return fmt.Sprintf("%s LIMIT %d", strings.TrimRight(sqlText, " \t\n\r"), limit)
}

// StripTrailingSemicolon removes one trailing semicolon plus surrounding
// whitespace.
func StripTrailingSemicolon(sqlText string) string {
	sqlText = strings.TrimRight(sqlText, " \t\n\r")
	if strings.HasSuffix(sqlText, ";") {
		sqlText = strings.TrimRight(strings.TrimSuffix(sqlText, ";"), " \t\n\r")
	}
	return sqlText
}

// HasMultipleStatements reports whether the SQL contains a semicolon
// outside of string literals after trailing-semicolon normalization.
func HasMultipleStatements(sqlText string) bool {
	return hasSemicolonOutsideStrings(StripTrailingSemicolon(sqlText))
}

// hasSemicolonOutsideStrings scans for a semicolon that is not inside a
// single- or double-quoted literal. Both backslash escapes and SQL
// standard doubled quotes ('') are handled; the doubled quote exits and
// immediately re-enters the string state, which keeps the scan correct.
func hasSemicolonOutsideStrings(sqlText string) bool {
	const (
		stateNormal = iota
		stateSingleQuote
		stateDoubleQuote
	)

	state := stateNormal
	prev := rune(0)

	for _, char := range sqlText {
		switch state {
		case stateNormal:
			switch char {
			case ';':
				return true
			case '\'':
				state = stateSingleQuote
			case '"':
				state = stateDoubleQuote
			}
		case stateSingleQuote:
			if char == '\'' && prev != '\\' {
				state = stateNormal
			}
		case stateDoubleQuote:
			if char == '"' && prev != '\\' {
				state = stateNormal
			}
		}
		prev = char
	}
	return false
}

// identifierPattern matches a bare or dotted SQL identifier.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ValidIdentifier reports whether name is a plain identifier safe to
// interpolate into catalog or sampling queries.
func ValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}
