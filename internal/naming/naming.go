package naming

import (
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
)

// CamelToSnake converts a CamelCase string to snake_case.
// Consecutive uppercase letters (acronyms) are kept together:
// "ID" → "id", "UserID" → "user_id", "CreatedAt" → "created_at".
func CamelToSnake(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				next := rune(0)
				if i+1 < len(runes) {
					next = runes[i+1]
				}
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && unicode.IsLower(next)) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// commonInitialisms are rendered fully upper-case by SnakeToCamel so that
// "user_id" maps back to the Go field "UserID".
var commonInitialisms = map[string]bool{
	"api": true, "html": true, "http": true, "https": true, "id": true,
	"ip": true, "json": true, "sql": true, "url": true, "uuid": true,
}

// SnakeToCamel converts a snake_case string to CamelCase.
// "user_id" → "UserID", "user_profiles" → "UserProfiles".
func SnakeToCamel(s string) string {
	var b strings.Builder
	for _, part := range strings.Split(s, "_") {
		if part == "" {
			continue
		}
		if commonInitialisms[part] {
			b.WriteString(strings.ToUpper(part))
			continue
		}
		runes := []rune(part)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	return b.String()
}

// TableName infers a table name from a Go type name: snake_case, pluralised.
// "User" → "users", "UserProfile" → "user_profiles".
func TableName(typeName string) string {
	return inflection.Plural(CamelToSnake(typeName))
}
