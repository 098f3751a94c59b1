package gen

import (
	"fmt"
	"go/token"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-openapi/inflect"
)

var sprintf = fmt.Sprintf

// snake converts the given identifier to snake_case, keeping acronyms
// together ("HTTPCode" becomes "http_code").
func snake(s string) string {
	var (
		b     strings.Builder
		runes = []rune(s)
	)
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 && runes[i-1] != '_' {
			prevLower := unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || (nextLower && unicode.IsUpper(runes[i-1])) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// pascal converts the given name to PascalCase.
func pascal(s string) string {
	return inflect.Camelize(s)
}

// camel converts the given name to camelCase.
func camel(s string) string {
	if s == "" {
		return s
	}
	return inflect.CamelizeDownFirst(s)
}

// lowerFirst lowers the first rune of s only.
func lowerFirst(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[n:]
}

// receiver returns the receiver name of the given type name, built from
// the initials of its words ("userRepositoryImpl" becomes "uri").
func receiver(s string) string {
	s = strings.TrimLeft(s, "[]*0123456789")
	var b strings.Builder
	for _, w := range strings.Split(snake(s), "_") {
		if w != "" {
			b.WriteByte(w[0])
		}
	}
	name := b.String()
	if name == "" || token.IsKeyword(name) {
		return "_" + name
	}
	return name
}

// isIdent reports whether s is a valid, non-keyword Go identifier.
func isIdent(s string) bool {
	return token.IsIdentifier(s)
}

// FileName returns the name of the file holding the implementation of
// the given interface.
func FileName(iface string) string {
	return snake(iface) + "_repox.go"
}
