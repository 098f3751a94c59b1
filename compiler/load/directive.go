package load

import (
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Prefix starts every repox comment directive.
const Prefix = "//repox:"

// Directive names.
const (
	DirectiveRepository    = "repository"
	DirectiveQuery         = "query"
	DirectiveTemporal      = "temporal"
	DirectiveTransactional = "transactional"
)

// Directive is a parsed //repox:<name> comment, for example:
//
//	//repox:query "User.byEmail" named
//	//repox:repository unit="main" mode=extended
type Directive struct {
	Name string `parser:"'repox' ':' @Ident" json:"name" msgpack:"name"`
	Args []*Arg `parser:"@@*" json:"args,omitempty" msgpack:"args,omitempty"`
	// Raw is the directive text following the name.
	Raw string `parser:"" json:"raw,omitempty" msgpack:"raw,omitempty"`
	// Pos is the position of the comment.
	Pos string `parser:"" json:"pos,omitempty" msgpack:"pos,omitempty"`
}

// Arg is a positional string or a key with an optional value.
type Arg struct {
	Positional *string `parser:"  @String" json:"positional,omitempty" msgpack:"positional,omitempty"`
	Key        string  `parser:"| @Ident" json:"key,omitempty" msgpack:"key,omitempty"`
	Value      *Value  `parser:"  ('=' @@)?" json:"value,omitempty" msgpack:"value,omitempty"`
}

// Value is the value assigned to a key.
type Value struct {
	String *string `parser:"  @String" json:"string,omitempty" msgpack:"string,omitempty"`
	Number *string `parser:"| @Number" json:"number,omitempty" msgpack:"number,omitempty"`
	Ident  *string `parser:"| @Ident" json:"ident,omitempty" msgpack:"ident,omitempty"`
}

// Text returns the value as written, without quotes.
func (v *Value) Text() string {
	switch {
	case v == nil:
		return ""
	case v.String != nil:
		return *v.String
	case v.Number != nil:
		return *v.Number
	case v.Ident != nil:
		return *v.Ident
	}
	return ""
}

var directiveParser = participle.MustBuild[Directive](
	participle.Lexer(lexer.MustSimple([]lexer.SimpleRule{
		{Name: "String", Pattern: `"(\\"|[^"])*"`},
		{Name: "Number", Pattern: `[-+]?[0-9]+(\.[0-9]+)?`},
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_./-]*`},
		{Name: "Punct", Pattern: `[:=]`},
		{Name: "Whitespace", Pattern: `[\s,]+`},
	})),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)

// ParseDirective parses a single comment line. It returns nil, nil for
// comments that are not repox directives. Transactional directives keep
// their raw text even when the arguments do not follow the key=value form.
func ParseDirective(text string) (*Directive, error) {
	if !strings.HasPrefix(text, Prefix) {
		return nil, nil
	}
	body := strings.TrimPrefix(text, "//")
	name, raw, _ := strings.Cut(strings.TrimPrefix(body, "repox:"), " ")
	raw = strings.TrimSpace(raw)
	d, err := directiveParser.ParseString("", body)
	if err != nil {
		if name == DirectiveTransactional {
			return &Directive{Name: name, Raw: raw}, nil
		}
		return nil, fmt.Errorf("invalid directive %q: %w", text, err)
	}
	d.Raw = raw
	return d, nil
}

// Directives parses every repox directive in a comment group.
func Directives(fset *token.FileSet, doc *ast.CommentGroup) ([]*Directive, error) {
	if doc == nil {
		return nil, nil
	}
	var (
		ds   []*Directive
		errs []error
	)
	for _, c := range doc.List {
		d, err := ParseDirective(c.Text)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if d == nil {
			continue
		}
		if fset != nil {
			d.Pos = fset.Position(c.Slash).String()
		}
		ds = append(ds, d)
	}
	return ds, errors.Join(errs...)
}

// Lookup returns the value of the key argument and whether it is present.
func (d *Directive) Lookup(key string) (string, bool) {
	for _, a := range d.Args {
		if a.Positional == nil && a.Key == key {
			return a.Value.Text(), true
		}
	}
	return "", false
}

// Positional returns the positional string arguments in order.
func (d *Directive) Positional() []string {
	var ps []string
	for _, a := range d.Args {
		if a.Positional != nil {
			ps = append(ps, *a.Positional)
		}
	}
	return ps
}

// Find returns the first directive with the given name.
func Find(ds []*Directive, name string) *Directive {
	for _, d := range ds {
		if d.Name == name {
			return d
		}
	}
	return nil
}
