package gen

import (
	"fmt"
	"regexp"
)

// Category is the generation strategy chosen for a method.
type Category uint8

// Method categories.
const (
	Passthrough Category = iota + 1
	Query
	Finder
	Persist
	Merge
	Remove
	Flush
	Save
)

var categoryNames = [...]string{
	Passthrough: "passthrough",
	Query:       "query",
	Finder:      "finder",
	Persist:     "persist",
	Merge:       "merge",
	Remove:      "remove",
	Flush:       "flush",
	Save:        "save",
}

// String returns the category name.
func (c Category) String() string {
	if int(c) < len(categoryNames) && categoryNames[c] != "" {
		return categoryNames[c]
	}
	return fmt.Sprintf("Category(%d)", c)
}

// IsBridge reports whether the category maps to a session operation by name.
func (c Category) IsBridge() bool {
	return c >= Finder
}

// Classification is the outcome of classifying a method.
type Classification struct {
	Category Category
	// Flush reports a name carrying the AndFlush suffix.
	Flush bool

	rule *rule
}

// rule pairs a method predicate with the generator of its category.
type rule struct {
	category Category
	// match reports whether the rule applies and whether the flush
	// variant was requested.
	match func(*Method) (ok, flush bool)
	// check validates the method once the rule matched.
	check    func(*Method) *MethodError
	generate func(*GeneratedMethod) ([]*Op, *MethodError)
}

// rules are tried in order; the first match wins. Name-based rules only
// see methods without a query directive.
var rules []*rule

func init() {
	rules = []*rule{
		{
			category: Passthrough,
			match: func(m *Method) (bool, bool) {
				return m.Shape.Kind == SessionHandle, false
			},
			check: func(m *Method) *MethodError {
				if len(m.Params) > 0 {
					return NewMethodError(ParamsNotSupported, m, "session accessor %s takes %d parameters, want none", m.Name, len(m.Params))
				}
				return nil
			},
			generate: genPassthrough,
		},
		{
			category: Query,
			match: func(m *Method) (bool, bool) {
				return m.Query != nil, false
			},
			check: func(m *Method) *MethodError {
				if m.Query.ID == "" {
					return NewMethodError(EmptyQueryIdentifier, m, "query directive has an empty identifier")
				}
				return nil
			},
			generate: genQuery,
		},
		nameRule(Finder, `(?:find|get)`, genFind),
		nameRule(Persist, `persist`, genPersist),
		nameRule(Merge, `merge`, genMerge),
		nameRule(Remove, `(?:delete|remove)`, genRemove),
		nameRule(Flush, `flush`, genFlush),
		nameRule(Save, `save`, genSave),
	}
}

// nameRule matches methods whose name, with its first letter lowered,
// is the given verb optionally followed by AndFlush. The plain flush
// verb takes no suffix.
func nameRule(c Category, verb string, gen func(*GeneratedMethod) ([]*Op, *MethodError)) *rule {
	suffix := `(AndFlush)?`
	if c == Flush {
		suffix = ``
	}
	re := regexp.MustCompile(`^` + verb + suffix + `$`)
	return &rule{
		category: c,
		match: func(m *Method) (bool, bool) {
			if m.Query != nil {
				return false, false
			}
			sub := re.FindStringSubmatch(lowerFirst(m.Name))
			if sub == nil {
				return false, false
			}
			return true, len(sub) > 1 && sub[1] != ""
		},
		generate: gen,
	}
}

// Classify selects the category of m. A method matching no rule is
// reported as UnhandledMethod.
func Classify(m *Method) (*Classification, *MethodError) {
	if m.err != nil {
		return nil, m.err
	}
	for _, r := range rules {
		ok, flush := r.match(m)
		if !ok {
			continue
		}
		if r.check != nil {
			if err := r.check(m); err != nil {
				return nil, err
			}
		}
		return &Classification{Category: r.category, Flush: flush, rule: r}, nil
	}
	return nil, NewMethodError(UnhandledMethod, m, "cannot implement %s: no directive and no recognized name", m.Name)
}
