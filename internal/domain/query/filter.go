package query

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidFilter is returned for filters outside the supported grammar
var ErrInvalidFilter = errors.New("invalid filter")

// Field names a filterable request column
type Field string

const (
	FieldStatus         Field = "Status"
	FieldSubmitterEmail Field = "SubmitterEmail"
	FieldManagerEmail   Field = "ManagerEmail"
)

var allowedFields = map[Field]bool{
	FieldStatus:         true,
	FieldSubmitterEmail: true,
	FieldManagerEmail:   true,
}

// IsAllowed reports whether f may appear in a filter
func (f Field) IsAllowed() bool {
	return allowedFields[f]
}

// Condition is a single equality test
type Condition struct {
	Field Field
	Value string
}

// Eq builds an equality condition
func Eq(field Field, value string) Condition {
	return Condition{Field: field, Value: value}
}

// Filter is a conjunction of equality conditions. The zero Filter matches everything.
type Filter struct {
	Conditions []Condition
}

// And combines conditions into a filter
func And(conds ...Condition) Filter {
	return Filter{Conditions: append([]Condition(nil), conds...)}
}

// IsEmpty reports whether the filter has no conditions
func (f Filter) IsEmpty() bool {
	return len(f.Conditions) == 0
}

// Validate rejects conditions on fields outside the whitelist
func (f Filter) Validate() error {
	for _, c := range f.Conditions {
		if !c.Field.IsAllowed() {
			return fmt.Errorf("%w: field %q is not filterable", ErrInvalidFilter, c.Field)
		}
	}
	return nil
}

// String renders the filter as "Field eq 'value' and Field eq 'value'".
// Single quotes inside values are doubled.
func (f Filter) String() string {
	parts := make([]string, len(f.Conditions))
	for i, c := range f.Conditions {
		parts[i] = fmt.Sprintf("%s eq '%s'", c.Field, strings.ReplaceAll(c.Value, "'", "''"))
	}
	return strings.Join(parts, " and ")
}

// Parse reads the form produced by String. Only eq and and are supported.
func Parse(s string) (Filter, error) {
	p := &parser{input: s}
	var conds []Condition

	p.skipSpaces()
	if p.done() {
		return Filter{}, nil
	}

	for {
		cond, err := p.condition()
		if err != nil {
			return Filter{}, err
		}
		conds = append(conds, cond)

		p.skipSpaces()
		if p.done() {
			break
		}
		if !p.keyword("and") {
			return Filter{}, fmt.Errorf("%w: expected 'and' at offset %d", ErrInvalidFilter, p.pos)
		}
	}

	f := Filter{Conditions: conds}
	if err := f.Validate(); err != nil {
		return Filter{}, err
	}
	return f, nil
}

type parser struct {
	input string
	pos   int
}

func (p *parser) done() bool {
	return p.pos >= len(p.input)
}

func (p *parser) skipSpaces() {
	for !p.done() && p.input[p.pos] == ' ' {
		p.pos++
	}
}

func (p *parser) word() string {
	p.skipSpaces()
	start := p.pos
	for !p.done() && isWordChar(p.input[p.pos]) {
		p.pos++
	}
	return p.input[start:p.pos]
}

func (p *parser) keyword(kw string) bool {
	save := p.pos
	if strings.EqualFold(p.word(), kw) {
		return true
	}
	p.pos = save
	return false
}

func (p *parser) condition() (Condition, error) {
	field := p.word()
	if field == "" {
		return Condition{}, fmt.Errorf("%w: expected field name at offset %d", ErrInvalidFilter, p.pos)
	}
	if !p.keyword("eq") {
		return Condition{}, fmt.Errorf("%w: only 'eq' is supported after %s", ErrInvalidFilter, field)
	}
	value, err := p.quoted()
	if err != nil {
		return Condition{}, err
	}
	return Condition{Field: Field(field), Value: value}, nil
}

func (p *parser) quoted() (string, error) {
	p.skipSpaces()
	if p.done() || p.input[p.pos] != '\'' {
		return "", fmt.Errorf("%w: expected quoted value at offset %d", ErrInvalidFilter, p.pos)
	}
	p.pos++

	var b strings.Builder
	for !p.done() {
		ch := p.input[p.pos]
		p.pos++
		if ch != '\'' {
			b.WriteByte(ch)
			continue
		}
		if !p.done() && p.input[p.pos] == '\'' {
			b.WriteByte('\'')
			p.pos++
			continue
		}
		return b.String(), nil
	}
	return "", fmt.Errorf("%w: unterminated string", ErrInvalidFilter)
}

func isWordChar(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
