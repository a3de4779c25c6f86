// Package pathstate holds the addressable selection path of the viewer:
// component, test type, version, build and backend, in that dependency order.
package pathstate

import (
	"encoding/json"
	"errors"
	"net/url"
	"strings"
)

type Level int

const (
	Component Level = iota
	TestType
	Version
	Build
	Backend
)

const levelCount = 5

var ErrInvalidTransition = errors.New("invalid path transition")

// Keys are the query parameter names, in dependency order.
var Keys = [levelCount]string{"component", "testType", "version", "build", "backend"}

func (l Level) String() string {
	if l < Component || l > Backend {
		return "unknown"
	}
	return Keys[l]
}

// State is a value type; the zero value is the empty path.
type State struct {
	fields [levelCount]string
}

type Pair struct {
	Key   string
	Value string
}

// Fields is a partial update for Set. Nil entries are left untouched.
type Fields struct {
	Component *string
	TestType  *string
	Version   *string
	Build     *string
	Backend   *string
}

func New(component, testType, version, build, backend string) (State, error) {
	var s State
	err := s.Set(Fields{
		Component: &component,
		TestType:  &testType,
		Version:   &version,
		Build:     &build,
		Backend:   &backend,
	})
	return s, err
}

func (s State) Component() string { return s.fields[Component] }
func (s State) TestType() string  { return s.fields[TestType] }
func (s State) Version() string   { return s.fields[Version] }
func (s State) Build() string     { return s.fields[Build] }
func (s State) Backend() string   { return s.fields[Backend] }

func (s State) Get(l Level) string {
	if l < Component || l > Backend {
		return ""
	}
	return s.fields[l]
}

// Depth is the number of leading non-empty fields.
func (s State) Depth() int {
	for i, v := range s.fields {
		if v == "" {
			return i
		}
	}
	return levelCount
}

func (s State) IsEmpty() bool { return s.Depth() == 0 }

// Set applies the update only if the resulting path keeps every set field's
// predecessors set. Otherwise the state is unchanged and ErrInvalidTransition
// is returned. Setting a field to "" clears it and everything to its right.
func (s *State) Set(f Fields) error {
	next := s.fields
	updates := [levelCount]*string{f.Component, f.TestType, f.Version, f.Build, f.Backend}
	for i, v := range updates {
		if v == nil {
			continue
		}
		next[i] = strings.TrimSpace(*v)
		if next[i] == "" {
			for j := i + 1; j < levelCount; j++ {
				if updates[j] != nil && strings.TrimSpace(*updates[j]) != "" {
					return ErrInvalidTransition
				}
				next[j] = ""
			}
			break
		}
	}
	if !valid(next) {
		return ErrInvalidTransition
	}
	s.fields = next
	return nil
}

// Clear resets the field at from and every field to its right.
func (s *State) Clear(from Level) {
	if from < Component {
		from = Component
	}
	for i := int(from); i < levelCount; i++ {
		s.fields[i] = ""
	}
}

// Truncate returns a copy keeping only the first depth fields.
func (s State) Truncate(depth int) State {
	out := s
	if depth < levelCount {
		out.Clear(Level(max(depth, 0)))
	}
	return out
}

func (s State) Serialize() []Pair {
	out := make([]Pair, 0, levelCount)
	for i, v := range s.fields {
		if v == "" {
			break
		}
		out = append(out, Pair{Key: Keys[i], Value: v})
	}
	return out
}

// Deserialize never fails: a field whose predecessor is missing is dropped
// together with everything to its right. Unknown keys are ignored.
func Deserialize(pairs []Pair) State {
	var raw [levelCount]string
	for _, p := range pairs {
		for i, k := range Keys {
			if p.Key == k && raw[i] == "" {
				raw[i] = strings.TrimSpace(p.Value)
			}
		}
	}
	var s State
	for i, v := range raw {
		if v == "" {
			break
		}
		s.fields[i] = v
	}
	return s
}

// Encode renders the path as a query string with keys in dependency order.
// url.Values.Encode sorts keys, so the string is built by hand.
func (s State) Encode() string {
	var b strings.Builder
	for i, p := range s.Serialize() {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

func FromValues(values url.Values) State {
	pairs := make([]Pair, 0, levelCount)
	for _, k := range Keys {
		if v := values.Get(k); v != "" {
			pairs = append(pairs, Pair{Key: k, Value: v})
		}
	}
	return Deserialize(pairs)
}

// Parse accepts a raw query string with or without a leading '?'.
func Parse(query string) State {
	values, err := url.ParseQuery(strings.TrimPrefix(query, "?"))
	if err != nil && values == nil {
		return State{}
	}
	return FromValues(values)
}

func (s State) String() string {
	parts := make([]string, 0, levelCount)
	for _, p := range s.Serialize() {
		parts = append(parts, p.Value)
	}
	return strings.Join(parts, "/")
}

func valid(fields [levelCount]string) bool {
	for i := 1; i < levelCount; i++ {
		if fields[i] != "" && fields[i-1] == "" {
			return false
		}
	}
	return true
}

func (s State) MarshalJSON() ([]byte, error) {
	m := make(map[string]string, levelCount)
	for _, p := range s.Serialize() {
		m[p.Key] = p.Value
	}
	return json.Marshal(m)
}
