// Package misp models MISP structured entities: events, attributes, objects
// and their satellites, all built on a shared element container that tracks
// which payloads changed since they were last hydrated from the platform.
package misp

import (
	"fmt"
	"sort"
	"time"
)

// Entity is the contract every structured entity satisfies. Concrete types
// embed Element, which provides a complete implementation; they override
// FromMap and FromJSON when the platform wraps their payload in an envelope
// key ({"Event": {...}} and friends).
type Entity interface {
	FromMap(m map[string]any) error
	FromJSON(data []byte) error
	ToMap() (map[string]any, error)
	ToJSON() ([]byte, error)

	Get(name string) (any, error)
	Set(name string, value any) error
	Delete(name string) error
	Keys() []string
	Len() int

	Edited() bool
	SetEdited(edited bool)
}

// NestedField declares that a field holds another entity (or a list of them)
// so hydration knows what to construct from raw JSON maps.
type NestedField struct {
	Many bool
	New  func() Entity
}

// Schema maps field names to their nested entity declarations. Fields absent
// from the schema hydrate as plain values.
type Schema map[string]NestedField

const (
	editedKey    = "edited"
	timestampKey = "timestamp"
)

// Element is the ordered field container underneath every entity. Fields keep
// their insertion order, an exclusion set hides bookkeeping fields from
// enumeration and serialization, and the edited state records whether the
// entity diverged from what the platform last sent.
//
// The zero value is usable and reports itself as edited, exactly like a
// freshly constructed entity that the platform has never seen.
type Element struct {
	order  []string
	fields map[string]any
	omit   map[string]struct{}
	schema Schema

	// clean is true only after a hydration or an explicit SetEdited(false);
	// any mutation resets it. Edited() derives the rest from the children.
	clean bool
}

// NewElement returns an element hydrating nested fields per schema. A nil
// schema is valid and means every field is a plain value.
func NewElement(schema Schema) Element {
	return Element{
		fields: make(map[string]any),
		omit:   make(map[string]struct{}),
		schema: schema,
	}
}

func (e *Element) ensure() {
	if e.fields == nil {
		e.fields = make(map[string]any)
	}
	if e.omit == nil {
		e.omit = make(map[string]struct{})
	}
}

// put stores a value without touching the edited state.
func (e *Element) put(name string, value any) {
	if _, exists := e.fields[name]; !exists {
		e.order = append(e.order, name)
	}
	e.fields[name] = value
}

// assign stores a value and marks the element edited. Constructors and
// helpers use it instead of Set to skip the edited-key check.
func (e *Element) assign(name string, value any) {
	e.ensure()
	e.put(name, value)
	e.clean = false
}

// Exclude hides the named fields from Keys, Len and serialization. The names
// accumulate on top of whatever the type already excludes; the values stay
// readable through Get.
func (e *Element) Exclude(names ...string) {
	e.ensure()
	for _, name := range names {
		e.omit[name] = struct{}{}
	}
}

// SetExclusions replaces the exclusion set wholesale.
func (e *Element) SetExclusions(names ...string) {
	e.omit = make(map[string]struct{}, len(names))
	for _, name := range names {
		e.omit[name] = struct{}{}
	}
}

// FromMap hydrates the element from a decoded JSON object. Nil values are
// skipped so a sparse server response does not blank out fields, nested
// entities are constructed per the schema, and the element comes out clean:
// it mirrors what the platform sent, so nothing is edited yet.
//
// Keys are applied in sorted order so hydration is deterministic; the first
// invalid field aborts with an error naming it.
func (e *Element) FromMap(m map[string]any) error {
	e.ensure()
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := m[name]
		if value == nil {
			continue
		}
		if name == editedKey {
			if _, ok := value.(bool); !ok {
				return fmt.Errorf("field %q: %w: want bool, got %T", editedKey, ErrInvalidArgument, value)
			}
			// The flag is recomputed below; the platform never sends it
			// anyway, so only its type is enforced.
			continue
		}
		built, err := e.buildField(name, value)
		if err != nil {
			return err
		}
		e.put(name, built)
	}
	e.clean = true
	return nil
}

// buildField turns a raw decoded value into its stored form, constructing
// nested entities where the schema declares them.
func (e *Element) buildField(name string, value any) (any, error) {
	decl, nested := e.schema[name]
	if !nested {
		return value, nil
	}

	if decl.Many {
		switch list := value.(type) {
		case []Entity:
			return list, nil
		case []any:
			out := make([]Entity, 0, len(list))
			for i, item := range list {
				if child, ok := item.(Entity); ok {
					out = append(out, child)
					continue
				}
				raw, ok := item.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("field %s[%d]: %w: want object, got %T", name, i, ErrInvalidArgument, item)
				}
				child := decl.New()
				if err := child.FromMap(raw); err != nil {
					return nil, fmt.Errorf("field %s[%d]: %w", name, i, err)
				}
				out = append(out, child)
			}
			return out, nil
		default:
			return nil, fmt.Errorf("field %s: %w: want list, got %T", name, ErrInvalidArgument, value)
		}
	}

	if child, ok := value.(Entity); ok {
		return child, nil
	}
	raw, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("field %s: %w: want object, got %T", name, ErrInvalidArgument, value)
	}
	child := decl.New()
	if err := child.FromMap(raw); err != nil {
		return nil, fmt.Errorf("field %s: %w", name, err)
	}
	return child, nil
}

// Get returns the named field. Excluded fields stay readable; only fields the
// element has never held produce ErrKeyNotFound.
func (e *Element) Get(name string) (any, error) {
	if value, ok := e.fields[name]; ok {
		return value, nil
	}
	return nil, fmt.Errorf("field %q: %w", name, ErrKeyNotFound)
}

// Set stores a field and marks the element edited. Assigning the edited key
// routes to SetEdited and enforces its bool contract.
func (e *Element) Set(name string, value any) error {
	e.ensure()
	if name == editedKey {
		flag, ok := value.(bool)
		if !ok {
			return fmt.Errorf("field %q: %w: want bool, got %T", editedKey, ErrInvalidArgument, value)
		}
		e.SetEdited(flag)
		return nil
	}
	e.put(name, value)
	e.clean = false
	return nil
}

// Delete removes a field. Deleting a field the element does not hold returns
// ErrKeyNotFound.
func (e *Element) Delete(name string) error {
	if _, ok := e.fields[name]; !ok {
		return fmt.Errorf("field %q: %w", name, ErrKeyNotFound)
	}
	delete(e.fields, name)
	for i, held := range e.order {
		if held == name {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	return nil
}

// Keys lists the visible field names in insertion order. Excluded fields are
// left out.
func (e *Element) Keys() []string {
	out := make([]string, 0, len(e.order))
	for _, name := range e.order {
		if _, hidden := e.omit[name]; hidden {
			continue
		}
		out = append(out, name)
	}
	return out
}

// Len counts the visible fields.
func (e *Element) Len() int {
	return len(e.Keys())
}

// Edited reports whether this element or any nested entity changed since the
// last hydration. The answer is derived on every call, never cached: a clean
// parent over an edited child must keep reporting true until the child is
// hydrated or explicitly cleared.
func (e *Element) Edited() bool {
	if !e.clean {
		return true
	}
	for _, name := range e.Keys() {
		switch value := e.fields[name].(type) {
		case Entity:
			if value.Edited() {
				return true
			}
		case []Entity:
			for _, child := range value {
				if child.Edited() {
					return true
				}
			}
		case []any:
			children, ok := entities(value)
			if !ok {
				continue
			}
			for _, child := range children {
				if child.Edited() {
					return true
				}
			}
		}
	}
	return false
}

// entities converts a decoded list when every member is an entity. Mixed or
// plain lists (tag name strings, galaxy authors) report false.
func entities(list []any) ([]Entity, bool) {
	out := make([]Entity, 0, len(list))
	for _, item := range list {
		child, ok := item.(Entity)
		if !ok {
			return nil, false
		}
		out = append(out, child)
	}
	return out, true
}

// SetEdited forces the edited flag. Clearing it affects only this element;
// edited children still surface through Edited.
func (e *Element) SetEdited(edited bool) {
	e.clean = !edited
}

// ToMap renders the visible fields for serialization. Nil fields and excluded
// fields are dropped. The timestamp field follows the platform's contract: an
// edited element omits it entirely so the server stamps a fresh one, a clean
// element converts time values to epoch seconds and passes integers and
// strings through untouched.
func (e *Element) ToMap() (map[string]any, error) {
	edited := e.Edited()
	out := make(map[string]any, len(e.order))
	for _, name := range e.Keys() {
		value := e.fields[name]
		if value == nil {
			continue
		}
		if name == timestampKey {
			if edited {
				continue
			}
			converted, err := epochSeconds(value)
			if err != nil {
				return nil, err
			}
			value = converted
		}
		out[name] = value
	}
	return out, nil
}

func epochSeconds(value any) (any, error) {
	switch ts := value.(type) {
	case time.Time:
		return ts.Unix(), nil
	case int, int32, int64, uint, uint64, float64, string:
		return ts, nil
	}
	return nil, fmt.Errorf("field %q: %w: got %T", timestampKey, ErrSerialization, value)
}
