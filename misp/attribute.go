package misp

import "github.com/google/uuid"

// Attribute is a single datum inside an event: an IP, a hash, a URL, anything
// the platform's type catalogue knows. Enveloped as {"Attribute": {...}}.
type Attribute struct {
	Element
}

var attributeSchema = Schema{
	"Tag":             {Many: true, New: func() Entity { return NewTag() }},
	"Sighting":        {Many: true, New: func() Entity { return NewSighting() }},
	"ShadowAttribute": {Many: true, New: func() Entity { return NewShadowAttribute() }},
	"SharingGroup":    {New: func() Entity { return NewSharingGroup() }},
}

// NewAttribute returns an empty attribute with a fresh UUID.
func NewAttribute() *Attribute {
	a := &Attribute{Element: NewElement(attributeSchema)}
	a.assign("uuid", uuid.New().String())
	return a
}

// FromMap hydrates the attribute, unwrapping {"Attribute": {...}}.
func (a *Attribute) FromMap(m map[string]any) error {
	if inner, ok := m["Attribute"].(map[string]any); ok {
		m = inner
	}
	return a.Element.FromMap(m)
}

func (a *Attribute) FromJSON(data []byte) error {
	m, err := decodeMap(data)
	if err != nil {
		return err
	}
	return a.FromMap(m)
}

// UUID returns the attribute uuid.
func (a *Attribute) UUID() string { return a.stringField("uuid") }

// Type returns the attribute type (ip-src, sha256, url, ...).
func (a *Attribute) Type() string { return a.stringField("type") }

// Value returns the attribute value.
func (a *Attribute) Value() string { return a.stringField("value") }

// Category returns the attribute category.
func (a *Attribute) Category() string { return a.stringField("category") }

// ToIDS reports whether the attribute is flagged for detection use.
func (a *Attribute) ToIDS() bool { return a.boolField("to_ids") }

// AddTag labels the attribute.
func (a *Attribute) AddTag(t *Tag) {
	a.appendChild("Tag", t)
}

// AddSighting records a sighting against the attribute.
func (a *Attribute) AddSighting(s *Sighting) {
	a.appendChild("Sighting", s)
}

// Tags returns the attribute's tags.
func (a *Attribute) Tags() []*Tag {
	children := a.childList("Tag")
	out := make([]*Tag, 0, len(children))
	for _, child := range children {
		if t, ok := child.(*Tag); ok {
			out = append(out, t)
		}
	}
	return out
}
