package misp

import "github.com/google/uuid"

// Object groups attributes into a typed composite (a file with its hashes, a
// network flow, a credit card). Enveloped as {"Object": {...}}.
type Object struct {
	Element
}

var objectSchema = Schema{
	"Attribute":       {Many: true, New: func() Entity { return NewAttribute() }},
	"ObjectReference": {Many: true, New: func() Entity { return NewObjectReference() }},
}

// NewObject returns an empty object with a fresh UUID.
func NewObject() *Object {
	o := &Object{Element: NewElement(objectSchema)}
	o.assign("uuid", uuid.New().String())
	return o
}

// FromMap hydrates the object, unwrapping {"Object": {...}}.
func (o *Object) FromMap(m map[string]any) error {
	if inner, ok := m["Object"].(map[string]any); ok {
		m = inner
	}
	return o.Element.FromMap(m)
}

func (o *Object) FromJSON(data []byte) error {
	m, err := decodeMap(data)
	if err != nil {
		return err
	}
	return o.FromMap(m)
}

// UUID returns the object uuid.
func (o *Object) UUID() string { return o.stringField("uuid") }

// Name returns the object template name.
func (o *Object) Name() string { return o.stringField("name") }

// AddAttribute attaches an attribute under the given object relation
// ("md5", "filename", ...).
func (o *Object) AddAttribute(relation string, a *Attribute) {
	a.assign("object_relation", relation)
	o.appendChild("Attribute", a)
}

// AddReference links this object to another entity and returns the reference
// so the caller can refine it.
func (o *Object) AddReference(referencedUUID, relationship string) *ObjectReference {
	ref := NewObjectReference()
	ref.assign("object_uuid", o.UUID())
	ref.assign("referenced_uuid", referencedUUID)
	ref.assign("relationship_type", relationship)
	o.appendChild("ObjectReference", ref)
	return ref
}

// Attributes returns the object's attributes.
func (o *Object) Attributes() []*Attribute {
	children := o.childList("Attribute")
	out := make([]*Attribute, 0, len(children))
	for _, child := range children {
		if a, ok := child.(*Attribute); ok {
			out = append(out, a)
		}
	}
	return out
}

// ObjectReference links one object to another object or attribute.
type ObjectReference struct {
	Element
}

// NewObjectReference returns an empty reference with a fresh UUID.
func NewObjectReference() *ObjectReference {
	r := &ObjectReference{Element: NewElement(nil)}
	r.assign("uuid", uuid.New().String())
	return r
}

// FromMap hydrates the reference, unwrapping {"ObjectReference": {...}}.
func (r *ObjectReference) FromMap(m map[string]any) error {
	if inner, ok := m["ObjectReference"].(map[string]any); ok {
		m = inner
	}
	return r.Element.FromMap(m)
}

func (r *ObjectReference) FromJSON(data []byte) error {
	m, err := decodeMap(data)
	if err != nil {
		return err
	}
	return r.FromMap(m)
}
