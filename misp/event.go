package misp

import "github.com/google/uuid"

// Event is the platform's unit of sharing: one incident carrying attributes,
// objects, tags and context. The wire format wraps it as {"Event": {...}}.
type Event struct {
	Element
}

var eventSchema = Schema{
	"Org":             {New: func() Entity { return NewOrganisation() }},
	"Orgc":            {New: func() Entity { return NewOrganisation() }},
	"SharingGroup":    {New: func() Entity { return NewSharingGroup() }},
	"Attribute":       {Many: true, New: func() Entity { return NewAttribute() }},
	"ShadowAttribute": {Many: true, New: func() Entity { return NewShadowAttribute() }},
	"Object":          {Many: true, New: func() Entity { return NewObject() }},
	"Tag":             {Many: true, New: func() Entity { return NewTag() }},
	"Galaxy":          {Many: true, New: func() Entity { return NewGalaxy() }},
	"RelatedEvent":    {Many: true, New: func() Entity { return NewEvent() }},
	"Sighting":        {Many: true, New: func() Entity { return NewSighting() }},
}

// NewEvent returns an empty event with a fresh UUID. It reports edited until
// it is hydrated from the platform.
func NewEvent() *Event {
	ev := &Event{Element: NewElement(eventSchema)}
	ev.assign("uuid", uuid.New().String())
	return ev
}

// FromMap hydrates the event, unwrapping the {"Event": {...}} envelope when
// present.
func (ev *Event) FromMap(m map[string]any) error {
	if inner, ok := m["Event"].(map[string]any); ok {
		m = inner
	}
	return ev.Element.FromMap(m)
}

// FromJSON decodes and hydrates, accepting enveloped and bare payloads alike.
func (ev *Event) FromJSON(data []byte) error {
	m, err := decodeMap(data)
	if err != nil {
		return err
	}
	return ev.FromMap(m)
}

// UUID returns the event uuid.
func (ev *Event) UUID() string { return ev.stringField("uuid") }

// Info returns the event headline.
func (ev *Event) Info() string { return ev.stringField("info") }

// Published reports the published flag.
func (ev *Event) Published() bool { return ev.boolField("published") }

// Publish marks the event for publication on the next push.
func (ev *Event) Publish() { ev.assign("published", true) }

// Unpublish retracts the published flag.
func (ev *Event) Unpublish() { ev.assign("published", false) }

// AddAttribute attaches an attribute to the event.
func (ev *Event) AddAttribute(a *Attribute) {
	ev.appendChild("Attribute", a)
}

// AddObject attaches an object to the event.
func (ev *Event) AddObject(o *Object) {
	ev.appendChild("Object", o)
}

// AddTag labels the event.
func (ev *Event) AddTag(t *Tag) {
	ev.appendChild("Tag", t)
}

// Attributes returns the event's attributes.
func (ev *Event) Attributes() []*Attribute {
	children := ev.childList("Attribute")
	out := make([]*Attribute, 0, len(children))
	for _, child := range children {
		if a, ok := child.(*Attribute); ok {
			out = append(out, a)
		}
	}
	return out
}

// Objects returns the event's objects.
func (ev *Event) Objects() []*Object {
	children := ev.childList("Object")
	out := make([]*Object, 0, len(children))
	for _, child := range children {
		if o, ok := child.(*Object); ok {
			out = append(out, o)
		}
	}
	return out
}

// Tags returns the event's tags.
func (ev *Event) Tags() []*Tag {
	children := ev.childList("Tag")
	out := make([]*Tag, 0, len(children))
	for _, child := range children {
		if t, ok := child.(*Tag); ok {
			out = append(out, t)
		}
	}
	return out
}
