package misp

// Tag is a label attached to events and attributes, usually from a shared
// taxonomy ("tlp:green", "type:OSINT").
type Tag struct {
	Element
}

// NewTag returns an empty tag.
func NewTag() *Tag {
	return &Tag{Element: NewElement(nil)}
}

// NewTagNamed returns a tag carrying the given name.
func NewTagNamed(name string) *Tag {
	t := NewTag()
	t.assign("name", name)
	return t
}

// FromMap hydrates the tag, unwrapping {"Tag": {...}}.
func (t *Tag) FromMap(m map[string]any) error {
	if inner, ok := m["Tag"].(map[string]any); ok {
		m = inner
	}
	return t.Element.FromMap(m)
}

func (t *Tag) FromJSON(data []byte) error {
	m, err := decodeMap(data)
	if err != nil {
		return err
	}
	return t.FromMap(m)
}

// Name returns the tag name.
func (t *Tag) Name() string { return t.stringField("name") }
