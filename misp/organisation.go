package misp

// Organisation identifies a platform tenant, either as owner (Org) or
// creator (Orgc) of shared data.
type Organisation struct {
	Element
}

// NewOrganisation returns an empty organisation.
func NewOrganisation() *Organisation {
	return &Organisation{Element: NewElement(nil)}
}

// FromMap hydrates the organisation, unwrapping {"Organisation": {...}}.
func (o *Organisation) FromMap(m map[string]any) error {
	if inner, ok := m["Organisation"].(map[string]any); ok {
		m = inner
	}
	return o.Element.FromMap(m)
}

func (o *Organisation) FromJSON(data []byte) error {
	m, err := decodeMap(data)
	if err != nil {
		return err
	}
	return o.FromMap(m)
}

// UUID returns the organisation uuid.
func (o *Organisation) UUID() string { return o.stringField("uuid") }

// Name returns the organisation name.
func (o *Organisation) Name() string { return o.stringField("name") }
