package misp

import "github.com/google/uuid"

// ShadowAttribute is a proposed change to an attribute, pending review by the
// event owner.
type ShadowAttribute struct {
	Element
}

var shadowAttributeSchema = Schema{
	"Org":          {New: func() Entity { return NewOrganisation() }},
	"SharingGroup": {New: func() Entity { return NewSharingGroup() }},
}

// NewShadowAttribute returns an empty proposal with a fresh UUID.
func NewShadowAttribute() *ShadowAttribute {
	sa := &ShadowAttribute{Element: NewElement(shadowAttributeSchema)}
	sa.assign("uuid", uuid.New().String())
	return sa
}

// FromMap hydrates the proposal, unwrapping {"ShadowAttribute": {...}}.
func (sa *ShadowAttribute) FromMap(m map[string]any) error {
	if inner, ok := m["ShadowAttribute"].(map[string]any); ok {
		m = inner
	}
	return sa.Element.FromMap(m)
}

func (sa *ShadowAttribute) FromJSON(data []byte) error {
	m, err := decodeMap(data)
	if err != nil {
		return err
	}
	return sa.FromMap(m)
}
