package misp

import "github.com/google/uuid"

// SharingGroup restricts distribution of events and attributes to a named set
// of organisations.
type SharingGroup struct {
	Element
}

var sharingGroupSchema = Schema{
	"Organisation":    {New: func() Entity { return NewOrganisation() }},
	"SharingGroupOrg": {Many: true, New: func() Entity { return NewSharingGroupOrg() }},
}

// NewSharingGroup returns an empty sharing group with a fresh UUID.
func NewSharingGroup() *SharingGroup {
	sg := &SharingGroup{Element: NewElement(sharingGroupSchema)}
	sg.assign("uuid", uuid.New().String())
	return sg
}

// FromMap hydrates the group, unwrapping {"SharingGroup": {...}}.
func (sg *SharingGroup) FromMap(m map[string]any) error {
	if inner, ok := m["SharingGroup"].(map[string]any); ok {
		m = inner
	}
	return sg.Element.FromMap(m)
}

func (sg *SharingGroup) FromJSON(data []byte) error {
	m, err := decodeMap(data)
	if err != nil {
		return err
	}
	return sg.FromMap(m)
}

// UUID returns the sharing group uuid.
func (sg *SharingGroup) UUID() string { return sg.stringField("uuid") }

// Name returns the sharing group name.
func (sg *SharingGroup) Name() string { return sg.stringField("name") }

// SharingGroupOrg is one organisation's membership in a sharing group; the
// platform nests it without an envelope.
type SharingGroupOrg struct {
	Element
}

var sharingGroupOrgSchema = Schema{
	"Organisation": {New: func() Entity { return NewOrganisation() }},
}

// NewSharingGroupOrg returns an empty membership entry.
func NewSharingGroupOrg() *SharingGroupOrg {
	return &SharingGroupOrg{Element: NewElement(sharingGroupOrgSchema)}
}
