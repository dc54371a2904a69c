package misp

import "github.com/google/uuid"

// Sighting records that an attribute's value was observed in the wild.
type Sighting struct {
	Element
}

var sightingSchema = Schema{
	"Organisation": {New: func() Entity { return NewOrganisation() }},
}

// NewSighting returns an empty sighting with a fresh UUID.
func NewSighting() *Sighting {
	s := &Sighting{Element: NewElement(sightingSchema)}
	s.assign("uuid", uuid.New().String())
	return s
}

// FromMap hydrates the sighting, unwrapping {"Sighting": {...}}.
func (s *Sighting) FromMap(m map[string]any) error {
	if inner, ok := m["Sighting"].(map[string]any); ok {
		m = inner
	}
	return s.Element.FromMap(m)
}

func (s *Sighting) FromJSON(data []byte) error {
	m, err := decodeMap(data)
	if err != nil {
		return err
	}
	return s.FromMap(m)
}

// Source returns where the sighting came from.
func (s *Sighting) Source() string { return s.stringField("source") }
