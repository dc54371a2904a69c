package misp

// Feed describes a remote feed the platform polls. The cache_timestamp field
// is server bookkeeping and is excluded from serialization.
type Feed struct {
	Element
}

// NewFeed returns an empty feed description.
func NewFeed() *Feed {
	f := &Feed{Element: NewElement(nil)}
	f.Exclude("cache_timestamp")
	return f
}

// FromMap hydrates the feed, unwrapping {"Feed": {...}}.
func (f *Feed) FromMap(m map[string]any) error {
	if inner, ok := m["Feed"].(map[string]any); ok {
		m = inner
	}
	return f.Element.FromMap(m)
}

func (f *Feed) FromJSON(data []byte) error {
	m, err := decodeMap(data)
	if err != nil {
		return err
	}
	return f.FromMap(m)
}

// Name returns the feed name.
func (f *Feed) Name() string { return f.stringField("name") }

// URL returns the feed base URL.
func (f *Feed) URL() string { return f.stringField("url") }

// SourceFormat returns the feed format ("misp", "freetext", "csv").
func (f *Feed) SourceFormat() string { return f.stringField("source_format") }
