package misp

// Galaxy clusters related context (threat actors, malware families, ATT&CK
// techniques) that can be attached to events.
type Galaxy struct {
	Element
}

var galaxySchema = Schema{
	"GalaxyCluster": {Many: true, New: func() Entity { return NewGalaxyCluster() }},
}

// NewGalaxy returns an empty galaxy.
func NewGalaxy() *Galaxy {
	return &Galaxy{Element: NewElement(galaxySchema)}
}

// FromMap hydrates the galaxy, unwrapping {"Galaxy": {...}}.
func (g *Galaxy) FromMap(m map[string]any) error {
	if inner, ok := m["Galaxy"].(map[string]any); ok {
		m = inner
	}
	return g.Element.FromMap(m)
}

func (g *Galaxy) FromJSON(data []byte) error {
	m, err := decodeMap(data)
	if err != nil {
		return err
	}
	return g.FromMap(m)
}

// Name returns the galaxy name.
func (g *Galaxy) Name() string { return g.stringField("name") }

// Clusters returns the galaxy's clusters.
func (g *Galaxy) Clusters() []*GalaxyCluster {
	children := g.childList("GalaxyCluster")
	out := make([]*GalaxyCluster, 0, len(children))
	for _, child := range children {
		if gc, ok := child.(*GalaxyCluster); ok {
			out = append(out, gc)
		}
	}
	return out
}

// GalaxyCluster is one entry inside a galaxy. Its authors field is a plain
// string list, not nested entities.
type GalaxyCluster struct {
	Element
}

// NewGalaxyCluster returns an empty cluster.
func NewGalaxyCluster() *GalaxyCluster {
	return &GalaxyCluster{Element: NewElement(nil)}
}

// FromMap hydrates the cluster, unwrapping {"GalaxyCluster": {...}}.
func (gc *GalaxyCluster) FromMap(m map[string]any) error {
	if inner, ok := m["GalaxyCluster"].(map[string]any); ok {
		m = inner
	}
	return gc.Element.FromMap(m)
}

func (gc *GalaxyCluster) FromJSON(data []byte) error {
	m, err := decodeMap(data)
	if err != nil {
		return err
	}
	return gc.FromMap(m)
}

// Value returns the cluster value (the actor or family name).
func (gc *GalaxyCluster) Value() string { return gc.stringField("value") }
