package misp

// appendChild appends an entity to a list field, creating the list on first
// use, and marks the element edited.
func (e *Element) appendChild(name string, child Entity) {
	e.ensure()
	list, _ := e.fields[name].([]Entity)
	e.put(name, append(list, child))
	e.clean = false
}

// childList returns the entities held by a list field, empty when the field
// is absent or holds anything else.
func (e *Element) childList(name string) []Entity {
	switch value := e.fields[name].(type) {
	case []Entity:
		return value
	case []any:
		if children, ok := entities(value); ok {
			return children
		}
	}
	return nil
}

// stringField reads a field as a string, returning "" when it is absent or
// holds another type.
func (e *Element) stringField(name string) string {
	s, _ := e.fields[name].(string)
	return s
}

// boolField reads a field as a bool, returning false when it is absent or
// holds another type.
func (e *Element) boolField(name string) bool {
	b, _ := e.fields[name].(bool)
	return b
}
