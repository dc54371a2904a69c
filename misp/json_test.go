package misp

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestJSONRoundTripStable(t *testing.T) {
	payload := []byte(`{"id":"17","info":"round trip","threat_level_id":"2","timestamp":1700000000}`)

	first := NewElement(nil)
	if err := first.FromJSON(payload); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	out1, err := first.ToJSON()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	second := NewElement(nil)
	if err := second.FromJSON(out1); err != nil {
		t.Fatalf("rehydrate: %v", err)
	}
	out2, err := second.ToJSON()
	if err != nil {
		t.Fatalf("reserialize: %v", err)
	}

	if !bytes.Equal(out1, out2) {
		t.Fatalf("round trip drifted:\n%s\n%s", out1, out2)
	}
}

func TestNestedEntitiesEncodeAsObjects(t *testing.T) {
	parent := NewElement(childSchema())
	err := parent.FromMap(map[string]any{
		"info":  "nested",
		"Child": map[string]any{"name": "tlp:red", "colour": "#cc0000"},
	})
	if err != nil {
		t.Fatalf("hydrate: %v", err)
	}

	raw, err := parent.ToJSON()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}

	child, ok := decoded["Child"].(map[string]any)
	if !ok {
		t.Fatalf("Child encoded as %T, want object", decoded["Child"])
	}
	if child["name"] != "tlp:red" || child["colour"] != "#cc0000" {
		t.Fatalf("child fields lost: %v", child)
	}
}

func TestDeeplyBuriedEntityEncodes(t *testing.T) {
	// An entity sitting inside plain containers still encodes as its map
	// rendering; the encoder finds it wherever it hides.
	inner := NewTagNamed("buried")
	e := NewElement(nil)
	if err := e.Set("wrapper", map[string]any{"list": []any{inner}}); err != nil {
		t.Fatalf("set: %v", err)
	}

	raw, err := e.ToJSON()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	wrapper := decoded["wrapper"].(map[string]any)
	list := wrapper["list"].([]any)
	tag, ok := list[0].(map[string]any)
	if !ok {
		t.Fatalf("buried entity encoded as %T, want object", list[0])
	}
	if tag["name"] != "buried" {
		t.Fatalf("buried entity fields lost: %v", tag)
	}
}

func TestSerializeUnsupportedValue(t *testing.T) {
	e := NewElement(nil)
	if err := e.Set("payload", make(chan int)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, err := e.ToJSON(); !errors.Is(err, ErrSerialization) {
		t.Fatalf("want ErrSerialization, got %v", err)
	}
}

func TestNestedSerializationErrorSurfaces(t *testing.T) {
	child := NewTag()
	if err := child.Set("payload", make(chan int)); err != nil {
		t.Fatalf("set: %v", err)
	}
	parent := NewElement(childSchema())
	if err := parent.Set("Child", child); err != nil {
		t.Fatalf("set child: %v", err)
	}
	if _, err := parent.ToJSON(); !errors.Is(err, ErrSerialization) {
		t.Fatalf("want ErrSerialization from nested entity, got %v", err)
	}
}

func TestFromJSONMalformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"truncated", `{"info": "x`},
		{"not an object", `[1, 2, 3]`},
		{"empty input", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewElement(nil)
			if err := e.FromJSON([]byte(tt.data)); !errors.Is(err, ErrParse) {
				t.Fatalf("want ErrParse, got %v", err)
			}
		})
	}
}

func TestMarshalRespectsTimestampRule(t *testing.T) {
	e := NewElement(nil)
	if err := e.FromJSON([]byte(`{"info":"x","timestamp":1700000000}`)); err != nil {
		t.Fatalf("hydrate: %v", err)
	}

	clean, err := e.ToJSON()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if !bytes.Contains(clean, []byte(`"timestamp":1700000000`)) {
		t.Fatalf("clean output lost the timestamp: %s", clean)
	}

	if err := e.Set("info", "y"); err != nil {
		t.Fatalf("set: %v", err)
	}
	edited, err := e.ToJSON()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if bytes.Contains(edited, []byte("timestamp")) {
		t.Fatalf("edited output kept the timestamp: %s", edited)
	}
}
