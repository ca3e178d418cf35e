// Package visualization defines the closed set of chart types the model
// endpoint can emit and the exact payload reshaping between the model's wire
// form and the persisted dashboard form.
package visualization

import (
	"encoding/json"
	"errors"
	"fmt"
)

type Type string

const (
	TypeBar           Type = "bar"
	TypeHorizontalBar Type = "horizontal_bar"
	TypePie           Type = "pie"
	TypeLine          Type = "line"
	TypeScatter       Type = "scatter"
	TypeGlobe         Type = "globe"
	TypeNone          Type = "none"
)

var ErrUnsupportedType = errors.New("unsupported visualization type")

// ParseType maps a model-emitted tag to a known type. Absent or unknown tags
// come back as TypeNone: no chart is rendered and no save action is offered.
func ParseType(tag string) Type {
	switch Type(tag) {
	case TypeBar, TypeHorizontalBar, TypePie, TypeLine, TypeScatter, TypeGlobe:
		return Type(tag)
	default:
		return TypeNone
	}
}

// Savable reports whether a turn carrying this type offers the
// save-to-dashboard action.
func (t Type) Savable() bool {
	switch t {
	case TypeBar, TypeHorizontalBar, TypePie, TypeLine, TypeScatter:
		return true
	default:
		return false
	}
}

// Datum is one labeled value in the persisted form of bar and pie charts.
type Datum struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// barPayload is the model wire shape for bar and horizontal_bar.
type barPayload struct {
	Labels []string `json:"labels"`
	Values []struct {
		Data []float64 `json:"data"`
	} `json:"values"`
}

// pieSlice is one element of the model wire shape for pie.
type pieSlice struct {
	Labels string  `json:"labels"`
	Values float64 `json:"values"`
}

// ModelToSaved reshapes a model response payload into the form persisted on
// the dashboard. The mapping is exhaustive over the savable types:
//
//	bar / horizontal_bar: zip labels[i] with values[0].data[i]
//	pie:                  each {labels, values} pair becomes one datum
//	line / scatter:       passed through unchanged
func ModelToSaved(t Type, payload json.RawMessage) (json.RawMessage, error) {
	switch t {
	case TypeBar, TypeHorizontalBar:
		var p barPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("invalid %s payload: %w", t, err)
		}
		if len(p.Values) == 0 {
			return nil, fmt.Errorf("invalid %s payload: no value series", t)
		}
		data := make([]Datum, len(p.Labels))
		for i, label := range p.Labels {
			var value float64
			if i < len(p.Values[0].Data) {
				value = p.Values[0].Data[i]
			}
			data[i] = Datum{Label: label, Value: value}
		}
		return json.Marshal(data)
	case TypePie:
		var slices []pieSlice
		if err := json.Unmarshal(payload, &slices); err != nil {
			return nil, fmt.Errorf("invalid pie payload: %w", err)
		}
		data := make([]Datum, len(slices))
		for i, s := range slices {
			data[i] = Datum{Label: s.Labels, Value: s.Values}
		}
		return json.Marshal(data)
	case TypeLine, TypeScatter:
		return payload, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, t)
	}
}

// SavedToRender converts a persisted payload back into the points a renderer
// consumes. Bar and pie payloads are already label/value pairs; line and
// scatter stay opaque to the caller.
func SavedToRender(t Type, saved json.RawMessage) ([]Datum, error) {
	switch t {
	case TypeBar, TypeHorizontalBar, TypePie:
		var data []Datum
		if err := json.Unmarshal(saved, &data); err != nil {
			return nil, fmt.Errorf("invalid saved %s payload: %w", t, err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, t)
	}
}

// DefaultLayout is the placement a freshly saved chart gets on the free-form
// grid: fixed default size at the top-left.
func DefaultLayout(key string) json.RawMessage {
	layout := map[string]interface{}{
		"i": key,
		"x": 0,
		"y": 0,
		"w": 6,
		"h": 4,
	}
	out, _ := json.Marshal(layout)
	return out
}
