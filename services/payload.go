package services

import "maps"

// Payload is the value carried for one truck. Cost imports fill Amount;
// attribute imports fill Fields with only the attributes that were found.
type Payload struct {
	Amount *float64       `json:"amount,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
}

// IsEmpty reports whether the payload carries no value at all.
func (p Payload) IsEmpty() bool {
	return p.Amount == nil && len(p.Fields) == 0
}

func (p Payload) clone() Payload {
	out := Payload{Fields: maps.Clone(p.Fields)}
	if p.Amount != nil {
		a := *p.Amount
		out.Amount = &a
	}
	return out
}

// MergeStrategy decides the payload shape of an import kind and how an
// incoming payload is folded into the stored one.
type MergeStrategy interface {
	// Build turns the parsed field values of one row into a payload.
	Build(values map[string]any) Payload
	// Merge returns the payload to store after applying incoming over existing.
	Merge(existing, incoming Payload) Payload
	// Values flattens a payload back into field key -> value.
	Values(p Payload) map[string]any
}

// ScalarOverwrite stores a single amount; a new amount fully replaces the old one.
type ScalarOverwrite struct {
	Field string
}

func (s ScalarOverwrite) Build(values map[string]any) Payload {
	if v, ok := values[s.Field].(float64); ok {
		return Payload{Amount: &v}
	}
	return Payload{}
}

func (s ScalarOverwrite) Merge(existing, incoming Payload) Payload {
	if incoming.Amount == nil {
		return existing.clone()
	}
	return incoming.clone()
}

func (s ScalarOverwrite) Values(p Payload) map[string]any {
	if p.Amount == nil {
		return map[string]any{}
	}
	return map[string]any{s.Field: *p.Amount}
}

// FieldOverwrite stores a bag of attributes. Only the attributes present in
// the incoming payload overwrite; absent ones never erase stored values.
type FieldOverwrite struct{}

func (FieldOverwrite) Build(values map[string]any) Payload {
	if len(values) == 0 {
		return Payload{}
	}
	return Payload{Fields: maps.Clone(values)}
}

func (FieldOverwrite) Merge(existing, incoming Payload) Payload {
	merged := existing.clone()
	if merged.Fields == nil {
		merged.Fields = make(map[string]any, len(incoming.Fields))
	}
	for k, v := range incoming.Fields {
		merged.Fields[k] = v
	}
	return merged
}

func (FieldOverwrite) Values(p Payload) map[string]any {
	if p.Fields == nil {
		return map[string]any{}
	}
	return maps.Clone(p.Fields)
}
