package bestfix

import (
	"encoding/json"
	"strings"
)

// VariableKind tags the origin of a taint symbol within a dataflow step.
type VariableKind int

const (
	KindNone VariableKind = iota
	KindParameter
	KindMember
	KindLocal
)

// VariableRef is the canonical form of a step's variable_info block.
type VariableRef struct {
	Kind   VariableKind
	Symbol string
}

// symbolHolder matches the `{"symbol": "..."}` leaf every producer agrees on.
type symbolHolder struct {
	Symbol string `json:"symbol"`
}

// NormalizeVariable maps every known producer shape of variable_info to a
// canonical VariableRef. Producers disagree on key casing and wrap the record
// in an extra "variable" object depending on language frontend, so the probe
// is done on raw key/value pairs. At most one symbol is derived per step with
// precedence Parameter > Member > Local; a Member symbol is reduced to its
// last dotted segment.
func NormalizeVariable(raw json.RawMessage) VariableRef {
	fields := decodeFields(raw)
	if fields == nil {
		return VariableRef{}
	}

	// Unwrap the optional wrapper object.
	if inner := probeRaw(fields, "variable", "Variable"); inner != nil {
		if unwrapped := decodeFields(inner); unwrapped != nil {
			fields = unwrapped
		}
	}

	if symbol := probeSymbol(fields, "Parameter", "parameter"); symbol != "" {
		return VariableRef{Kind: KindParameter, Symbol: symbol}
	}
	if symbol := probeSymbol(fields, "Member", "member"); symbol != "" {
		parts := strings.Split(symbol, ".")
		return VariableRef{Kind: KindMember, Symbol: parts[len(parts)-1]}
	}
	if symbol := probeSymbol(fields, "Local", "local"); symbol != "" {
		return VariableRef{Kind: KindLocal, Symbol: symbol}
	}
	return VariableRef{}
}

func decodeFields(raw json.RawMessage) map[string]json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	return fields
}

func probeRaw(fields map[string]json.RawMessage, keys ...string) json.RawMessage {
	for _, key := range keys {
		if raw, ok := fields[key]; ok && len(raw) > 0 && string(raw) != "null" {
			return raw
		}
	}
	return nil
}

func probeSymbol(fields map[string]json.RawMessage, keys ...string) string {
	raw := probeRaw(fields, keys...)
	if raw == nil {
		return ""
	}
	var holder symbolHolder
	if err := json.Unmarshal(raw, &holder); err != nil {
		return ""
	}
	return holder.Symbol
}
