// internal/register/mapping.go
package register

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Load builds a map from an opaque decoded mapping of the form
// {registers: [{address, name, description, value, readOnly, width, fields: [...]}]}.
// Numeric values may be integers, decimal text or 0x-prefixed hex text; missing
// or unparsable numbers take their default instead of failing the load.
func Load(source interface{}) (*Map, error) {
	regs, err := parseSource(source)
	if err != nil {
		return nil, err
	}
	return New(regs), nil
}

// Import replaces the map contents with the registers described by source.
// The map is left untouched when source is malformed.
func (m *Map) Import(source interface{}) error {
	regs, err := parseSource(source)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.replace(regs)
	m.mu.Unlock()
	return nil
}

// Export renders the map in the same mapping shape Load accepts
func (m *Map) Export() map[string]interface{} {
	regs := m.List()
	list := make([]interface{}, 0, len(regs))
	for _, r := range regs {
		fields := make([]interface{}, 0, len(r.Fields))
		for _, f := range r.Fields {
			fields = append(fields, map[string]interface{}{
				"name":        f.Name,
				"bit":         f.Bit,
				"size":        f.Size,
				"description": f.Description,
			})
		}
		list = append(list, map[string]interface{}{
			"address":     fmt.Sprintf("0x%02X", r.Address),
			"name":        r.Name,
			"description": r.Description,
			"value":       fmt.Sprintf("0x%02X", r.Value),
			"readOnly":    r.ReadOnly,
			"width":       r.Width,
			"fields":      fields,
		})
	}
	return map[string]interface{}{"registers": list}
}

func parseSource(source interface{}) ([]Register, error) {
	if source == nil {
		return nil, nil
	}
	root, ok := asMapping(source)
	if !ok {
		return nil, &MapParseError{Reason: fmt.Sprintf("top level is %T, want a mapping", source)}
	}

	raw, ok := root["registers"]
	if !ok || raw == nil {
		return nil, nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil, &MapParseError{Reason: fmt.Sprintf("registers is %T, want a list", raw)}
	}

	regs := make([]Register, 0, len(items))
	for i, item := range items {
		entry, ok := asMapping(item)
		if !ok {
			return nil, &MapParseError{Reason: fmt.Sprintf("registers[%d] is %T, want a mapping", i, item)}
		}
		reg, err := parseRegister(entry)
		if err != nil {
			return nil, &MapParseError{Reason: fmt.Sprintf("registers[%d]", i), Err: err}
		}
		regs = append(regs, reg)
	}
	return regs, nil
}

func parseRegister(entry map[string]interface{}) (Register, error) {
	reg := Register{
		Address:     uint32(parseNumber(entry["address"], 0, math.MaxUint32)),
		Name:        parseString(entry["name"]),
		Description: parseString(entry["description"]),
		Value:       uint32(parseNumber(entry["value"], 0, math.MaxUint32)),
		ReadOnly:    parseBool(first(entry, "readOnly", "read_only")),
		Width:       uint(parseNumber(entry["width"], DefaultWidth, 32)),
	}

	raw, ok := entry["fields"]
	if !ok || raw == nil {
		return reg, nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		return reg, fmt.Errorf("fields is %T, want a list", raw)
	}
	for j, item := range items {
		fe, ok := asMapping(item)
		if !ok {
			return reg, fmt.Errorf("fields[%d] is %T, want a mapping", j, item)
		}
		f := Field{
			Name:        parseString(fe["name"]),
			Bit:         uint(parseNumber(fe["bit"], 0, 31)),
			Size:        uint(parseNumber(fe["size"], 1, 32)),
			Description: parseString(fe["description"]),
		}
		if f.Size == 0 {
			f.Size = 1
		}
		reg.Fields = append(reg.Fields, f)
	}
	return reg, nil
}

func first(entry map[string]interface{}, keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := entry[k]; ok {
			return v
		}
	}
	return nil
}

func asMapping(v interface{}) (map[string]interface{}, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		return t, true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	}
	return nil, false
}

// parseNumber returns def for missing, negative, out-of-range or unparsable input
func parseNumber(v interface{}, def, max uint64) uint64 {
	var n uint64
	switch t := v.(type) {
	case nil:
		return def
	case int:
		if t < 0 {
			return def
		}
		n = uint64(t)
	case int64:
		if t < 0 {
			return def
		}
		n = uint64(t)
	case uint:
		n = uint64(t)
	case uint32:
		n = uint64(t)
	case uint64:
		n = t
	case float64:
		if t < 0 || t != math.Trunc(t) {
			return def
		}
		n = uint64(t)
	case string:
		parsed, ok := ParseNumber(t)
		if !ok {
			return def
		}
		n = parsed
	default:
		return def
	}
	if n > max {
		return def
	}
	return n
}

// ParseNumber parses decimal or 0x-prefixed hex text
func ParseNumber(s string) (uint64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	var (
		n   uint64
		err error
	)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, err = strconv.ParseUint(s[2:], 16, 64)
	} else {
		n, err = strconv.ParseUint(s, 10, 64)
	}
	if err != nil {
		return 0, false
	}
	return n, true
}

func parseString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func parseBool(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		return err == nil && b
	case int:
		return t != 0
	}
	return false
}
