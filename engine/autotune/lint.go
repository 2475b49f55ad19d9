package autotune

import (
	"encoding/json"
	"fmt"
	"sort"
)

// lintValue returns advisory warnings for an accepted document.
func lintValue(value any) []Warning {
	instances, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(instances))
	for name := range instances {
		names = append(names, name)
	}
	sort.Strings(names)
	var warnings []Warning
	for _, name := range names {
		record, ok := instances[name].(map[string]any)
		if !ok {
			continue
		}
		minInstances, hasMin := toFloat(record[FieldMinInstances])
		maxInstances, hasMax := toFloat(record[FieldMaxInstances])
		if hasMin && hasMax && minInstances > maxInstances {
			warnings = append(warnings, Warning{
				Instance: name,
				Message: fmt.Sprintf("%s (%v) is greater than %s (%v)",
					FieldMinInstances, minInstances, FieldMaxInstances, maxInstances),
			})
		}
	}
	return warnings
}

// toFloat converts any Go or JSON number to float64.
func toFloat(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
