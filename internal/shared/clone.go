package shared

// CloneStringInterfaceMap performs a deep clone of a JSON-shaped
// map[string]interface{}. Episode field bags are cloned on construction so
// callers cannot mutate an episode's evidence after the fact.
func CloneStringInterfaceMap(source map[string]interface{}) map[string]interface{} {
	if source == nil {
		return nil
	}
	cloned := make(map[string]interface{}, len(source))
	for k, v := range source {
		cloned[k] = cloneValue(v)
	}
	return cloned
}

// CloneInterfaceSlice performs a deep clone of a JSON-shaped []interface{}.
func CloneInterfaceSlice(source []interface{}) []interface{} {
	if source == nil {
		return nil
	}
	cloned := make([]interface{}, len(source))
	for i, v := range source {
		cloned[i] = cloneValue(v)
	}
	return cloned
}

func cloneValue(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		return CloneStringInterfaceMap(v)
	case []interface{}:
		return CloneInterfaceSlice(v)
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []float64:
		out := make([]float64, len(v))
		copy(out, v)
		return out
	default:
		// Scalars (string, bool, numeric, nil) are immutable.
		return value
	}
}
