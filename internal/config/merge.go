package config

// Merge overlays over onto base and returns the result. Nested maps merge
// recursively; arrays and scalars replace wholesale. Neither input is
// mutated.
func Merge(base, over map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		overMap, overIsMap := v.(map[string]any)
		baseMap, baseIsMap := out[k].(map[string]any)
		if overIsMap && baseIsMap {
			out[k] = Merge(baseMap, overMap)
			continue
		}
		out[k] = v
	}
	return out
}
