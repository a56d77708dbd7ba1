package core

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
)

// Artifact keys produced by pipeline stages.
const (
	ArtifactScript       = "script"
	ArtifactArtDirection = "art_direction"
)

// Brief input keys supplied by clients.
const (
	InputNiche    = "niche"
	InputKeywords = "keywords"
	InputAudience = "audience"
	InputFeedback = "feedback"
)

// Inputs is the context mapping templates are rendered against.
// Values are never mutated in place; With and Merge return copies so a
// mapping handed to one stage cannot change under a later one.
type Inputs map[string]string

// With returns a copy of in with key set to value.
func (in Inputs) With(key, value string) Inputs {
	out := make(Inputs, len(in)+1)
	maps.Copy(out, in)
	out[key] = value
	return out
}

// Merge returns a copy of in overlaid with every entry of other.
func (in Inputs) Merge(other Inputs) Inputs {
	out := make(Inputs, len(in)+len(other))
	maps.Copy(out, in)
	maps.Copy(out, other)
	return out
}

// InputsFromJSON flattens decoded JSON values into template inputs. Strings
// are kept verbatim, null becomes "", numbers and booleans use their JSON
// spelling, and objects and arrays are re-encoded as compact JSON.
func InputsFromJSON(raw map[string]any) Inputs {
	out := make(Inputs, len(raw))
	for k, v := range raw {
		out[k] = jsonText(v)
	}
	return out
}

func jsonText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}

// Lookup returns the value for key and whether it was present.
func (in Inputs) Lookup(key string) (string, bool) {
	v, ok := in[key]
	return v, ok
}

// Keys returns the sorted key set.
func (in Inputs) Keys() []string {
	return slices.Sorted(maps.Keys(in))
}

// Result maps artifact names to the text produced for them.
type Result map[string]string

// Get returns the artifact text, or "" when the artifact is absent.
func (r Result) Get(artifact string) string { return r[artifact] }
