package tool

import (
	"encoding/json"

	"github.com/viktorbezdek/sw4rm/core"
)

// ParseArguments decodes a tool call's raw argument payload into a key/value
// mapping. An empty payload parses to an empty mapping (providers omit the
// arguments of zero-argument tools). A malformed payload yields a
// validation-tagged error that preserves the offending text and wraps the
// underlying decode failure as cause.
func ParseArguments(text string) (map[string]any, error) {
	if text == "" {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(text), &args); err != nil {
		return nil, core.WrapError(core.TagValidation, err, "invalid tool arguments: %s", text)
	}
	if args == nil { // literal "null"
		args = map[string]any{}
	}
	return args, nil
}
