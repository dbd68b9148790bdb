package gamedata

import (
	"encoding/json"
	"fmt"
	"path"

	"gopkg.in/yaml.v3"
)

// Load decodes an embedded table. The decoder is chosen by extension:
// .yaml and .yml use YAML, everything else JSON.
func Load[T any](filename string) (T, error) {
	var out T

	raw, err := dataFS.ReadFile(filename)
	if err != nil {
		return out, fmt.Errorf("read %s: %w", filename, err)
	}

	switch path.Ext(filename) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &out)
	default:
		err = json.Unmarshal(raw, &out)
	}
	if err != nil {
		return out, fmt.Errorf("decode %s: %w", filename, err)
	}
	return out, nil
}
