package rules

import (
	"encoding/json"
	"fmt"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// rulesKey is the key the rules file keeps its rule list under. The file
// shape {"product_rules": [...]} is kept compatible with existing config
// exports.
const rulesKey = "product_rules"

// Load reads and validates the rule set from a JSON config file. A missing
// product_rules key yields an empty, valid rule set.
func Load(path string) ([]Rule, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), kjson.Parser()); err != nil {
		return nil, fmt.Errorf("loading rules file: %w", err)
	}
	return fromKoanf(k)
}

// Parse decodes and validates a rule set from raw JSON bytes in the rules
// file shape.
func Parse(data []byte) ([]Rule, error) {
	k := koanf.New(".")
	if err := k.Load(rawProvider{data}, kjson.Parser()); err != nil {
		return nil, fmt.Errorf("parsing rules: %w", err)
	}
	return fromKoanf(k)
}

func fromKoanf(k *koanf.Koanf) ([]Rule, error) {
	if !k.Exists(rulesKey) {
		return nil, nil
	}

	// Round-trip through JSON so the enum decoders run; koanf hands back
	// loosely typed maps.
	raw, err := json.Marshal(k.Get(rulesKey))
	if err != nil {
		return nil, fmt.Errorf("re-encoding rules: %w", err)
	}

	var set []Rule
	if err := json.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf("decoding rules: %w", err)
	}

	if err := ValidateAll(set); err != nil {
		return nil, err
	}
	return set, nil
}

// rawProvider adapts in-memory bytes to koanf's provider interface.
type rawProvider struct {
	data []byte
}

func (p rawProvider) ReadBytes() ([]byte, error) {
	return p.data, nil
}

func (p rawProvider) Read() (map[string]interface{}, error) {
	return nil, fmt.Errorf("rawProvider does not support structured reads")
}
