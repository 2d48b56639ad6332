package labels

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrFailedToParseYAML = errors.New("failed to parse labels YAML")
	ErrNoLanguages       = errors.New("labels file defines no languages")
)

// Parse reads a labels document keyed by language at the top level:
//
//	en:
//	  order:
//	    states:
//	      in_review: Waiting for review
//	    events:
//	      approve: Approve
//
// It returns a flat map per language with dotted keys, for example
// "order.states.in_review".
func Parse(data []byte) (map[string]map[string]string, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Join(ErrFailedToParseYAML, err)
	}
	if len(doc) == 0 {
		return nil, ErrNoLanguages
	}

	out := make(map[string]map[string]string, len(doc))
	for lang, v := range doc {
		tree, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: language %q: expected map, got %T", ErrFailedToParseYAML, lang, v)
		}
		flat := make(map[string]string)
		if err := flatten("", tree, flat); err != nil {
			return nil, fmt.Errorf("%w: language %q: %w", ErrFailedToParseYAML, lang, err)
		}
		out[lang] = flat
	}
	return out, nil
}

func flatten(prefix string, tree map[string]any, out map[string]string) error {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			if err := flatten(key, val, out); err != nil {
				return err
			}
		case string:
			out[key] = val
		case nil:
		default:
			return fmt.Errorf("key %q: unsupported value of type %T", key, v)
		}
	}
	return nil
}

func isYAML(name string) bool {
	name = strings.ToLower(name)
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
