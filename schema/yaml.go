package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// YAML renders an object as YAML with declaration-ordered keys, for
// read-only views.
func (s *ObjectSpec) YAML(obj any) (string, error) {
	node, err := s.yamlNode(obj)
	if err != nil {
		return "", err
	}
	out, err := yaml.Marshal(node)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (s *ObjectSpec) yamlNode(obj any) (*yaml.Node, error) {
	m, ok := obj.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("schema: %s: cannot render %T as YAML", s.name, obj)
	}
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range s.fields {
		key := &yaml.Node{Kind: yaml.ScalarNode, Value: f.Name}
		v := m[f.Name]

		var val *yaml.Node
		if sub, isObj := f.Model.(*ObjectSpec); isObj && v != nil {
			sn, err := sub.yamlNode(v)
			if err != nil {
				return nil, err
			}
			val = sn
		} else {
			val = &yaml.Node{}
			if err := val.Encode(v); err != nil {
				return nil, fmt.Errorf("schema: %s.%s: %w", s.name, f.Name, err)
			}
		}
		node.Content = append(node.Content, key, val)
	}
	return node, nil
}
