package config

import (
	"reflect"
	"strings"

	xslice "github.com/frantjc/x/slice"
	"gopkg.in/yaml.v3"
)

// undecodedYAMLKeys walks the decoded document against the
// configuration's type and returns the dotted path of every mapping key
// the type has no field for. The YAML counterpart of toml.Metadata.Undecoded.
func undecodedYAMLKeys(doc *yaml.Node, v any) []string {
	var keys []string
	walkYAMLKeys(doc, reflect.TypeOf(v), "", &keys)
	return keys
}

func walkYAMLKeys(node *yaml.Node, t reflect.Type, prefix string, keys *[]string) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return
	}

	switch node.Kind {
	case yaml.DocumentNode:
		for _, child := range node.Content {
			walkYAMLKeys(child, t, prefix, keys)
		}
	case yaml.SequenceNode:
		if t.Kind() != reflect.Slice && t.Kind() != reflect.Array {
			return
		}
		for _, item := range node.Content {
			walkYAMLKeys(item, t.Elem(), prefix, keys)
		}
	case yaml.MappingNode:
		switch t.Kind() {
		case reflect.Map:
			for i := 0; i+1 < len(node.Content); i += 2 {
				walkYAMLKeys(node.Content[i+1], t.Elem(), prefix+node.Content[i].Value+".", keys)
			}
		case reflect.Struct:
			fields := yamlFields(t)
			for i := 0; i+1 < len(node.Content); i += 2 {
				key := node.Content[i].Value
				if ft, ok := fields[key]; ok {
					walkYAMLKeys(node.Content[i+1], ft, prefix+key+".", keys)
				} else {
					*keys = append(*keys, prefix+key)
				}
			}
		}
	}
}

// yamlFields maps YAML keys to field types, flattening inline
// embedded structs the way yaml.v3 does.
func yamlFields(t reflect.Type) map[string]reflect.Type {
	fields := map[string]reflect.Type{}

	for i := 0; i < t.NumField(); i++ {
		var (
			field = t.Field(i)
			tag   = field.Tag.Get("yaml")
			parts = strings.Split(tag, ",")
			name  = parts[0]
		)

		if !field.IsExported() || name == "-" {
			continue
		}

		if field.Anonymous && (name == "" || xslice.Includes(parts[1:], "inline")) {
			inner := field.Type
			for inner.Kind() == reflect.Pointer {
				inner = inner.Elem()
			}
			if inner.Kind() == reflect.Struct {
				for key, ft := range yamlFields(inner) {
					fields[key] = ft
				}
				continue
			}
		}

		if name == "" {
			name = strings.ToLower(field.Name)
		}

		fields[name] = field.Type
	}

	return fields
}
