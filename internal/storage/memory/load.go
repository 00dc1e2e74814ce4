package memory

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/starford/filedock/internal/models"
)

// Load builds a backend from a JSON or YAML tree description:
//
//	{"type": "folder", "contents": {
//	    "example.txt": {"type": "file", "contents": "text"},
//	    "My Pictures": {"type": "folder", "contents": {}}}}
//
// Keys other than type and contents become entry metadata. Children keep
// the order in which they appear in the document.
func Load(data []byte) (*Backend, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("memory: parse tree: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return New(nil), nil
	}
	root, err := parseNode(doc.Content[0], "/")
	if err != nil {
		return nil, err
	}
	if root.Type != models.EntryFolder {
		return nil, fmt.Errorf("memory: tree root must be a folder")
	}
	return New(root), nil
}

func parseNode(n *yaml.Node, at string) (*Node, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("memory: %s: node must be a mapping", at)
	}
	var typ string
	var contents *yaml.Node
	meta := map[string]any{}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i].Value, n.Content[i+1]
		switch key {
		case "type":
			typ = val.Value
		case "contents":
			contents = val
		default:
			var v any
			if err := val.Decode(&v); err != nil {
				return nil, fmt.Errorf("memory: %s: meta %q: %w", at, key, err)
			}
			meta[key] = v
		}
	}
	if len(meta) == 0 {
		meta = nil
	}

	switch models.EntryType(typ) {
	case models.EntryFile:
		file := NewFile("")
		file.Meta = meta
		if contents != nil {
			if contents.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("memory: %s: file contents must be text", at)
			}
			file.Contents = contents.Value
		}
		return file, nil
	case models.EntryFolder:
		folder := NewFolder()
		folder.Meta = meta
		if contents == nil {
			return folder, nil
		}
		if contents.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("memory: %s: folder contents must be a mapping", at)
		}
		for i := 0; i+1 < len(contents.Content); i += 2 {
			name := contents.Content[i].Value
			if !models.ValidSegment(name) {
				return nil, fmt.Errorf("memory: %s: invalid name %q", at, name)
			}
			child, err := parseNode(contents.Content[i+1], at+name+"/")
			if err != nil {
				return nil, err
			}
			folder.Add(name, child)
		}
		return folder, nil
	default:
		return nil, fmt.Errorf("memory: %s: unknown node type %q", at, typ)
	}
}
