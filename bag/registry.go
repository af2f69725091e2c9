// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package bag

import (
	"io/ioutil"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is read when no config path is given.
const DefaultConfigPath = "texture_config.json"

// texturesKey names the top-level object listing the textures.
const texturesKey = "textures"

// Registry maps texture IDs to the locators their images are loaded from.
// It is immutable once loaded.
type Registry struct {
	paths map[string]string
}

// NewRegistry creates a Registry holding a copy of paths.
func NewRegistry(paths map[string]string) *Registry {
	r := &Registry{
		paths: make(map[string]string, len(paths)),
	}
	for id, locator := range paths {
		r.paths[id] = locator
	}
	return r
}

// LoadRegistry reads the texture config at path, DefaultConfigPath if empty.
// Files ending in .yaml or .yml are read as YAML, anything else as JSON.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, &Error{
			Kind: ErrConfigIO,
			Path: path,
			Err:  err,
		}
	}

	parse := ParseRegistry
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parse = ParseRegistryYAML
	}

	r, err := parse(data)
	if err != nil {
		if e, ok := err.(*Error); ok {
			e.Path = path
		}
		return nil, err
	}
	return r, nil
}

// ParseRegistry reads a JSON texture config of the form
//
//	{"textures": {"<id>": "<locator>", ...}}
//
// Every value under textures has to be a string, a single malformed
// entry fails the whole config.
func ParseRegistry(data []byte) (*Registry, error) {
	if !gjson.ValidBytes(data) {
		return nil, formatError("invalid JSON document")
	}

	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, formatError("invalid JSON structure, expected top-level object")
	}

	textures := doc.Get(texturesKey)
	if !textures.Exists() {
		return nil, formatError("missing '%s' key", texturesKey)
	}
	if !textures.IsObject() {
		return nil, formatError("invalid JSON structure, expected '%s' key-value object", texturesKey)
	}

	var (
		paths = make(map[string]string)
		bad   *Error
	)
	textures.ForEach(func(key, value gjson.Result) bool {
		if value.Type != gjson.String {
			bad = formatError("expected texture path for texture ID %s", key.String())
			bad.ID = key.String()
			return false
		}
		paths[key.String()] = value.String()
		return true
	})
	if bad != nil {
		return nil, bad
	}

	return &Registry{paths: paths}, nil
}

// ParseRegistryYAML reads the same structure as ParseRegistry from YAML.
// Texture IDs and locators must both be strings.
func ParseRegistryYAML(data []byte) (*Registry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		bad := formatError("invalid YAML document")
		bad.Err = err
		return nil, bad
	}

	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, formatError("invalid YAML structure, expected top-level mapping")
	}

	var textures *yaml.Node
	root := doc.Content[0]
	for idx := 0; idx+1 < len(root.Content); idx += 2 {
		if root.Content[idx].Value == texturesKey {
			textures = root.Content[idx+1]
		}
	}
	if textures == nil {
		return nil, formatError("missing '%s' key", texturesKey)
	}
	if textures.Kind == yaml.AliasNode && textures.Alias != nil {
		textures = textures.Alias
	}
	if textures.Kind != yaml.MappingNode {
		return nil, formatError("invalid YAML structure, expected '%s' key-value mapping", texturesKey)
	}

	paths := make(map[string]string, len(textures.Content)/2)
	for idx := 0; idx+1 < len(textures.Content); idx += 2 {
		key, value := textures.Content[idx], textures.Content[idx+1]
		if key.Kind != yaml.ScalarNode || key.ShortTag() != "!!str" {
			return nil, formatError("expected string texture ID, got %s", key.Value)
		}
		if value.Kind != yaml.ScalarNode || value.ShortTag() != "!!str" {
			bad := formatError("expected texture path for texture ID %s", key.Value)
			bad.ID = key.Value
			return nil, bad
		}
		paths[key.Value] = value.Value
	}

	return &Registry{paths: paths}, nil
}

// Lookup returns the locator registered for id.
func (r *Registry) Lookup(id string) (string, bool) {
	locator, ok := r.paths[id]
	return locator, ok
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.paths[id]
	return ok
}

// Len returns the number of registered textures.
func (r *Registry) Len() int {
	return len(r.paths)
}

// IDs returns all registered texture IDs in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.paths))
	for id := range r.paths {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
