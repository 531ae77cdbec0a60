// Copyright (c) 2025 cocowh. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package parser

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Parser decodes a config document into nested maps.
type Parser interface {
	Parse(data []byte) (map[string]any, error)
	Format() string
}

type JSONParser struct{}

func (JSONParser) Parse(data []byte) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (JSONParser) Format() string { return "json" }

type YAMLParser struct{}

func (YAMLParser) Parse(data []byte) (map[string]any, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (YAMLParser) Format() string { return "yaml" }

type TOMLParser struct{}

func (TOMLParser) Parse(data []byte) (map[string]any, error) {
	var m map[string]any
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (TOMLParser) Format() string { return "toml" }

// ForPath picks a parser from the file extension. Unknown extensions are
// read as YAML, which also accepts JSON documents.
func ForPath(path string) Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSONParser{}
	case ".toml":
		return TOMLParser{}
	default:
		return YAMLParser{}
	}
}
