// Package config loads the optional workflow configuration file. The file is
// HCL (JSON syntax is accepted for files named *.json) with a single
// recognized top-level attribute:
//
//	envs = {
//	  GOFLAGS = "-count=1"
//	}
//
// Every pair in envs is injected into each step's process environment,
// overriding inherited variables of the same name.
package config

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Config is the decoded workflow configuration.
type Config struct {
	// Envs maps environment variable names to values, applied to every step.
	Envs map[string]string
}

// Empty returns a configuration with no overrides, used when no config file
// exists.
func Empty() *Config {
	return &Config{Envs: map[string]string{}}
}

var schema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "envs"},
	},
}

// Load parses and decodes the configuration file at path.
func Load(path string) (*Config, error) {
	parser := hclparse.NewParser()

	var file *hcl.File
	var diags hcl.Diagnostics
	if strings.HasSuffix(path, ".json") {
		file, diags = parser.ParseJSONFile(path)
	} else {
		file, diags = parser.ParseHCLFile(path)
	}
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse config %s: %w", path, diags)
	}

	content, diags := file.Body.Content(schema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("decode config %s: %w", path, diags)
	}

	cfg := Empty()
	attr, ok := content.Attributes["envs"]
	if !ok {
		return cfg, nil
	}

	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("evaluate envs in %s: %w", path, diags)
	}
	if !val.Type().IsObjectType() && !val.Type().IsMapType() {
		return nil, fmt.Errorf("envs in %s must be an object of strings, got %s", path, val.Type().FriendlyName())
	}

	for name, v := range val.AsValueMap() {
		str, err := convert.Convert(v, cty.String)
		if err != nil {
			return nil, fmt.Errorf("envs.%s in %s: %w", name, path, err)
		}
		if str.IsNull() {
			return nil, fmt.Errorf("envs.%s in %s must not be null", name, path)
		}
		cfg.Envs[name] = str.AsString()
	}
	return cfg, nil
}
