package project

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// Info declares a project for Create. It is usually loaded from a YAML file:
//
//	platform: ios
//	paths:
//	  root: build/ios
//	  template: node_modules/platkit-ios
//	  www: app/www
//	  plugins: [plugins]
//	config: app/config.xml
//	variables:
//	  com.example.foo:
//	    API_KEY: secret
type Info struct {
	Platform  string                       `yaml:"platform"`
	Paths     Paths                        `yaml:"paths"`
	Config    string                       `yaml:"config"`
	Link      bool                         `yaml:"link,omitempty"`
	AddTests  bool                         `yaml:"add_tests,omitempty"`
	Variables map[string]map[string]string `yaml:"variables,omitempty"`
}

// Paths locates the inputs and output of a project.
type Paths struct {
	Root     string   `yaml:"root"`
	Template string   `yaml:"template"`
	WWW      string   `yaml:"www"`
	Plugins  []string `yaml:"plugins,omitempty"`
}

// LoadInfo reads a project file. Relative paths are resolved against the
// file's directory.
func LoadInfo(path string) (*Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading project file: %w", err)
	}
	var info Info
	if err := yaml.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parsing project file %s: %w", path, err)
	}

	base, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	info.resolve(base)
	if err := info.Validate(); err != nil {
		return nil, fmt.Errorf("project file %s: %w", path, err)
	}
	return &info, nil
}

// Validate checks that the fields Create needs are present.
func (i *Info) Validate() error {
	switch {
	case i.Platform == "":
		return fmt.Errorf("platform is required")
	case i.Paths.Root == "":
		return fmt.Errorf("paths.root is required")
	case i.Paths.Template == "":
		return fmt.Errorf("paths.template is required")
	case i.Config == "":
		return fmt.Errorf("config is required")
	}
	return nil
}

func (i *Info) resolve(base string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	i.Paths.Root = abs(i.Paths.Root)
	i.Paths.Template = abs(i.Paths.Template)
	i.Paths.WWW = abs(i.Paths.WWW)
	i.Config = abs(i.Config)
	for n, p := range i.Paths.Plugins {
		i.Paths.Plugins[n] = abs(p)
	}
}
