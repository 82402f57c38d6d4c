package configxml

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
)

// IndentSpaces is the indentation used whenever a document is written.
const IndentSpaces = 4

// Config is a handle on one config.xml document.
type Config struct {
	path string
	doc  *etree.Document
}

// Load parses the config file at path.
func Load(path string) (*Config, error) {
	doc, err := ReadDocument(path)
	if err != nil {
		return nil, err
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("config %s has no root element", path)
	}
	return &Config{path: path, doc: doc}, nil
}

// Parse builds a Config from raw XML. path is where Write will save it.
func Parse(data []byte, path string) (*Config, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parsing config XML: %w", err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("config XML has no root element")
	}
	return &Config{path: path, doc: doc}, nil
}

// Path returns the file the config was loaded from.
func (c *Config) Path() string { return c.path }

// Doc returns the underlying document.
func (c *Config) Doc() *etree.Document { return c.doc }

// Root returns the root element (normally <widget>).
func (c *Config) Root() *etree.Element { return c.doc.Root() }

// PackageName returns the widget id attribute.
func (c *Config) PackageName() string {
	return c.Root().SelectAttrValue("id", "")
}

// Version returns the widget version attribute.
func (c *Config) Version() string {
	return c.Root().SelectAttrValue("version", "")
}

// Name returns the trimmed text of the <name> element.
func (c *Config) Name() string {
	if n := c.Root().SelectElement("name"); n != nil {
		return strings.TrimSpace(n.Text())
	}
	return ""
}

// Write saves the document back to its path.
func (c *Config) Write() error {
	return WriteDocument(c.doc, c.path)
}

// ReadDocument parses an XML file.
func ReadDocument(path string) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, fmt.Errorf("reading XML %s: %w", path, err)
	}
	return doc, nil
}

// NewDocument returns a document with an XML declaration and an empty root
// element named tag.
func NewDocument(tag string) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)
	doc.CreateElement(tag)
	return doc
}

// Serialize renders doc with the standard indentation.
func Serialize(doc *etree.Document) ([]byte, error) {
	doc.Indent(IndentSpaces)
	return doc.WriteToBytes()
}

// WriteDocument serializes doc to path, creating parent directories.
func WriteDocument(doc *etree.Document, path string) error {
	data, err := Serialize(doc)
	if err != nil {
		return fmt.Errorf("serializing %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
