package scaffold

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"text/template"
	"time"

	"github.com/platkit-labs/platkit/internal/branding"
	"github.com/platkit-labs/platkit/internal/plugin"
)

const templatesDir = "scaffolds/plugin"

var validID = regexp.MustCompile(`^[A-Za-z0-9_-]+(\.[A-Za-z0-9_-]+)+$`)

// ScaffoldData holds all template variables available to scaffold templates.
type ScaffoldData struct {
	ID          string   // e.g., "com.example.barcode-scanner"
	Name        string   // Display name, e.g., "Barcode Scanner"
	Description string   // Human-readable description
	Version     string   // Semver, e.g., "0.1.0"
	Platforms   []string // Native platforms to stub, e.g., ["android", "ios"]
	Stem        string   // Derived: JS module file stem, "barcode-scanner"
	ClassName   string   // Derived: native class, "BarcodeScanner"
	Clobbers    string   // Derived: JS global, "window.barcodeScanner"
	JavaPath    string   // Derived: Java package dir, "com/example/barcode_scanner"
	Year        int      // Current year
}

// Has reports whether platform is among the requested platforms.
func (d *ScaffoldData) Has(platform string) bool {
	return slices.Contains(d.Platforms, platform)
}

// Result holds the outcome of a scaffold generation.
type Result struct {
	OutputDir string
	Files     []string
	Warnings  []string
}

// NewScaffoldData creates a ScaffoldData with derived fields populated.
func NewScaffoldData(id string, platforms []string) (*ScaffoldData, error) {
	if !validID.MatchString(id) {
		return nil, fmt.Errorf("invalid plugin id %q: want reverse-domain form like com.example.foo", id)
	}
	stem := id[strings.LastIndex(id, ".")+1:]
	words := strings.FieldsFunc(stem, func(r rune) bool { return r == '-' || r == '_' })

	var class strings.Builder
	for _, w := range words {
		class.WriteString(strings.ToUpper(w[:1]) + w[1:])
	}
	className := class.String()
	if className == "" {
		return nil, fmt.Errorf("invalid plugin id %q: last segment has no name", id)
	}

	platforms = slices.Clone(platforms)
	slices.Sort(platforms)
	platforms = slices.Compact(platforms)

	return &ScaffoldData{
		ID:          id,
		Name:        strings.Join(titled(words), " "),
		Description: fmt.Sprintf("%s plugin: %s", branding.DisplayName(), id),
		Version:     "0.1.0",
		Platforms:   platforms,
		Stem:        stem,
		ClassName:   className,
		Clobbers:    "window." + strings.ToLower(className[:1]) + className[1:],
		JavaPath:    strings.ReplaceAll(strings.ReplaceAll(id, "-", "_"), ".", "/"),
		Year:        time.Now().Year(),
	}, nil
}

func titled(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return out
}

// Generate writes a new plugin skeleton into outputDir, which must be empty
// or absent. Native stubs are only emitted for the requested platforms.
func Generate(data *ScaffoldData, outputDir string) (*Result, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	// Check for existing files to prevent accidental overwrites.
	existingEntries, err := os.ReadDir(outputDir)
	if err == nil && len(existingEntries) > 0 {
		return nil, fmt.Errorf("output directory %s is not empty; remove existing files first", outputDir)
	}

	result := &Result{OutputDir: outputDir}

	err = fs.WalkDir(scaffoldFS, templatesDir, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(p, templatesDir), "/")
		if entry.IsDir() {
			if dir, ok := strings.CutPrefix(rel, "src/"); ok && !data.Has(dir) {
				return fs.SkipDir
			}
			return nil
		}

		tmplBytes, err := fs.ReadFile(scaffoldFS, p)
		if err != nil {
			return fmt.Errorf("reading template %s: %w", p, err)
		}
		tmpl, err := template.New(entry.Name()).Parse(string(tmplBytes))
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", entry.Name(), err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return fmt.Errorf("executing template %s: %w", entry.Name(), err)
		}

		outName := outputName(rel, data)
		outPath := filepath.Join(outputDir, filepath.FromSlash(outName))
		if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(outPath), err)
		}
		if err := os.WriteFile(outPath, buf.Bytes(), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", outPath, err)
		}
		result.Files = append(result.Files, outName)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Validate the generated manifest against JSON Schema.
	manifestFile := filepath.Join(outputDir, "plugin.yaml")
	valResult, valErr := plugin.ValidateFile(manifestFile)
	if valErr != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not validate manifest: %v", valErr))
	} else if !valResult.Valid {
		for _, issue := range valResult.Issues {
			result.Warnings = append(result.Warnings, issue.String())
		}
	}

	return result, nil
}

// outputName strips .tmpl and fills the __stem__ and __class__ placeholders
// in a template path.
func outputName(rel string, data *ScaffoldData) string {
	name := strings.TrimSuffix(rel, ".tmpl")
	dir, base := path.Split(name)
	base = strings.NewReplacer("__stem__", data.Stem, "__class__", data.ClassName).Replace(base)
	return dir + base
}
