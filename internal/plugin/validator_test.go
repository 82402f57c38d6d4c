package plugin

import (
	"strings"
	"testing"
)

func TestValidate_ValidManifest(t *testing.T) {
	res, err := Validate([]byte(fooManifest))
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if !res.Valid {
		t.Fatalf("expected valid manifest, issues: %v", res.Issues)
	}
}

func TestValidate_Issues(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantPath string
	}{
		{"missing version", "id: com.example.a\n", ""},
		{"bad id", "id: nodots\nversion: 1.0.0\n", "/id"},
		{"unknown kind", "id: a.b\nversion: 1.0.0\nplatforms:\n  ios:\n    files:\n      - kind: widget\n        src: x\n", "/platforms/ios/files/0/kind"},
		{"unknown field", "id: a.b\nversion: 1.0.0\nhooks: []\n", ""},
		{"edit without xml", "id: a.b\nversion: 1.0.0\nconfig_files:\n  - target: config.xml\n    parent: /*\n", "/config_files/0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Validate([]byte(tt.content))
			if err != nil {
				t.Fatalf("Validate error: %v", err)
			}
			if res.Valid {
				t.Fatal("expected invalid manifest")
			}
			if len(res.Issues) == 0 {
				t.Fatal("expected at least one issue")
			}
			if tt.wantPath == "" {
				return
			}
			found := false
			for _, issue := range res.Issues {
				if strings.HasPrefix(issue.Path, tt.wantPath) {
					found = true
				}
			}
			if !found {
				t.Errorf("no issue at %s: %v", tt.wantPath, res.Issues)
			}
		})
	}
}

func TestValidate_NotYAML(t *testing.T) {
	if _, err := Validate([]byte("id: [unterminated\n")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidationIssue_String(t *testing.T) {
	i := ValidationIssue{Path: "/id", Message: "does not match pattern"}
	if i.String() != "/id: does not match pattern" {
		t.Errorf("String = %q", i.String())
	}
	i.Path = ""
	if i.String() != "does not match pattern" {
		t.Errorf("String = %q", i.String())
	}
}
