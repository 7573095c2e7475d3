package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
		ok    bool
	}{
		{"", FormatTable, true},
		{"table", FormatTable, true},
		{"JSON", FormatJSON, true},
		{"yaml", FormatYAML, true},
		{"yml", FormatYAML, true},
		{"xml", FormatTable, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseFormat(tt.input)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseFormat(%q) = %q, %v; want %q, %v", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestNewFormatter(t *testing.T) {
	if _, ok := NewFormatter(FormatJSON).(*JSONFormatter); !ok {
		t.Error("FormatJSON should produce a JSONFormatter")
	}
	if _, ok := NewFormatter(FormatYAML).(*YAMLFormatter); !ok {
		t.Error("FormatYAML should produce a YAMLFormatter")
	}
	if _, ok := NewFormatter(FormatTable).(*TableFormatter); !ok {
		t.Error("FormatTable should produce a TableFormatter")
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := &JSONFormatter{}
	if err := f.Format(&buf, map[string]any{"ttl": 4}); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"ttl": 4`) {
		t.Errorf("unexpected JSON output: %s", buf.String())
	}

	buf.Reset()
	compact := &JSONFormatter{Indent: "-"}
	if err := compact.Format(&buf, map[string]any{"ttl": 4}); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if buf.String() != "{\"ttl\":4}\n" {
		t.Errorf("compact JSON = %q", buf.String())
	}
}

func TestYAMLFormatter(t *testing.T) {
	type snapshot struct {
		Prefix string `yaml:"prefix"`
		TTL    int    `yaml:"default_ttl"`
	}

	var buf bytes.Buffer
	f := &YAMLFormatter{}
	if err := f.Format(&buf, snapshot{Prefix: "/", TTL: 4}); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "prefix: /") {
		t.Errorf("YAML output missing prefix: %s", output)
	}
	if !strings.Contains(output, "default_ttl: 4") {
		t.Errorf("YAML output missing default_ttl: %s", output)
	}
}
