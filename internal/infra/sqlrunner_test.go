package infra

import (
	"strings"
	"testing"
)

func TestExtractMarker(t *testing.T) {
	query := "--sql 5b0f3f2e-1c7d-4a53-9d1e-0c5a3e1f2b44\nselect 1;\n"
	marker, body, err := extractMarker(query)
	if err != nil {
		t.Fatalf("extractMarker: %v", err)
	}
	if marker != "5b0f3f2e-1c7d-4a53-9d1e-0c5a3e1f2b44" {
		t.Fatalf("marker = %q", marker)
	}
	if strings.TrimSpace(body) != "select 1;" {
		t.Fatalf("body = %q", body)
	}
}

func TestExtractMarkerRejectsUntaggedQueries(t *testing.T) {
	for _, q := range []string{"", "select 1;", "--sql not-a-uuid\nselect 1;"} {
		if _, _, err := extractMarker(q); err == nil {
			t.Fatalf("expected error for %q", q)
		}
	}
}
