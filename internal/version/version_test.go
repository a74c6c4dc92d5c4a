// ABOUTME: Tests for version constants
// ABOUTME: Ensures product strings are set and the version is semver-shaped
package version

import (
	"strconv"
	"strings"
	"testing"
)

func TestStringsDefined(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"Version", Version},
		{"Product", Product},
		{"Manufacturer", Manufacturer},
	}

	for _, tt := range tests {
		if tt.value == "" {
			t.Errorf("%s should not be empty", tt.name)
		}
		if len(tt.value) > 100 {
			t.Errorf("%s is unreasonably long", tt.name)
		}
	}
}

func TestVersionIsSemver(t *testing.T) {
	parts := strings.Split(Version, ".")
	if len(parts) != 3 {
		t.Fatalf("expected MAJOR.MINOR.PATCH, got %q", Version)
	}
	for _, part := range parts {
		if _, err := strconv.Atoi(part); err != nil {
			t.Errorf("version component %q is not a number", part)
		}
	}
}
