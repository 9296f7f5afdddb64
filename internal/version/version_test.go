package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	orig := Version
	Version = "v1.2.3"
	defer func() { Version = orig }()

	got := String("shelf")
	for _, want := range []string{"shelf v1.2.3", "commit=" + Commit, "go=" + GoVersion} {
		if !strings.Contains(got, want) {
			t.Errorf("String() = %q, missing %q", got, want)
		}
	}
}
