package testsupport

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-instanceselect/pkg/project"
	"github.com/goliatone/go-instanceselect/pkg/store/memory"
)

//go:embed testdata/*.yaml
var fixtures embed.FS

// Cohort fixture paths inside Fixtures().
const (
	CohortProjectPath = "testdata/cohort_project.yaml"
	CohortDataPath    = "testdata/cohort_data.yaml"
)

// Fixtures exposes the embedded fixture files.
func Fixtures() embed.FS {
	return fixtures
}

// MustReadFixture returns the raw bytes of an embedded fixture.
func MustReadFixture(t testing.TB, path string) []byte {
	t.Helper()
	data, err := fixtures.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture %s: %v", path, err)
	}
	return data
}

// CohortProject loads the two-arm cohort project. Arm 1 holds records A and
// C, arm 2 holds record B. The visit form repeats in enrolment_arm_1 and
// follow_up_arm_1, therapy_arm_1 is a repeating event.
func CohortProject(t testing.TB) *project.Project {
	t.Helper()

	p, err := project.LoadFS(fixtures, CohortProjectPath)
	if err != nil {
		t.Fatalf("load cohort project: %v", err)
	}
	return p
}

// CohortStore returns a fresh in-memory store seeded with the cohort data.
// Legacy composite values ("2:B", "follow_up_arm_1:1") are included so
// migration paths have something to rewrite.
func CohortStore(t testing.TB) *memory.Store {
	t.Helper()

	store, err := memory.LoadFixtureFS(fixtures, CohortDataPath)
	if err != nil {
		t.Fatalf("load cohort data: %v", err)
	}
	return store
}

// Cohort returns the cohort project and a fresh store.
func Cohort(t testing.TB) (*project.Project, *memory.Store) {
	t.Helper()
	return CohortProject(t), CohortStore(t)
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// AssertNoDiff fails the test with a go-cmp diff when want and got differ.
func AssertNoDiff(t testing.TB, want, got any, opts ...cmp.Option) {
	t.Helper()
	if diff := cmp.Diff(want, got, opts...); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t testing.TB, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t testing.TB, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// WriteGolden writes value as indented JSON when UPDATE_GOLDENS is set.
func WriteGolden(t testing.TB, path string, value any) {
	t.Helper()

	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		t.Fatalf("marshal golden: %v", err)
	}
	WriteMaybeGolden(t, path, payload)
}

// CaptureOutput executes a render function that writes to an io.Writer and
// returns what it wrote.
func CaptureOutput(t testing.TB, render func(io.Writer) error) string {
	t.Helper()

	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}
