package migrate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-instanceselect/pkg/migrate"
	"github.com/goliatone/go-instanceselect/pkg/project"
	"github.com/goliatone/go-instanceselect/pkg/resolve"
	"github.com/goliatone/go-instanceselect/pkg/store/memory"
	"github.com/goliatone/go-instanceselect/pkg/testsupport"
)

func TestMigrate_RewritesOnlyChangedValues(t *testing.T) {
	store := testsupport.CohortStore(t)
	m, err := migrate.New(store)
	if err != nil {
		t.Fatalf("new migrator: %v", err)
	}

	report, err := m.Migrate(context.Background(), []string{"linked_record", "linked_visit", "first_name"})
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	testsupport.AssertNoDiff(t, migrate.Report{
		Fields:    []string{"linked_record", "linked_visit", "first_name"},
		Scanned:   5,
		Rewritten: 2,
		Records:   []string{"A", "C"},
	}, report)

	writes := store.Writes()
	if len(writes) != 1 {
		t.Fatalf("writes = %d, want a single bulk write", len(writes))
	}
	testsupport.AssertNoDiff(t, []project.Value{
		{Record: "A", EventID: 10, Form: "enrolment", Field: "linked_record", Value: "2.B"},
		{Record: "C", EventID: 10, Form: "enrolment", Field: "linked_visit", Value: "follow_up_arm_1.1"},
	}, writes[0])
}

func TestMigrate_Idempotent(t *testing.T) {
	store := testsupport.CohortStore(t)
	m, err := migrate.New(store)
	if err != nil {
		t.Fatalf("new migrator: %v", err)
	}
	fields := []string{"linked_record", "linked_visit"}

	if _, err := m.Migrate(context.Background(), fields); err != nil {
		t.Fatalf("first run: %v", err)
	}
	before, err := store.Read(context.Background(), project.Query{})
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	report, err := m.Migrate(context.Background(), fields)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if report.Changed() || len(report.Records) != 0 {
		t.Fatalf("second run changed data: %+v", report)
	}
	if got := len(store.Writes()); got != 1 {
		t.Fatalf("writes = %d, want 1", got)
	}
	after, err := store.Read(context.Background(), project.Query{})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	testsupport.AssertNoDiff(t, before, after)
}

func TestMigrate_SplitsOnFirstSeparator(t *testing.T) {
	store := memory.New(memory.WithValues(
		project.Value{Record: "1", EventID: 1, Field: "link", Value: "1:A:B"},
		project.Value{Record: "2", EventID: 1, Field: "link", Value: "2:C.D"},
		project.Value{Record: "3", EventID: 1, Field: "link", Value: "1.E:F"},
	))
	m, err := migrate.New(store)
	if err != nil {
		t.Fatalf("new migrator: %v", err)
	}
	if _, err := m.Migrate(context.Background(), []string{"link"}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	values, err := store.Read(context.Background(), project.Query{Fields: []string{"link"}})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	got := make([]string, len(values))
	for i, v := range values {
		got[i] = v.Value
	}
	testsupport.AssertNoDiff(t, []string{"1.A:B", "2.C.D", "1.E:F"}, got)
}

func TestMigrate_Disabled(t *testing.T) {
	store := testsupport.CohortStore(t)
	m, err := migrate.New(store, migrate.WithEnabled(false))
	if err != nil {
		t.Fatalf("new migrator: %v", err)
	}
	report, err := m.Migrate(context.Background(), []string{"linked_record"})
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if report.Changed() || len(store.Writes()) != 0 {
		t.Fatalf("disabled migrator wrote data: %+v", report)
	}
}

func TestMigrate_CustomSeparators(t *testing.T) {
	store := memory.New(memory.WithValues(
		project.Value{Record: "1", EventID: 1, Field: "link", Value: "2|7"},
	))
	m, err := migrate.New(store, migrate.WithSeparators(resolve.Separators{Current: "~", Legacy: "|"}))
	if err != nil {
		t.Fatalf("new migrator: %v", err)
	}
	if got, ok := m.Rewrite("2|7"); !ok || got != "2~7" {
		t.Fatalf("rewrite = %q, %v", got, ok)
	}
	if _, err := migrate.New(store, migrate.WithSeparators(resolve.Separators{Current: ":", Legacy: ":"})); err == nil {
		t.Fatalf("expected error for identical separators")
	}
}

type brokenStore struct{ *memory.Store }

var errWrite = errors.New("write refused")

func (brokenStore) Write(context.Context, []project.Value) error { return errWrite }

func TestMigrate_WriteFailurePropagates(t *testing.T) {
	m, err := migrate.New(brokenStore{testsupport.CohortStore(t)})
	if err != nil {
		t.Fatalf("new migrator: %v", err)
	}
	_, err = m.Migrate(context.Background(), []string{"linked_record"})
	if !errors.Is(err, errWrite) {
		t.Fatalf("expected write error, got %v", err)
	}
}

func TestMigrate_PlanDoesNotWrite(t *testing.T) {
	store := testsupport.CohortStore(t)
	m, err := migrate.New(store, migrate.WithEnabled(false))
	if err != nil {
		t.Fatalf("new migrator: %v", err)
	}

	report, changed, err := m.Plan(context.Background(), []string{"linked_record", "linked_visit"})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if report.Rewritten != 2 || len(changed) != 2 {
		t.Fatalf("plan = %+v, %d changes", report, len(changed))
	}
	if changed[0].Value != "2.B" {
		t.Fatalf("first change = %+v", changed[0])
	}
	if len(store.Writes()) != 0 {
		t.Fatalf("plan must not write")
	}
}
