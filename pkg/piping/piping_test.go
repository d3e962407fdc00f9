package piping

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-instanceselect/pkg/project"
)

func testProject(t *testing.T) *project.Project {
	t.Helper()
	p, err := project.New(project.Definition{
		ID:   1,
		Arms: []project.Arm{{Num: 1, Name: "Main"}},
		Events: []project.Event{
			{ID: 10, UniqueName: "enrolment_arm_1", Name: "Enrolment", Arm: 1,
				RepeatingForms: map[string]string{"visit": "[visit_date] [visit_type]"}},
			{ID: 11, UniqueName: "therapy_arm_1", Name: "Therapy", Arm: 1, Repeating: true, CustomLabel: "[dose] mg"},
		},
		Forms: []project.Form{
			{Name: "enrolment", Fields: []project.Field{
				{Name: "record_id", ElementType: "text"},
				{Name: "first_name", ElementType: "text"},
			}},
			{Name: "visit", Fields: []project.Field{
				{Name: "visit_date", ElementType: "text"},
				{Name: "visit_type", ElementType: "text"},
			}},
			{Name: "therapy", Fields: []project.Field{{Name: "dose", ElementType: "text"}}},
		},
	})
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	return p
}

func TestEngine_PipeInstanceValues(t *testing.T) {
	engine, err := New(testProject(t))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	data := project.NewDataset([]project.Value{
		{Record: "1", EventID: 10, Form: "enrolment", Field: "first_name", Value: "Ada"},
		{Record: "1", EventID: 10, Form: "visit", Instance: 2, Field: "visit_date", Value: "2024-03-01"},
		{Record: "1", EventID: 10, Form: "visit", Instance: 2, Field: "visit_type", Value: "<b>Routine</b>"},
		{Record: "1", EventID: 11, Form: "therapy", Instance: 1, Field: "dose", Value: "25"},
	})

	cases := []struct {
		label string
		scope Scope
		want  string
	}{
		{"[visit_date] [visit_type]", Scope{Record: "1", EventID: 10, Instance: 2}, "2024-03-01 <b>Routine</b>"},
		{"[visit_date] [visit_type]", Scope{Record: "1", EventID: 10, Instance: 1}, " "},
		{"[first_name] visit on [visit_date]", Scope{Record: "1", EventID: 10, Instance: 2}, "Ada visit on 2024-03-01"},
		{"[therapy_arm_1][dose] mg for [first_name]", Scope{Record: "1", EventID: 10}, "25 mg for Ada"},
		{"{{ not_a_template }} [unknown] [first_name]", Scope{Record: "1", EventID: 10}, "{{ not_a_template }} [unknown] Ada"},
		{"no references", Scope{Record: "1", EventID: 10}, "no references"},
	}

	for _, tc := range cases {
		got, err := engine.Pipe(context.Background(), tc.label, tc.scope, data)
		if err != nil {
			t.Fatalf("pipe %q: %v", tc.label, err)
		}
		if got != tc.want {
			t.Errorf("pipe %q = %q, want %q", tc.label, got, tc.want)
		}
	}
}

func TestEngine_PipeDateFormats(t *testing.T) {
	p, err := project.New(project.Definition{
		ID:     2,
		Arms:   []project.Arm{{Num: 1, Name: "Main"}},
		Events: []project.Event{{ID: 10, UniqueName: "visit_arm_1", Name: "Visit", Arm: 1}},
		Forms: []project.Form{
			{Name: "visit", Fields: []project.Field{
				{Name: "seen_ymd", ElementType: "text", ValidationType: "date_ymd"},
				{Name: "seen_dmy", ElementType: "text", ValidationType: "date_dmy"},
				{Name: "seen_at", ElementType: "text", ValidationType: "datetime_mdy"},
				{Name: "note", ElementType: "text", ValidationType: "date_dmy"},
			}},
		},
	})
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	engine, err := New(p)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	data := project.NewDataset([]project.Value{
		{Record: "1", EventID: 10, Form: "visit", Field: "seen_ymd", Value: "2024-03-01"},
		{Record: "1", EventID: 10, Form: "visit", Field: "seen_dmy", Value: "2024-03-01"},
		{Record: "1", EventID: 10, Form: "visit", Field: "seen_at", Value: "2024-03-01 09:30"},
		{Record: "1", EventID: 10, Form: "visit", Field: "note", Value: "unknown"},
	})

	got, err := engine.Pipe(context.Background(), "[seen_ymd]|[seen_dmy]|[seen_at]|[note]", Scope{Record: "1", EventID: 10}, data)
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	if want := "2024-03-01|01-03-2024|03-01-2024 09:30|unknown"; got != want {
		t.Fatalf("pipe = %q, want %q", got, want)
	}
}

func TestEngine_Fields(t *testing.T) {
	engine, err := New(testProject(t))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	got := engine.Fields("[visit_date] [therapy_arm_1][dose] [visit_date] [nope]")
	want := []string{"visit_date", "dose"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestPlainText(t *testing.T) {
	cases := map[string]string{
		"  <b>Routine</b> &amp; more ": "Routine & more",
		"<script>alert(1)</script>ok":  "ok",
		"O'Neil":                       "O'Neil",
		"   ":                          "",
	}
	for in, want := range cases {
		if got := PlainText(in); got != want {
			t.Errorf("PlainText(%q) = %q, want %q", in, got, want)
		}
	}
}
