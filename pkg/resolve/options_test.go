package resolve

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-instanceselect/pkg/actiontag"
)

func TestOptionSet_OrderAndUniqueness(t *testing.T) {
	var set OptionSet
	if !set.Empty() {
		t.Fatalf("zero value should be empty")
	}
	set.Add("2", "second")
	set.Add("1", "first")
	if set.Add("2", "again") {
		t.Fatalf("duplicate value accepted")
	}

	want := []string{"2", "1"}
	for i := 0; i < 2; i++ {
		if diff := cmp.Diff(want, set.Values()); diff != "" {
			t.Fatalf("iteration %d order mismatch (-want +got):\n%s", i, diff)
		}
	}
	if label, ok := set.Label("2"); !ok || label != "second" {
		t.Fatalf("label = %q, %v", label, ok)
	}
	if set.Has("3") {
		t.Fatalf("unexpected value 3")
	}
}

func TestOptionSet_JSON(t *testing.T) {
	set := NewOptionSet(Option{Value: "b", Label: "B"}, Option{Value: "a", Label: "A"})
	payload, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if want := `[{"value":"b","label":"B"},{"value":"a","label":"A"}]`; string(payload) != want {
		t.Fatalf("json = %s, want %s", payload, want)
	}

	empty, err := json.Marshal(OptionSet{})
	if err != nil {
		t.Fatalf("marshal empty: %v", err)
	}
	if string(empty) != "[]" {
		t.Fatalf("empty json = %s", empty)
	}

	var decoded OptionSet
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff(set.Options(), decoded.Options()); diff != "" {
		t.Fatalf("decoded mismatch (-want +got):\n%s", diff)
	}
	if err := json.Unmarshal([]byte(`[{"value":"x"},{"value":"x"}]`), &decoded); err == nil {
		t.Fatalf("expected duplicate value error")
	}
}

func TestSeparators_Split(t *testing.T) {
	seps := DefaultSeparators()
	cases := []struct {
		in, qualifier, base string
		ok                  bool
	}{
		{"1:A:B", "1", "A:B", true},
		{"1.A:B", "1", "A:B", true},
		{"event_arm_1:form", "event_arm_1", "form", true},
		{"visit", "", "visit", false},
	}
	for _, tc := range cases {
		q, b, ok := seps.Split(tc.in)
		if q != tc.qualifier || b != tc.base || ok != tc.ok {
			t.Errorf("Split(%q) = (%q, %q, %v), want (%q, %q, %v)", tc.in, q, b, ok, tc.qualifier, tc.base, tc.ok)
		}
	}
	if got := seps.Join("2", "B"); got != "2.B" {
		t.Fatalf("Join = %q", got)
	}
}

func TestParseLookup(t *testing.T) {
	seps := DefaultSeparators()
	cases := []struct {
		tag   actiontag.Tag
		param string
		want  Lookup
	}{
		{actiontag.RecordInstance, "", RecordLookup{}},
		{actiontag.RecordInstance, "'1, 2 ,1'", RecordLookup{Arms: []string{"1", "2"}}},
		{actiontag.FormInstance, "visit", FormLookup{Form: "visit"}},
		{actiontag.FormInstance, " enrolment_arm_1.visit ", FormLookup{Event: "enrolment_arm_1", Form: "visit"}},
		{actiontag.FormInstance, "enrolment_arm_1:visit", FormLookup{Event: "enrolment_arm_1", Form: "visit"}},
		{actiontag.EventInstance, "therapy_arm_1", EventLookup{Event: "therapy_arm_1"}},
	}
	for _, tc := range cases {
		got, err := ParseLookup(tc.tag, tc.param, seps)
		if err != nil {
			t.Fatalf("ParseLookup(%s, %q): %v", tc.tag, tc.param, err)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("ParseLookup(%s, %q) mismatch (-want +got):\n%s", tc.tag, tc.param, diff)
		}
		if got.Tag() != tc.tag {
			t.Errorf("lookup tag = %s, want %s", got.Tag(), tc.tag)
		}
	}
}
