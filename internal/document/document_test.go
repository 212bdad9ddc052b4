package document

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var malformedInputs = []any{
	nil,
	"",
	"not json",
	"[1,2,3]",
	`"just a string"`,
	"null",
	42,
	[]byte(`{"hero":"oops","goals":"x","workPlan":{"a":1},"pricing":[1,null,{"points":7}]}`),
	`{"client":{"name":5},"workPlan":{"points":[{"text":1,"done":"yes"}]},"calendar":{},"payments":{"entries":null}}`,
	`{"results":{"campaignItems":[null,{"adSets":[{"ads":[{"reach":"5"},{"metrics":null,"messages":"2"}]}]}]},"plan":{"points":[1,"a"]}}`,
	map[string]any{"goals": []any{"a", 3, nil}, "noticed": []any{"seen"}},
	json.RawMessage(`{"workPlan":[{"number":9,"bullets":[{"text":"a","highlightColor":"#fff"}]},"junk"]}`),
}

func TestNormalizeNilEqualsEmptyTemplate(t *testing.T) {
	for _, kind := range []Kind{KindProposal, KindProgress, KindMeta} {
		t.Run(string(kind), func(t *testing.T) {
			got, err := Normalize(kind, nil)
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			want, err := Empty(kind)
			if err != nil {
				t.Fatalf("Empty() error = %v", err)
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("Normalize(nil) mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	for _, kind := range []Kind{KindProposal, KindProgress, KindMeta} {
		for i, input := range malformedInputs {
			once, err := Normalize(kind, input)
			if err != nil {
				t.Fatalf("Normalize() error = %v", err)
			}
			twice, _ := Normalize(kind, once)
			if diff := cmp.Diff(once, twice); diff != "" {
				t.Fatalf("%s input %d not idempotent (-once +twice):\n%s", kind, i, diff)
			}
			fromStorage, _ := Normalize(kind, Marshal(once))
			if diff := cmp.Diff(once, fromStorage); diff != "" {
				t.Fatalf("%s input %d changed after storage round trip:\n%s", kind, i, diff)
			}
		}
	}
}

func TestNormalizeUnknownKind(t *testing.T) {
	if _, err := Normalize(Kind("invoice"), nil); err != ErrUnknownKind {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestDecodeObjectAcceptsTypedDocuments(t *testing.T) {
	in := EmptyMeta()
	in.Client.Name = "Acme"
	got := NormalizeMeta(&in)
	if got.Client.Name != "Acme" {
		t.Fatalf("expected client name from pointer input, got %q", got.Client.Name)
	}
	s := `{"client":{"name":"Beta"}}`
	if NormalizeMeta(&s).Client.Name != "Beta" {
		t.Fatalf("expected client name from *string input")
	}
}

func TestTruthy(t *testing.T) {
	cases := map[string]struct {
		in   any
		want bool
	}{
		"nil":          {nil, false},
		"false":        {false, false},
		"zero":         {float64(0), false},
		"empty string": {"", false},
		"true":         {true, true},
		"number":       {float64(2), true},
		"string":       {"no", true},
		"object":       {map[string]any{}, true},
	}
	for name, tc := range cases {
		if got := truthy(tc.in); got != tc.want {
			t.Errorf("%s: truthy(%v) = %v, want %v", name, tc.in, got, tc.want)
		}
	}
}
