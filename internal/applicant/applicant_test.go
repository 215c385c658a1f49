package applicant

import (
	"reflect"
	"testing"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		role Role
		key  string
	}{
		{name: "resume", path: "/tmp/in/Resume_Jane-Doe_GetHired.pdf", role: Resume, key: "Jane-Doe"},
		{name: "cover letter", path: "CoverLetter_Jane-Doe_2024.pdf", role: CoverLetter, key: "Jane-Doe"},
		{name: "no suffix", path: "Resume_Jane-Doe.pdf", role: Resume, key: "Jane-Doe"},
		{name: "suffix keeps underscores", path: "Resume_Jane-Doe_a_b_c.pdf", role: Resume, key: "Jane-Doe"},
		{name: "middle name collapses", path: "Resume_Anna-O-Keefe_z.pdf", role: Resume, key: "Anna-Keefe"},
		{name: "many hyphens collapse", path: "Resume_A-B-C-D-E_z.pdf", role: Resume, key: "A-E"},
		{name: "role is case sensitive", path: "resume_Jane-Doe_x.pdf", role: Unknown, key: "Jane-Doe"},
		{name: "lowercase letter role", path: "Coverletter_Jane-Doe_x.pdf", role: Unknown, key: "Jane-Doe"},
		{name: "single segment", path: "Resume.pdf", role: Unknown, key: UnknownKey},
		{name: "no extension", path: "Resume_Jane-Doe", role: Resume, key: "Jane-Doe"},
		{name: "single name", path: "Resume_Cher_x.pdf", role: Resume, key: "Cher"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			role, key := Resolve(tt.path)
			if role != tt.role || key != tt.key {
				t.Fatalf("Resolve(%q) = (%s, %q), want (%s, %q)", tt.path, role, key, tt.role, tt.key)
			}
		})
	}
}

func TestResolveIsPure(t *testing.T) {
	t.Parallel()

	role1, key1 := Resolve("/a/Resume_Jane-Doe_x.pdf")
	role2, key2 := Resolve("/b/c/Resume_Jane-Doe_x.pdf")
	if role1 != role2 || key1 != key2 {
		t.Fatalf("expected resolution to depend on the file name only")
	}
}

func TestAggregate(t *testing.T) {
	t.Parallel()

	bundles := Aggregate([]string{
		"Resume_Jane-Doe_x.pdf",
		"CoverLetter_Jane-Doe_y.pdf",
		"Resume_Anna-O-Keefe_z.pdf",
	})

	if bundles.Len() != 2 {
		t.Fatalf("expected 2 bundles, got %d", bundles.Len())
	}

	want := []*Bundle{
		{Key: "Jane-Doe", ResumePath: "Resume_Jane-Doe_x.pdf", CoverLetterPath: "CoverLetter_Jane-Doe_y.pdf"},
		{Key: "Anna-Keefe", ResumePath: "Resume_Anna-O-Keefe_z.pdf"},
	}
	if got := bundles.Items(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected bundles in discovery order: %+v", got)
	}
}

func TestAggregateDropsUnknownRoles(t *testing.T) {
	t.Parallel()

	bundles := Aggregate([]string{
		"Portfolio_Jane-Doe_x.pdf",
		"notes.pdf",
		"CoverLetter_John-Roe_y.pdf",
	})

	if bundles.Len() != 1 {
		t.Fatalf("expected 1 bundle, got %d: %+v", bundles.Len(), bundles.Items())
	}

	items := bundles.Items()
	if len(items) != 1 || items[0].Key != "John-Roe" || items[0].ResumePath != "" {
		t.Fatalf("unexpected items: %+v", items)
	}
	if items[0].Empty() {
		t.Fatalf("bundle with a cover letter is not empty")
	}
}

func TestAggregateEmpty(t *testing.T) {
	t.Parallel()

	bundles := Aggregate(nil)
	if bundles.Len() != 0 || len(bundles.Items()) != 0 {
		t.Fatalf("expected no bundles")
	}

	var nilBundles *Bundles
	if nilBundles.Len() != 0 || nilBundles.Items() != nil {
		t.Fatalf("nil bundles must behave as empty")
	}
}
