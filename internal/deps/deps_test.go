package deps

import "testing"

func TestCheckBinaries(t *testing.T) {
	results := CheckBinaries([]Requirement{
		{Name: "Shell", Command: "sh", Description: "always present on POSIX"},
		{Name: "Ghost", Command: "definitely-not-a-binary-xyz"},
		{Name: "Unset", Command: ""},
	})
	if len(results) != 3 {
		t.Fatalf("results = %d", len(results))
	}
	if !results[0].Available {
		t.Fatalf("sh unavailable: %+v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("ghost = %+v", results[1])
	}
	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unset = %+v", results[2])
	}
}
