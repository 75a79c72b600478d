package github

import (
	"encoding/json"
	"testing"
)

func TestRepositorySummary_DecodeFixture(t *testing.T) {
	var repos []RepositorySummary
	if err := json.Unmarshal([]byte(twoSummaries), &repos); err != nil {
		t.Fatal(err)
	}
	if len(repos) != 2 {
		t.Fatalf("got %d summaries, want 2", len(repos))
	}

	want := RepositorySummary{ID: 1, Name: "swift", FullName: "swiftlang/swift", StargazersCount: 100}
	got := repos[0]
	if got.ID != want.ID || got.Name != want.Name || got.FullName != want.FullName || got.StargazersCount != want.StargazersCount {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if got.GetDescription() != "The Swift Programming Language" {
		t.Errorf("description = %q", got.GetDescription())
	}
}

func TestRepositorySummary_GetDescription(t *testing.T) {
	desc := "tools"
	tests := []struct {
		repo RepositorySummary
		want string
	}{
		{RepositorySummary{Description: &desc}, "tools"},
		{RepositorySummary{}, ""},
	}
	for _, tt := range tests {
		if got := tt.repo.GetDescription(); got != tt.want {
			t.Errorf("GetDescription() = %q, want %q", got, tt.want)
		}
	}
}
