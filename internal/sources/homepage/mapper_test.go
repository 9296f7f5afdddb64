package homepage

import "testing"

func TestMapperMapCategories(t *testing.T) {
	config := BookmarksConfig{
		{"Developer": {
			{"Github": {{Abbr: "GH", Href: "https://github.com/", Description: "code"}}},
			{"Go": {{Href: "https://go.dev/"}}},
		}},
		{"Social": {
			{"Reddit": {{Href: "https://reddit.com/"}}},
		}},
	}

	cats, err := NewMapper().MapCategories(config)
	if err != nil {
		t.Fatalf("MapCategories() error = %v", err)
	}

	if len(cats) != 2 {
		t.Fatalf("got %d categories, want 2", len(cats))
	}
	if cats[0].Title != "Developer" || cats[1].Title != "Social" {
		t.Errorf("category order = %q, %q", cats[0].Title, cats[1].Title)
	}
	if len(cats[0].Entries) != 2 {
		t.Fatalf("Developer entries = %d, want 2", len(cats[0].Entries))
	}
	gh := cats[0].Entries[0]
	if gh.URL != "https://github.com/" || gh.Description == nil || *gh.Description != "code" {
		t.Errorf("unexpected entry: %+v", gh)
	}
	if cats[0].Entries[1].Description != nil {
		t.Error("empty description should map to nil")
	}
}

func TestMapperMapCategoriesEmptyConfig(t *testing.T) {
	_, err := NewMapper().MapCategories(BookmarksConfig{})
	if err == nil {
		t.Error("MapCategories() with empty config should return error")
	}
}

func TestMapperSkipsInvalidAndDuplicateURLs(t *testing.T) {
	config := BookmarksConfig{
		{"Mixed": {
			{"Empty": {{Href: ""}}},
			{"Broken": {{Href: "not a url"}}},
			{"A": {{Href: "https://example.com"}}},
			{"B": {{Href: "https://example.com"}}},
			{"NoEntry": {}},
		}},
		{"Nothing": {
			{"Empty": {{Href: ""}}},
		}},
	}

	cats, err := NewMapper().MapCategories(config)
	if err != nil {
		t.Fatalf("MapCategories() error = %v", err)
	}

	if len(cats) != 1 {
		t.Fatalf("got %d categories, want 1", len(cats))
	}
	if len(cats[0].Entries) != 1 {
		t.Errorf("got %d entries, want 1", len(cats[0].Entries))
	}
}
