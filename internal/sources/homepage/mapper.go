package homepage

import (
	"fmt"
	"sort"
	"strings"

	"github.com/MrSnakeDoc/shelf/internal/domain"
)

// Category is one Homepage bookmark group, imported as a topic.
type Category struct {
	Title   string
	Entries []Entry
}

// Entry is one importable link.
type Entry struct {
	Name        string
	URL         string
	Description *string
}

// Mapper converts Homepage bookmark config into import categories
type Mapper struct{}

// NewMapper creates a new bookmark mapper
func NewMapper() *Mapper {
	return &Mapper{}
}

// MapCategories keeps file order for categories and entries. Entries without
// a valid href are dropped, and a URL is kept once per category.
func (m *Mapper) MapCategories(config BookmarksConfig) ([]Category, error) {
	categories := make([]Category, 0, len(config))
	total := 0

	for _, group := range config {
		for _, title := range sortedKeys(group) {
			cat := Category{Title: strings.TrimSpace(title)}
			seen := make(map[string]bool)

			for _, bookmarkMap := range group[title] {
				for _, name := range sortedKeys(bookmarkMap) {
					entryList := bookmarkMap[name]
					if len(entryList) == 0 {
						continue
					}
					entry := entryList[0]

					href := strings.TrimSpace(entry.Href)
					if err := domain.ValidateURL(href); err != nil {
						continue
					}
					if seen[href] {
						continue
					}
					seen[href] = true

					cat.Entries = append(cat.Entries, Entry{
						Name:        name,
						URL:         href,
						Description: domain.OptionalString(strings.TrimSpace(entry.Description)),
					})
				}
			}

			if cat.Title == "" || len(cat.Entries) == 0 {
				continue
			}
			total += len(cat.Entries)
			categories = append(categories, cat)
		}
	}

	if total == 0 {
		return nil, fmt.Errorf("no valid bookmarks found in config")
	}

	return categories, nil
}

// sortedKeys gives a stable order when one YAML item holds several keys.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
