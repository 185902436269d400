package registry

// Definition is one registry entry describing a library component for
// documentation purposes. Optional fields use "" for absent.
type Definition struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Icon        string `json:"icon,omitempty" yaml:"icon,omitempty"`
	Category    string `json:"category" yaml:"category"`
	Slug        string `json:"slug,omitempty" yaml:"slug,omitempty"`
	StoryID     string `json:"story_id,omitempty" yaml:"story_id,omitempty"`
	ImportCode  string `json:"import_code,omitempty" yaml:"import_code,omitempty"`
	UsageCode   string `json:"usage_code,omitempty" yaml:"usage_code,omitempty"`
}

// IsComplete reports whether the definition is navigable and gets a
// generated page: both Slug and StoryID must be present.
//
// Every navigation, sort, breadcrumb and page-generation path goes through
// this predicate.
func (d Definition) IsComplete() bool {
	return d.Slug != "" && d.StoryID != ""
}

// Category is one member of a site's fixed category enumeration.
type Category struct {
	Name        string   `json:"name" yaml:"name"`
	Label       string   `json:"label,omitempty" yaml:"label,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Aliases     []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
}

// DisplayLabel returns Label, or the raw Name when no label is set.
func (c Category) DisplayLabel() string {
	if c.Label != "" {
		return c.Label
	}
	return c.Name
}

// SearchResult holds a definition match with the reason it matched.
type SearchResult struct {
	Definition  *Definition
	MatchReason string // "name", "description" or "fuzzy"
}
