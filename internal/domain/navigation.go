package domain

// NavigationEntry is a single link rendered in the navigation bar.
// Entries are supplied by the host configuration and never modified.
type NavigationEntry struct {
	// Name is the visible link text.
	// Example: "Docs"
	Name string `yaml:"name" json:"name"`

	// URL is the link target, used verbatim as href.
	// Example: /docs
	URL string `yaml:"url" json:"url"`
}

// NavigationConfig is the plugin configuration captured on each start event.
type NavigationConfig struct {
	// NavigatorList is rendered in order, one list item per entry.
	NavigatorList []NavigationEntry `yaml:"navigatorList" json:"navigatorList"`
}

// Len returns the number of entries in the navigator list.
func (c NavigationConfig) Len() int {
	return len(c.NavigatorList)
}

// Clone returns a copy whose entry slice does not alias c.
func (c NavigationConfig) Clone() NavigationConfig {
	if c.NavigatorList == nil {
		return NavigationConfig{NavigatorList: []NavigationEntry{}}
	}
	entries := make([]NavigationEntry, len(c.NavigatorList))
	copy(entries, c.NavigatorList)
	return NavigationConfig{NavigatorList: entries}
}

// HostConfig is the configuration object delivered with the host start event.
type HostConfig struct {
	// ─────────────────────────────
	// Plugin sections
	// ─────────────────────────────

	// Navigation holds the navigator list. Nil means "not configured".
	Navigation *NavigationConfig `yaml:"navigation,omitempty" json:"navigation,omitempty"`

	// LegacyNavigation is the misspelled key older books still carry.
	// It is only consulted when Navigation is nil.
	LegacyNavigation *NavigationConfig `yaml:"nvigation,omitempty" json:"nvigation,omitempty"`
}

// NavigationOrEmpty returns the navigation section, falling back to the
// legacy key and finally to an empty list.
func (h HostConfig) NavigationOrEmpty() NavigationConfig {
	switch {
	case h.Navigation != nil:
		return h.Navigation.Clone()
	case h.LegacyNavigation != nil:
		return h.LegacyNavigation.Clone()
	default:
		return NavigationConfig{NavigatorList: []NavigationEntry{}}
	}
}
