package book

import "github.com/MrSnakeDoc/navbar/internal/domain"

// File is the root of book.json / book.yaml.
// Plugin settings normally live under pluginsConfig; older books put
// them at the root, which is why the root also embeds the plugin keys.
type File struct {
	Title         string             `yaml:"title,omitempty"`
	Plugins       []string           `yaml:"plugins,omitempty"`
	PluginsConfig *domain.HostConfig `yaml:"pluginsConfig,omitempty"`

	domain.HostConfig `yaml:",inline"`
}
