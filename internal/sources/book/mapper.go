package book

import "github.com/MrSnakeDoc/navbar/internal/domain"

// StartConfig returns the configuration delivered with the start event:
// pluginsConfig when present, otherwise the plugin keys at the file root.
func (f File) StartConfig() domain.HostConfig {
	if f.PluginsConfig != nil {
		return *f.PluginsConfig
	}
	return f.HostConfig
}
