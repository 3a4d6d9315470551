package content

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// OptionReader reads a single option value
type OptionReader interface {
	GetOption(ctx context.Context, name string) (string, bool, error)
}

// pluginDirs maps extension names to their plugin directories
var pluginDirs = map[string][]string{
	"woocommerce": {"woocommerce"},
	"oxygen":      {"oxygen"},
	"breakdance":  {"breakdance"},
}

var serializedString = regexp.MustCompile(`s:\d+:"([^"]*)";`)

// PluginDetector answers extension activity from the active_plugins option
type PluginDetector struct {
	options OptionReader
}

func NewPluginDetector(options OptionReader) *PluginDetector {
	return &PluginDetector{options: options}
}

// ActivePlugins returns the plugin entry files listed as active
func (d *PluginDetector) ActivePlugins(ctx context.Context) ([]string, error) {
	raw, ok, err := d.options.GetOption(ctx, "active_plugins")
	if err != nil {
		return nil, fmt.Errorf("failed to load active plugins: %w", err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	return parsePluginList(raw), nil
}

// IsActive reports whether any plugin directory mapped to extension is active
func (d *PluginDetector) IsActive(ctx context.Context, extension string) (bool, error) {
	dirs, known := pluginDirs[extension]
	if !known {
		return false, nil
	}
	plugins, err := d.ActivePlugins(ctx)
	if err != nil {
		return false, err
	}
	for _, p := range plugins {
		dir, _, _ := strings.Cut(p, "/")
		for _, want := range dirs {
			if strings.EqualFold(dir, want) {
				return true, nil
			}
		}
	}
	return false, nil
}

// parsePluginList accepts a JSON array or a PHP serialized array
func parsePluginList(raw string) []string {
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err == nil {
		return list
	}
	for _, m := range serializedString.FindAllStringSubmatch(raw, -1) {
		list = append(list, m[1])
	}
	return list
}
