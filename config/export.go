package config

import "fmt"

// ExportConfig defines where and how run results are written.
type ExportConfig struct {
	// Dir is the output directory, created if missing.
	Dir string `json:"dir"`
	// Formats selects the writers: "json" (manifest), "csv" (flat results)
	// and "table" (threshold table in the Cons/Prod row layout).
	Formats []string `json:"formats"`
}

// SetDefaults applies sane defaults.
func (c *ExportConfig) SetDefaults() {
	if c.Dir == "" {
		c.Dir = "results"
	}
	if len(c.Formats) == 0 {
		c.Formats = []string{"json"}
	}
}

// Validate checks the requested formats.
func (c ExportConfig) Validate() error {
	for _, f := range c.Formats {
		switch f {
		case "json", "csv", "table":
		default:
			return fmt.Errorf("unknown export format %q", f)
		}
	}
	return nil
}

// Wants reports whether the given format was requested.
func (c ExportConfig) Wants(format string) bool {
	for _, f := range c.Formats {
		if f == format {
			return true
		}
	}
	return false
}
