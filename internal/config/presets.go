package config

import "sort"

func preset(tweak func(*Config)) *Config {
	cfg := DefaultConfig()
	tweak(cfg)
	return cfg
}

var Presets = map[string]map[string]*Config{
	"uniform": {
		"tiny": preset(func(c *Config) {
			c.Grid.N = 4
			c.Grid.BoxMpc = 0.5
			c.Sources = SourcesConfig{Inline: []SourceConfig{{0, 0, 0, DefaultFlux}}}
		}),
		"single": preset(func(c *Config) {
			c.Grid.N = 32
			c.Sources = SourcesConfig{Inline: []SourceConfig{{16, 16, 16, DefaultFlux}}}
		}),
		"field": preset(func(c *Config) {
			c.Grid.N = 48
			c.Grid.BoxMpc = 20
			c.Sources = SourcesConfig{Random: 64, Flux: 2e53, Seed: 7}
		}),
		"isolated": preset(func(c *Config) {
			c.Grid.N = 32
			c.Grid.Periodic = false
			c.Raytrace.Radius = 12
			c.Sources = SourcesConfig{Inline: []SourceConfig{{8, 8, 8, DefaultFlux}}}
		}),
	},
	"clumpy": {
		"cluster": preset(func(c *Config) {
			c.Grid.N = 32
			c.Density = DensityConfig{Kind: "clumpy", Mean: DefaultDensity, Contrast: 50, Clumps: 16, Seed: 3}
			c.Sources = SourcesConfig{Random: 12, Flux: 5e53, Seed: 3}
		}),
		"shadow": preset(func(c *Config) {
			c.Grid.N = 32
			c.Density = DensityConfig{Kind: "clumpy", Mean: DefaultDensity, Contrast: 200, Clumps: 4, Seed: 11}
			c.Sources = SourcesConfig{Inline: []SourceConfig{{4, 16, 16, DefaultFlux}}}
		}),
	},
	"ionized": {
		"late": preset(func(c *Config) {
			c.Grid.N = 32
			c.Ionization = IonizationConfig{XHII: 0.9, XHeII: 0.85, XHeIII: 0.1}
			c.Sources = SourcesConfig{Random: 16, Flux: DefaultFlux, Seed: 5}
		}),
		"helium": preset(func(c *Config) {
			c.Grid.N = 32
			c.Ionization = IonizationConfig{XHII: 0.5, XHeII: 0, XHeIII: 1}
			c.Sources = SourcesConfig{Inline: []SourceConfig{{16, 16, 16, DefaultFlux}}}
		}),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(group, name string) *Config {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	cfg, ok := groupPresets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(group string) []string {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(groupPresets))
	for name := range groupPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ListGroups() []string {
	groups := make([]string, 0, len(Presets))
	for g := range Presets {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}
