package config

import "sort"

var Presets = map[string]EnvironmentConfig{
	"isa":           {Temperature: 15, Altitude: 0, Surface: "dry"},
	"dashboard":     {Temperature: DefaultTemperature, Altitude: DefaultAltitude, Surface: DefaultSurface},
	"hot_day":       {Temperature: 40, Altitude: 0, Surface: "dry"},
	"high_altitude": {Temperature: 10, Altitude: 2500, Surface: "dry"},
	"rain":          {Temperature: 12, Altitude: 0, Surface: "wet"},
	"ice":           {Temperature: -5, Altitude: 0, Surface: "icy"},
	"arctic":        {Temperature: -40, Altitude: 0, Surface: "icy"},
}

func GetPreset(name string) *EnvironmentConfig {
	env, ok := Presets[name]
	if !ok {
		return nil
	}
	return &env
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
