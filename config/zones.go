package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ZoneFile is the on-disk layout of the zone map.
type ZoneFile struct {
	Zones []Zone `json:"zones"`
}

type Zone struct {
	Name  string   `json:"name"`
	Areas []string `json:"areas"`
}

// Zones maps a normalized area name to the zone it belongs to.
type Zones map[string]string

// LoadZones reads the zone map. An empty path yields an empty map.
func LoadZones(path string) (Zones, error) {
	zones := Zones{}
	if path == "" {
		return zones, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read zones file: %w", err)
	}

	var file ZoneFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse zones file: %w", err)
	}

	for _, zone := range file.Zones {
		name := strings.TrimSpace(zone.Name)
		if name == "" {
			continue
		}
		for _, area := range zone.Areas {
			key := strings.ToLower(strings.TrimSpace(area))
			if key == "" {
				continue
			}
			// first zone listing an area wins
			if _, ok := zones[key]; !ok {
				zones[key] = name
			}
		}
	}
	return zones, nil
}

// ZoneOf returns the zone of an area, or "" when it has none.
func (z Zones) ZoneOf(area string) string {
	return z[strings.ToLower(strings.TrimSpace(area))]
}
