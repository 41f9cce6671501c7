package models

import (
	"sort"
	"strings"
)

// Score names used by the heuristic and synthetic generators.
const (
	ScoreCost           = "CostScore"
	ScoreServices       = "ServicesScore"
	ScoreConnectivity   = "ConnectivityScore"
	ScoreAvailablePlots = "AvailablePlots"
)

// AreaMetadata holds the numeric scores of one area.
type AreaMetadata struct {
	Location string             `json:"location"`
	Scores   map[string]float64 `json:"scores"`
}

// Score returns the named score, or def when the score is absent.
func (m *AreaMetadata) Score(name string, def float64) float64 {
	if m == nil {
		return def
	}
	if v, ok := m.Scores[name]; ok {
		return v
	}
	return def
}

// ScoreOrDefault treats a zero score the same as an absent one.
func (m *AreaMetadata) ScoreOrDefault(name string, def float64) float64 {
	if v := m.Score(name, def); v != 0 {
		return v
	}
	return def
}

// MetadataTable indexes area metadata by normalized area name.
type MetadataTable struct {
	areas map[string]*AreaMetadata
}

// NewMetadataTable builds a table; later rows for the same area win.
func NewMetadataTable(rows []AreaMetadata) *MetadataTable {
	t := &MetadataTable{areas: make(map[string]*AreaMetadata, len(rows))}
	for i := range rows {
		row := rows[i]
		key := AreaKey(row.Location)
		if key == "" {
			continue
		}
		row.Location = strings.TrimSpace(row.Location)
		if row.Scores == nil {
			row.Scores = map[string]float64{}
		}
		t.areas[key] = &row
	}
	return t
}

// Lookup finds an area's metadata, ignoring case and surrounding whitespace.
func (t *MetadataTable) Lookup(area string) (*AreaMetadata, bool) {
	if t == nil {
		return nil, false
	}
	m, ok := t.areas[AreaKey(area)]
	return m, ok
}

// All returns every area sorted by location name.
func (t *MetadataTable) All() []*AreaMetadata {
	if t == nil {
		return nil
	}
	out := make([]*AreaMetadata, 0, len(t.areas))
	for _, m := range t.areas {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Location < out[j].Location
	})
	return out
}

// Len returns the number of areas in the table.
func (t *MetadataTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.areas)
}
