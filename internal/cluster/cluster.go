// Package cluster groups joined records into H3 hexagon cells so dense
// marker sets can be drawn as one bubble per cell.
package cluster

import (
	"fmt"
	"slices"
	"strings"

	"github.com/couchcryptid/supply-map-service/internal/domain"
	"github.com/uber/h3-go/v4"
)

// Cluster is the set of records falling in one H3 cell.
type Cluster struct {
	Cell   string         `json:"cell"`
	Center domain.Geo     `json:"center"`
	Count  int            `json:"count"`
	Labels []string       `json:"labels"`
	Colors map[string]int `json:"colors,omitempty"`
}

// ByCell groups markers by the H3 cell at the given resolution. The center
// is the mean of the member coordinates. Clusters are sorted by cell ID.
func ByCell(markers []domain.Marker, resolution int) ([]Cluster, error) {
	byCell := make(map[string]*Cluster)
	sums := make(map[string]domain.Geo)

	for _, m := range markers {
		g := m.Record.Geo
		cell, err := h3.LatLngToCell(h3.NewLatLng(g.Lat, g.Lon), resolution)
		if err != nil {
			return nil, fmt.Errorf("h3 cell at res %d: %w", resolution, err)
		}
		id := cell.String()

		c, ok := byCell[id]
		if !ok {
			c = &Cluster{Cell: id, Labels: []string{}, Colors: map[string]int{}}
			byCell[id] = c
		}
		c.Count++
		if m.Label != "" {
			c.Labels = append(c.Labels, m.Label)
		}
		if m.Color != "" {
			c.Colors[m.Color]++
		}
		s := sums[id]
		sums[id] = domain.Geo{Lat: s.Lat + g.Lat, Lon: s.Lon + g.Lon}
	}

	out := make([]Cluster, 0, len(byCell))
	for id, c := range byCell {
		s := sums[id]
		c.Center = domain.Geo{Lat: s.Lat / float64(c.Count), Lon: s.Lon / float64(c.Count)}
		out = append(out, *c)
	}
	slices.SortFunc(out, func(a, b Cluster) int { return strings.Compare(a.Cell, b.Cell) })
	return out, nil
}
