// Package pipeline turns terrain keys into meshes, contours, and previews.
package pipeline

import (
	"github.com/MeKo-Tech/topomap/internal/contour"
	"github.com/MeKo-Tech/topomap/internal/geometry"
	"github.com/MeKo-Tech/topomap/internal/heightfield"
)

// Document is the JSON artefact a WebGL client loads.
type Document struct {
	Key       string            `json:"key"`
	Seed      int64             `json:"seed"`
	Method    string            `json:"method"`
	Width     float64           `json:"width"`
	Height    float64           `json:"height"`
	Variation float64           `json:"variation"`
	Stats     heightfield.Stats `json:"stats"`
	Summary   contour.Summary   `json:"summary"`
	geometry.Mesh
}

// NewDocument flattens topo for serialisation.
func NewDocument(topo *Topography, p heightfield.Params) Document {
	method := topo.Method
	if method == "" {
		method = heightfield.MethodDiamondSquare
	}
	return Document{
		Key:       topo.Key.String(),
		Seed:      topo.Key.Seed,
		Method:    string(method),
		Width:     p.Width,
		Height:    p.Height,
		Variation: p.Variation,
		Stats:     topo.Stats,
		Summary:   topo.Contours.Summary(),
		Mesh:      topo.Mesh,
	}
}
