//go:build js && wasm

package main

import (
	"context"
	"fmt"
	"syscall/js"

	"github.com/MeKo-Tech/topomap/internal/heightfield"
	"github.com/MeKo-Tech/topomap/internal/pipeline"
)

// build is called from JavaScript with a JSON request and returns the mesh
// document as a JSON string, ready for the WebGL upload.
func build(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return map[string]interface{}{"error": "missing arguments"}
	}

	out, err := pipeline.BuildRequest(context.Background(), []byte(args[0].String()), nil)
	if err != nil {
		return map[string]interface{}{"error": err.Error()}
	}
	return string(out)
}

// terrainKey gives browser code the canonical file stem so it can fetch
// prebuilt artefacts from a `topomap serve` backend instead.
func terrainKey(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return map[string]interface{}{"error": "missing arguments"}
	}
	key := heightfield.Key{Seed: int64(args[0].Int()), Nodes: args[1].Int()}
	return map[string]interface{}{
		"key":     key.String(),
		"mesh":    key.Path(pipeline.ExtMesh),
		"geojson": key.Path(pipeline.ExtGeoJSON),
		"preview": key.Path(pipeline.ExtPreview),
	}
}

func main() {
	c := make(chan struct{})

	js.Global().Set("topomapBuild", js.FuncOf(build))
	js.Global().Set("topomapKey", js.FuncOf(terrainKey))

	fmt.Println("Topomap WASM module loaded")
	<-c
}
