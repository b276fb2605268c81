//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/inamate/inamate/geometry-go/internal/engine"
	"github.com/inamate/inamate/geometry-go/internal/geom"
)

var eng *engine.Engine

func main() {
	eng = engine.NewEngine(engine.DefaultOptions())

	// Create the engine API object
	geometryEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → backend) ---
	geometryEngine.Set("loadConstruction", js.FuncOf(loadConstruction))
	geometryEngine.Set("loadSampleConstruction", js.FuncOf(loadSampleConstruction))
	geometryEngine.Set("movePoint", js.FuncOf(movePoint))
	geometryEngine.Set("movePointsByDelta", js.FuncOf(movePointsByDelta))
	geometryEngine.Set("transformPoints", js.FuncOf(transformPoints))
	geometryEngine.Set("setSelection", js.FuncOf(setSelection))
	geometryEngine.Set("moveSelectionBy", js.FuncOf(moveSelectionBy))
	geometryEngine.Set("transformSelection", js.FuncOf(transformSelection))
	geometryEngine.Set("setPolygonLocked", js.FuncOf(setPolygonLocked))
	geometryEngine.Set("recompute", js.FuncOf(recompute))

	// --- Queries (frontend ← backend) ---
	geometryEngine.Set("snapshot", js.FuncOf(snapshot))
	geometryEngine.Set("getConstruction", js.FuncOf(getConstruction))
	geometryEngine.Set("getSelection", js.FuncOf(getSelection))

	// Register on global scope
	js.Global().Set("geometryEngine", geometryEngine)

	// Signal that WASM is ready
	js.Global().Set("geometryWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func result(err error) interface{} {
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func missing(what string) interface{} {
	return js.ValueOf(map[string]interface{}{"error": "missing " + what})
}

// --- Command Handlers ---

func loadConstruction(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("construction JSON")
	}
	return result(eng.LoadConstruction(args[0].String()))
}

func loadSampleConstruction(this js.Value, args []js.Value) interface{} {
	constructionID := "cons_sample"
	if len(args) > 0 && args[0].Type() == js.TypeString {
		constructionID = args[0].String()
	}

	eng.LoadSampleConstruction(constructionID)
	return result(nil)
}

func movePoint(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return missing("point id and position")
	}
	return result(eng.MovePoint(args[0].String(), args[1].Float(), args[2].Float()))
}

// movePointsByDelta takes (originalsJSON, dx, dy, skipConstrain?).
func movePointsByDelta(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return missing("originals and delta")
	}
	var originals map[string]geom.Point
	if err := json.Unmarshal([]byte(args[0].String()), &originals); err != nil {
		return result(err)
	}
	opts := engine.MoveOptions{}
	if len(args) > 3 && args[3].Type() == js.TypeBoolean {
		opts.SkipConstrain = args[3].Bool()
	}
	return result(eng.MovePointsByDelta(originals, args[1].Float(), args[2].Float(), opts))
}

func transformPoints(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("transform JSON")
	}
	return result(eng.TransformPoints(args[0].String()))
}

func setSelection(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		eng.SetSelection(nil)
		return nil
	}

	arr := args[0]
	if arr.Type() != js.TypeObject {
		eng.SetSelection(nil)
		return nil
	}

	length := arr.Length()
	ids := make([]string, length)
	for i := 0; i < length; i++ {
		ids[i] = arr.Index(i).String()
	}
	eng.SetSelection(ids)
	return nil
}

func moveSelectionBy(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return missing("delta")
	}
	return result(eng.MoveSelectionBy(args[0].Float(), args[1].Float()))
}

// transformSelection takes (cx, cy, scale, rotation).
func transformSelection(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return missing("center, scale and rotation")
	}
	center := geom.Pt(args[0].Float(), args[1].Float())
	return result(eng.TransformSelection(center, args[2].Float(), args[3].Float()))
}

func setPolygonLocked(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return missing("polygon id and lock state")
	}
	return result(eng.SetPolygonLocked(args[0].String(), args[1].Bool()))
}

func recompute(this js.Value, args []js.Value) interface{} {
	eng.Recompute()
	return nil
}

// --- Query Handlers ---

func snapshot(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.Snapshot())
}

func getConstruction(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetConstruction())
}

func getSelection(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.GetSelection())
}
