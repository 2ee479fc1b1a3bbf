//go:build js && wasm

package main

import (
	"encoding/json"
	"fmt"
	"sync"
	"syscall/js"

	"github.com/MeKo-Tech/colorstrip/internal/colormodel"
	"github.com/MeKo-Tech/colorstrip/internal/strip"
)

// Every exported function returns a JSON string; failures are {"error": "..."}.

type parseResponse struct {
	OK    bool                  `json:"ok"`
	Color colormodel.ColorValue `json:"color"`
}

type createResponse struct {
	ID    int         `json:"id"`
	State strip.State `json:"state"`
}

type eventResponse struct {
	Handled   bool                    `json:"handled"`
	Changes   []colormodel.ColorValue `json:"changes"`
	Completes []colormodel.ColorValue `json:"completes"`
	State     strip.State             `json:"state"`
}

// instance is a strip plus the values it emitted during the current event.
type instance struct {
	strip     *strip.Strip
	changes   []colormodel.ColorValue
	completes []colormodel.ColorValue
}

var (
	mu     sync.Mutex
	nextID = 1
	strips = make(map[int]*instance)
)

func respond(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return failure("failed to encode response: %v", err)
	}
	return string(data)
}

func failure(format string, args ...any) any {
	data, _ := json.Marshal(map[string]string{"error": fmt.Sprintf(format, args...)})
	return string(data)
}

// parseColor(value) parses a color and falls back to red.
func parseColor(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return failure("missing arguments")
	}
	v, ok := colormodel.ParseColorValue(args[0].String())
	if !ok {
		v = colormodel.Red
	}
	return respond(parseResponse{OK: ok, Color: v})
}

// mixColors(from, to, t) interpolates in RGB space.
func mixColors(this js.Value, args []js.Value) any {
	if len(args) < 3 {
		return failure("missing arguments")
	}
	return respond(map[string]string{
		"hex": colormodel.MixColors(args[0].String(), args[1].String(), args[2].Float()),
	})
}

// createStrip(configJSON) registers a strip and returns its id and state.
func createStrip(this js.Value, args []js.Value) any {
	var cfg strip.Config
	if len(args) > 0 && args[0].Type() == js.TypeString && args[0].String() != "" {
		if err := json.Unmarshal([]byte(args[0].String()), &cfg); err != nil {
			return failure("failed to parse config: %v", err)
		}
	}

	inst := &instance{}
	cfg.OnChange = func(c colormodel.ColorValue) { inst.changes = append(inst.changes, c) }
	cfg.OnChangeComplete = func(c colormodel.ColorValue) { inst.completes = append(inst.completes, c) }
	inst.strip = strip.New(cfg)

	mu.Lock()
	id := nextID
	nextID++
	strips[id] = inst
	mu.Unlock()

	return respond(createResponse{ID: id, State: inst.strip.State()})
}

// stripEvent(id, eventJSON) delivers one event to a strip.
func stripEvent(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return failure("missing arguments")
	}

	var ev strip.Event
	if err := json.Unmarshal([]byte(args[1].String()), &ev); err != nil {
		return failure("failed to parse event: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()

	inst, ok := strips[args[0].Int()]
	if !ok {
		return failure("unknown strip %d", args[0].Int())
	}

	inst.changes = []colormodel.ColorValue{}
	inst.completes = []colormodel.ColorValue{}
	handled, err := inst.strip.Dispatch(ev)
	if err != nil {
		return failure("%v", err)
	}
	return respond(eventResponse{
		Handled:   handled,
		Changes:   inst.changes,
		Completes: inst.completes,
		State:     inst.strip.State(),
	})
}

// destroyStrip(id) forgets a strip.
func destroyStrip(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return failure("missing arguments")
	}
	mu.Lock()
	delete(strips, args[0].Int())
	mu.Unlock()
	return respond(map[string]bool{"ok": true})
}

func export(name string, fn func(js.Value, []js.Value) any) {
	js.Global().Set(name, js.FuncOf(fn))
}

func main() {
	c := make(chan struct{})

	export("colorstripParse", parseColor)
	export("colorstripMix", mixColors)
	export("colorstripCreate", createStrip)
	export("colorstripEvent", stripEvent)
	export("colorstripDestroy", destroyStrip)

	fmt.Println("colorstrip WASM module loaded")
	<-c
}
