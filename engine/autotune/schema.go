package autotune

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/kaptinlin/jsonschema"

	"github.com/compozy/autotune/engine/schema"
)

// rawSchema is the JSON Schema every autotuned defaults document must satisfy.
//
//go:embed autotuned_defaults.schema.json
var rawSchema []byte

var (
	compiledOnce   sync.Once
	compiledSchema *jsonschema.Schema
	compiledErr    error
	// evalMu serializes evaluation of the shared compiled schema.
	evalMu sync.Mutex
)

// Schema returns a copy of the embedded schema document.
func Schema() []byte {
	out := make([]byte, len(rawSchema))
	copy(out, rawSchema)
	return out
}

// compiled returns the embedded schema compiled by the JSON Schema validator.
func compiled() (*jsonschema.Schema, error) {
	compiledOnce.Do(func() {
		s, err := schema.Parse(rawSchema)
		if err != nil {
			compiledErr = fmt.Errorf("embedded autotune schema: %w", err)
			return
		}
		compiledSchema, compiledErr = s.Compile()
		if compiledErr != nil {
			compiledErr = fmt.Errorf("embedded autotune schema: %w", compiledErr)
		}
	})
	return compiledSchema, compiledErr
}
