// cmd/tools/schema-dump/main.go
//
// Prints the intent schema registry as JSON, both the raw field
// declarations and the rendered function-calling parameters. Useful
// when checking what the model is actually offered.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"sylo-assistant/internal/assistant/schema"
)

func main() {
	schemaFile := flag.String("file", "", "optional YAML registry override (defaults to the built-in registry)")
	flag.Parse()

	registry, err := schema.Load(*schemaFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load registry: %v\n", err)
		os.Exit(1)
	}

	type dumped struct {
		Intent     string                 `json:"intent"`
		Schema     schema.Schema          `json:"schema"`
		Parameters map[string]interface{} `json:"parameters"`
	}

	out := []dumped{}
	for _, s := range registry.Schemas() {
		out = append(out, dumped{
			Intent:     string(s.Intent),
			Schema:     s,
			Parameters: s.Parameters(),
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintf(os.Stderr, "encode: %v\n", err)
		os.Exit(1)
	}
}
