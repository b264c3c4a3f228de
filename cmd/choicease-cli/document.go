package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/arunkumarkundra/choicease/internal/decision"
	"github.com/arunkumarkundra/choicease/internal/scoring"
)

// loadDocument reads a JSON or YAML decision document from path, or from in
// when path is "-".
func loadDocument(path string, in io.Reader) (*decision.Model, scoring.Weights, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(in)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading decision: %w", err)
	}

	doc, err := decision.ParseDocument(data)
	if err != nil {
		return nil, nil, err
	}
	m, w, _, err := scoring.Rehydrate(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("loading decision: %w", err)
	}
	return m, w, nil
}

func printJSON(out io.Writer, v interface{}, compact bool) error {
	enc := json.NewEncoder(out)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
