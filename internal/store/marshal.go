package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/eir/internal/ir"
)

// marshalPasses stores the pass list as a canonical JSON array.
func marshalPasses(passes []string) (string, error) {
	arr := make([]any, len(passes))
	for i, p := range passes {
		arr[i] = p
	}
	data, err := ir.MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("marshal passes: %w", err)
	}
	return string(data), nil
}

func unmarshalPasses(data string) ([]string, error) {
	passes := []string{}
	if err := json.Unmarshal([]byte(data), &passes); err != nil {
		return nil, fmt.Errorf("unmarshal passes: %w", err)
	}
	return passes, nil
}

// marshalMetaBinds stores an environment's meta binds as a canonical JSON
// array of idents.
func marshalMetaBinds(binds []ir.FunctionIdent) (string, error) {
	if binds == nil {
		binds = []ir.FunctionIdent{}
	}
	data, err := ir.MarshalCanonical(binds)
	if err != nil {
		return "", fmt.Errorf("marshal meta binds: %w", err)
	}
	return string(data), nil
}

func unmarshalMetaBinds(data string) ([]ir.FunctionIdent, error) {
	var binds []ir.FunctionIdent
	if err := json.Unmarshal([]byte(data), &binds); err != nil {
		return nil, fmt.Errorf("unmarshal meta binds: %w", err)
	}
	return binds, nil
}
