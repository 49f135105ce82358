package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/eir/internal/compiler"
	"github.com/roach88/eir/internal/hir"
)

// LoadResult is a decoded and scope-checked module fixture.
type LoadResult struct {
	Module    *hir.Module
	CUEValue  cue.Value
	FileCount int
}

// LoadError is an error found while loading a fixture directory.
type LoadError struct {
	Code    string
	Field   string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Location returns file:line:col, or "" without a position.
func (e *LoadError) Location() string {
	if !e.Pos.IsValid() {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column())
}

// LoadModule loads the CUE package in dir, decodes its module fixture and
// checks its scoping.
//
// A nil result means the directory could not be loaded or decoded at all.
// A non-nil result with errors carries the decoded module and every scope
// check error; such a module must not be lowered.
func LoadModule(dir string) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("module directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing module directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	m, err := compiler.CompileModule(value)
	if err != nil {
		return nil, []error{convertCompileError(err)}
	}

	result := &LoadResult{Module: m, CUEValue: value, FileCount: len(cueFiles)}
	var errs []error
	for _, ce := range compiler.Check(m) {
		errs = append(errs, &LoadError{Code: ce.Code, Field: ce.Field, Message: ce.Message})
	}
	return result, errs
}

// FindCUEFiles walks dir and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError keeps the position of a decoding error.
func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    ErrCodeDecode,
			Field:   compileErr.Field,
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: ErrCodeDecode, Message: err.Error()}
}

// toCLIErrors renders load errors for OutputFormatter.Errors. The position,
// when known, travels in Details.
func toCLIErrors(errs []error) []CLIError {
	out := make([]CLIError, len(errs))
	for i, err := range errs {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			msg := loadErr.Message
			if loadErr.Field != "" {
				msg = loadErr.Field + ": " + msg
			}
			out[i] = CLIError{Code: loadErr.Code, Message: msg}
			if loc := loadErr.Location(); loc != "" {
				out[i].Details = loc
			}
			continue
		}
		out[i] = CLIError{Code: ErrCodeGeneric, Message: err.Error()}
	}
	return out
}

// Error code constants shared by all commands. Scope check errors keep the
// compiler's E1xx codes and IR validation errors the ir package's E2xx codes.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeDecode      = "E008" // Fixture does not decode to HIR
	ErrCodeLower       = "E009" // Lowering raised an internal error
	ErrCodePass        = "E010" // A pass failed or left invalid IR
	ErrCodeStore       = "E011" // Build store error
	ErrCodeNoFunction  = "E012" // Named function not in module
)
