package ir

import "fmt"

// Validation error codes (E200-E209)
const (
	ErrMissingEntry    = "E200" // function has no entry block
	ErrMultipleDefs    = "E201" // value defined more than once
	ErrCallArity       = "E202" // block call args do not match target arity
	ErrUnfinishedBlock = "E203" // block has no terminator
	ErrOpAfterTerm     = "E204" // op placed after a terminator
	ErrUndefinedRead   = "E205" // variable read but never defined
	ErrStaleTarget     = "E206" // block call targets an unlinked block
	ErrCallSource      = "E207" // block call source does not match its op
	ErrEntryUnlinked   = "E208" // entry block removed from the layout
	ErrMissingFunRef   = "E209" // op kind requires a function reference
)

// ValidationError describes one structural problem in a Function.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks the structural SSA invariants of a finished function.
// Returns all errors found (does not fail-fast).
func Validate(fun *Function) []ValidationError {
	var errs []ValidationError

	entry, ok := fun.EntryBlock()
	if !ok {
		errs = append(errs, ValidationError{
			Field:   fun.ident.String(),
			Message: "function has no entry block",
			Code:    ErrMissingEntry,
		})
	} else if !fun.layout.IsBlockLinked(entry) {
		errs = append(errs, ValidationError{
			Field:   entry.String(),
			Message: "entry block is not linked",
			Code:    ErrEntryUnlinked,
		})
	}

	defined := make(map[Value]string)
	define := func(v Value, where string) {
		if prev, dup := defined[v]; dup {
			errs = append(errs, ValidationError{
				Field:   where,
				Message: fmt.Sprintf("%s already defined by %s", v, prev),
				Code:    ErrMultipleDefs,
			})
			return
		}
		defined[v] = where
	}
	for b := range fun.Blocks() {
		for _, a := range fun.BlockArgs(b) {
			define(a, b.String())
		}
		for op := range fun.Ops(b) {
			for _, w := range fun.OpWrites(op) {
				define(w, op.String())
			}
		}
	}

	checkRead := func(v Value, where string) {
		if fun.ValueIsConstant(v) {
			return
		}
		if _, ok := defined[v]; !ok {
			errs = append(errs, ValidationError{
				Field:   where,
				Message: fmt.Sprintf("reads %s which is never defined", v),
				Code:    ErrUndefinedRead,
			})
		}
	}

	for b := range fun.Blocks() {
		errs = append(errs, validateBlock(fun, b, checkRead)...)
	}
	return errs
}

func validateBlock(fun *Function, b Block, checkRead func(Value, string)) []ValidationError {
	var errs []ValidationError

	last, ok := fun.BlockLastOp(b)
	if !ok || !fun.OpKind(last).IsBlockTerminator() {
		errs = append(errs, ValidationError{
			Field:   b.String(),
			Message: "block does not end with a terminator",
			Code:    ErrUnfinishedBlock,
		})
	}

	for op := range fun.Ops(b) {
		kind := fun.OpKind(op)
		if kind.IsBlockTerminator() && op != last {
			errs = append(errs, ValidationError{
				Field:   op.String(),
				Message: fmt.Sprintf("terminator %s is followed by more ops", kind),
				Code:    ErrOpAfterTerm,
			})
		}
		switch kind {
		case OpCall, OpCaptureFunction, OpBindClosure:
			if _, ok := fun.OpFunRef(op); !ok {
				errs = append(errs, ValidationError{
					Field:   op.String(),
					Message: fmt.Sprintf("%s has no function reference", kind),
					Code:    ErrMissingFunRef,
				})
			}
		}
		for _, r := range fun.OpReads(op) {
			checkRead(r, op.String())
		}
		for _, c := range fun.OpBranches(op) {
			errs = append(errs, validateCall(fun, op, c, checkRead)...)
		}
	}
	return errs
}

func validateCall(fun *Function, op Op, c BlockCall, checkRead func(Value, string)) []ValidationError {
	var errs []ValidationError
	where := fmt.Sprintf("%s/%s", op, c)

	if src, ok := fun.BlockCallSource(c); !ok || src != op {
		errs = append(errs, ValidationError{
			Field:   where,
			Message: "block call source does not match the op carrying it",
			Code:    ErrCallSource,
		})
	}

	target := fun.BlockCallTarget(c)
	if !fun.layout.IsBlockLinked(target) {
		errs = append(errs, ValidationError{
			Field:   where,
			Message: fmt.Sprintf("targets unlinked %s", target),
			Code:    ErrStaleTarget,
		})
		return errs
	}

	args := fun.BlockCallArgs(c)
	if want := len(fun.BlockArgs(target)); len(args) != want {
		errs = append(errs, ValidationError{
			Field:   where,
			Message: fmt.Sprintf("passes %d args to %s which takes %d", len(args), target, want),
			Code:    ErrCallArity,
		})
	}
	for _, a := range args {
		checkRead(a, where)
	}
	return errs
}
