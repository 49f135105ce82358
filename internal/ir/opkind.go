package ir

// OpKind identifies the operator of an Op.
type OpKind uint8

const (
	// OpMove copies its single read into its single write.
	OpMove OpKind = iota

	// OpPackValueList builds a value list from its reads.
	OpPackValueList

	// OpUnpackValueList splits the value list in its single read into its
	// writes, one per element.
	OpUnpackValueList

	// OpCall calls the function named by the op's FunRef with its reads.
	OpCall

	// OpApply calls the closure in its first read with the remaining reads.
	OpApply

	// OpCaptureFunction produces a function value for the op's FunRef.
	OpCaptureFunction

	// OpBindClosure allocates a closure for the op's environment and lambda,
	// storing its reads as captured values.
	OpBindClosure

	// OpUnpackEnv reads a closure environment and writes the captured values
	// in capture order.
	OpUnpackEnv

	// OpMakeTuple builds a tuple from its reads.
	OpMakeTuple

	// OpMakeList builds a list from its reads; the last read is the tail.
	OpMakeList

	// OpPrimOp applies the primitive named by the op's attribute.
	OpPrimOp

	// OpJump transfers control through its single block call.
	OpJump

	// OpIfTruthy branches on its single read: first block call when true,
	// second otherwise.
	OpIfTruthy

	// OpReturnOk returns its read from the function.
	OpReturnOk

	// OpReturnThrow raises its reads (class, reason, trace).
	OpReturnThrow

	// OpUnreachable marks a point control never reaches.
	OpUnreachable
)

var opKindNames = [...]string{
	OpMove:            "move",
	OpPackValueList:   "pack_value_list",
	OpUnpackValueList: "unpack_value_list",
	OpCall:            "call",
	OpApply:           "apply",
	OpCaptureFunction: "capture_function",
	OpBindClosure:     "bind_closure",
	OpUnpackEnv:       "unpack_env",
	OpMakeTuple:       "make_tuple",
	OpMakeList:        "make_list",
	OpPrimOp:          "primop",
	OpJump:            "jump",
	OpIfTruthy:        "if_truthy",
	OpReturnOk:        "return_ok",
	OpReturnThrow:     "return_throw",
	OpUnreachable:     "unreachable",
}

func (k OpKind) String() string {
	if int(k) < len(opKindNames) {
		return opKindNames[k]
	}
	return "<bad>"
}

// IsBlockTerminator reports whether an op of this kind ends its block.
func (k OpKind) IsBlockTerminator() bool {
	switch k {
	case OpJump, OpIfTruthy, OpReturnOk, OpReturnThrow, OpUnreachable:
		return true
	default:
		return false
	}
}

// IsPure reports whether an op of this kind has no effect beyond its writes.
func (k OpKind) IsPure() bool {
	switch k {
	case OpMove, OpPackValueList, OpUnpackValueList, OpCaptureFunction,
		OpBindClosure, OpUnpackEnv, OpMakeTuple, OpMakeList:
		return true
	default:
		return false
	}
}
