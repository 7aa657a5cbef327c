package core

// OpCode identifies a bytecode instruction. The opcodes listed in
// longForm come in a short form (1-byte operand, constant-pool/slot
// index 0-255) and a long form (3-byte little-endian operand) chosen
// automatically by the emitter when an index would overflow a single
// byte; every other opcode has a single form.
type OpCode byte

const (
	OpLoadConstant OpCode = iota
	OpLoadConstantLong
	OpNegate
	OpNot
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpEqual
	OpNotEqual
	OpLessThan
	OpLessEqual
	OpGreaterThan
	OpGreaterEqual
	OpPrint
	OpPop
	OpDefineGlobal
	OpDefineGlobalLong
	OpGetGlobal
	OpGetGlobalLong
	OpSetGlobal
	OpSetGlobalLong
	OpGetLocal
	OpGetLocalLong
	OpSetLocal
	OpSetLocalLong
	OpGetUpvalue
	OpSetUpvalue
	OpJump
	OpJumpIfFalse
	OpLoop
	OpCall
	OpReturn
	OpClosure
	OpClosureLong
	OpCloseUpvalue
	OpNop
)

var opcodeNames = map[OpCode]string{
	OpLoadConstant:      "LOAD_CONSTANT",
	OpLoadConstantLong:  "LOAD_CONSTANT_LONG",
	OpNegate:            "NEGATE",
	OpNot:               "NOT",
	OpAdd:               "ADD",
	OpSubtract:          "SUBTRACT",
	OpMultiply:          "MULTIPLY",
	OpDivide:            "DIVIDE",
	OpEqual:             "EQUAL",
	OpNotEqual:          "NOT_EQUAL",
	OpLessThan:          "LESS_THAN",
	OpLessEqual:         "LESS_EQUAL",
	OpGreaterThan:       "GREATER_THAN",
	OpGreaterEqual:      "GREATER_EQUAL",
	OpPrint:             "PRINT",
	OpPop:               "POP",
	OpDefineGlobal:      "DEFINE_GLOBAL",
	OpDefineGlobalLong:  "DEFINE_GLOBAL_LONG",
	OpGetGlobal:         "GET_GLOBAL",
	OpGetGlobalLong:     "GET_GLOBAL_LONG",
	OpSetGlobal:         "SET_GLOBAL",
	OpSetGlobalLong:     "SET_GLOBAL_LONG",
	OpGetLocal:          "GET_LOCAL",
	OpGetLocalLong:      "GET_LOCAL_LONG",
	OpSetLocal:          "SET_LOCAL",
	OpSetLocalLong:      "SET_LOCAL_LONG",
	OpGetUpvalue:        "GET_UPVALUE",
	OpSetUpvalue:        "SET_UPVALUE",
	OpJump:              "JUMP",
	OpJumpIfFalse:       "JUMP_IF_FALSE",
	OpLoop:              "LOOP",
	OpCall:              "CALL",
	OpReturn:            "RETURN",
	OpClosure:           "CLOSURE",
	OpClosureLong:       "CLOSURE_LONG",
	OpCloseUpvalue:      "CLOSE_UPVALUE",
	OpNop:               "NOP",
}

func (op OpCode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return "UNKNOWN"
}

// longForm maps a short-form opcode to its long-form counterpart. Only
// opcodes with a constant-pool or slot-index operand have one; SetGlobal
// is included because the emitter treats it the same as the other
// indexed stores.
var longForm = map[OpCode]OpCode{
	OpLoadConstant: OpLoadConstantLong,
	OpDefineGlobal: OpDefineGlobalLong,
	OpGetGlobal:    OpGetGlobalLong,
	OpSetGlobal:    OpSetGlobalLong,
	OpGetLocal:     OpGetLocalLong,
	OpSetLocal:     OpSetLocalLong,
	OpClosure:      OpClosureLong,
}

// ToLong returns the long-form counterpart of op, and true if one exists.
func (op OpCode) ToLong() (OpCode, bool) {
	long, ok := longForm[op]
	return long, ok
}
