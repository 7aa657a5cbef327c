package compiler

import "github.com/kristofer/loxvm/pkg/core"

// Local tracks one lexically-scoped local variable as the compiler
// sees it: Depth is the scope it was declared in, and Initialized is
// false between the point its name becomes visible (declareLocal) and
// the point its initializer finishes compiling (defineLocal) — the gap
// that lets the compiler detect `var x = x;` self-initialization.
type Local struct {
	Name        string
	Depth       int
	Initialized bool
}

// CompilerUpvalue is one upvalue slot a function's compiler has
// resolved: either a capture of a local in the immediately enclosing
// function (IsLocal true, Index is that function's local slot), or a
// capture of one of the enclosing function's own upvalues (IsLocal
// false, Index is that upvalue's slot).
type CompilerUpvalue struct {
	Index   int
	IsLocal bool
}

const maxLocals = 256
const maxUpvalues = 256

// beginScope enters a new lexical scope.
func (c *Compiler) beginScope() {
	c.scopeDepth++
}

// endScope leaves the current scope, popping every local declared in it
// (one Pop instruction per local, since their values are still sitting
// on the stack at the point the scope closes). A local captured by a
// nested closure is closed over instead of merely popped.
func (c *Compiler) endScope(line int) {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].Depth > c.scopeDepth {
		if c.localsCaptured[len(c.locals)-1] {
			c.emitByte(byte(core.OpCloseUpvalue), line)
		} else {
			c.emitByte(byte(core.OpPop), line)
		}
		c.locals = c.locals[:len(c.locals)-1]
		c.localsCaptured = c.localsCaptured[:len(c.localsCaptured)-1]
	}
}

// declareLocal introduces name as a new local in the current scope. It
// is a no-op at global scope (depth 0), where variables compile to
// globals instead. Redeclaring a name already local to this exact scope
// is a compile error.
func (c *Compiler) declareLocal(name string, line int) error {
	if c.scopeDepth == 0 {
		return nil
	}
	for i := len(c.locals) - 1; i >= 0; i-- {
		local := c.locals[i]
		if local.Depth != -1 && local.Depth < c.scopeDepth {
			break
		}
		if local.Name == name {
			return core.NewAlreadyDeclared(line, name)
		}
	}
	if len(c.locals) >= maxLocals {
		return core.NewTooManyLocals(line)
	}
	c.locals = append(c.locals, Local{Name: name, Depth: c.scopeDepth, Initialized: false})
	c.localsCaptured = append(c.localsCaptured, false)
	return nil
}

// defineLocal marks the most recently declared local as initialized,
// making it visible to resolveLocal. No-op at global scope.
func (c *Compiler) defineLocal() {
	if c.scopeDepth == 0 {
		return
	}
	c.locals[len(c.locals)-1].Initialized = true
}

// resolveLocal looks up name among this function's locals, innermost
// scope first. Returns (-1, nil) if name isn't a local here (the caller
// should then try resolveUpvalue, then fall back to a global). Returns
// an error if name resolves to a local that is still mid-initialization
// — the `var x = x;` case.
func (c *Compiler) resolveLocal(name string, line int) (int, error) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].Name == name {
			if !c.locals[i].Initialized {
				return -1, core.NewSelfInitialization(line, name)
			}
			return i, nil
		}
	}
	return -1, nil
}

// resolveUpvalue looks up name in enclosing functions, transitively.
// If found as a local of the immediately enclosing function, that local
// is marked captured (so endScope emits CloseUpvalue for it) and an
// IsLocal upvalue is recorded. If found as an upvalue of the enclosing
// function, a non-local upvalue is recorded that simply forwards the
// enclosing function's own upvalue. Either way the upvalue is added to
// (or deduplicated against) this compiler's upvalue list. Returns
// (-1, nil) if name isn't found in any enclosing function.
func (c *Compiler) resolveUpvalue(name string, line int) (int, error) {
	if c.enclosing == nil {
		return -1, nil
	}
	if localIndex, err := c.enclosing.resolveLocal(name, line); err != nil {
		return -1, err
	} else if localIndex != -1 {
		c.enclosing.localsCaptured[localIndex] = true
		return c.addUpvalue(localIndex, true, line)
	}
	if upvalueIndex, err := c.enclosing.resolveUpvalue(name, line); err != nil {
		return -1, err
	} else if upvalueIndex != -1 {
		return c.addUpvalue(upvalueIndex, false, line)
	}
	return -1, nil
}

// addUpvalue records (or finds an existing) upvalue entry for
// (index, isLocal), returning its slot in this function's upvalue list.
func (c *Compiler) addUpvalue(index int, isLocal bool, line int) (int, error) {
	for i, up := range c.upvalues {
		if up.Index == index && up.IsLocal == isLocal {
			return i, nil
		}
	}
	if len(c.upvalues) >= maxUpvalues {
		return -1, core.NewTooManyUpvalues(line)
	}
	c.upvalues = append(c.upvalues, CompilerUpvalue{Index: index, IsLocal: isLocal})
	c.function.UpvalueCount = len(c.upvalues)
	return len(c.upvalues) - 1, nil
}
