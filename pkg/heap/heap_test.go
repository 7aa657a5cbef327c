package heap

import (
	"testing"

	"github.com/kristofer/loxvm/pkg/core"
	"github.com/kristofer/loxvm/pkg/object"
)

func TestPushReturnsDistinctIndices(t *testing.T) {
	h := New()
	v1 := h.Push(&object.String{Value: "a"})
	v2 := h.Push(&object.String{Value: "a"})
	if v1.AsObject() == v2.AsObject() {
		t.Fatal("Push should not dedup, only PushString does")
	}
}

func TestPushStringInterns(t *testing.T) {
	h := New()
	v1 := h.PushString("hello")
	v2 := h.PushString("hello")
	if v1.Bits() != v2.Bits() {
		t.Fatalf("expected interned strings to share a Value, got %#x vs %#x", v1.Bits(), v2.Bits())
	}
	v3 := h.PushString("world")
	if v1.Bits() == v3.Bits() {
		t.Fatal("distinct contents should not intern to the same Value")
	}
}

func TestGetAndGetAt(t *testing.T) {
	h := New()
	v := h.PushString("x")
	obj, ok := h.Get(v)
	if !ok {
		t.Fatal("Get failed for a valid object Value")
	}
	if s, ok := obj.(*object.String); !ok || s.Value != "x" {
		t.Fatalf("got %#v", obj)
	}
	if _, ok := h.GetAt(int(v.AsObject())); !ok {
		t.Fatal("GetAt failed for a valid index")
	}
	if _, ok := h.GetAt(999); ok {
		t.Fatal("GetAt should fail for an out-of-range index")
	}
	if _, ok := h.Get(core.NumberValue(1)); ok {
		t.Fatal("Get should fail for a non-object Value")
	}
}

func TestSetUpvaluePanicsOnWrongType(t *testing.T) {
	h := New()
	idx := h.Push(&object.String{Value: "not an upvalue"})
	defer func() {
		if recover() == nil {
			t.Fatal("expected SetUpvalue to panic on a non-UpValue slot")
		}
	}()
	h.SetUpvalue(int(idx.AsObject()), core.NumberValue(1))
}

func TestSetUpvalueUpdatesCell(t *testing.T) {
	h := New()
	v := h.Push(&object.UpValue{Value: core.NumberValue(1)})
	h.SetUpvalue(int(v.AsObject()), core.NumberValue(42))
	obj, _ := h.Get(v)
	up := obj.(*object.UpValue)
	if up.Value.AsNumber() != 42 {
		t.Fatalf("got %v, want 42", up.Value.AsNumber())
	}
}

func TestFormatScalars(t *testing.T) {
	h := New()
	cases := []struct {
		v    core.Value
		want string
	}{
		{core.NilValue, "nil"},
		{core.TrueValue, "true"},
		{core.FalseValue, "false"},
		{core.NumberValue(3), "3"},
		{core.NumberValue(3.5), "3.5"},
	}
	for _, c := range cases {
		if got := h.Format(c.v); got != c.want {
			t.Fatalf("Format(%v) = %q, want %q", c.v, got, c.want)
		}
	}
}

func TestFormatObjectsAndUpvalueIndirection(t *testing.T) {
	h := New()
	s := h.PushString("hi")
	if got := h.Format(s); got != "hi" {
		t.Fatalf("got %q, want %q", got, "hi")
	}

	fn := h.Push(&object.Function{Name: "add"})
	if got := h.Format(fn); got != "<fn add>" {
		t.Fatalf("got %q", got)
	}

	script := h.Push(&object.Function{})
	if got := h.Format(script); got != "<script>" {
		t.Fatalf("got %q", got)
	}

	up := h.Push(&object.UpValue{Value: core.NumberValue(9)})
	if got := h.Format(up); got != "9" {
		t.Fatalf("expected upvalue formatting to dereference, got %q", got)
	}
}

func TestFunctionUpvalueCount(t *testing.T) {
	h := New()
	fn := h.Push(&object.Function{Name: "f", UpvalueCount: 2})
	if got := h.FunctionUpvalueCount(fn); got != 2 {
		t.Fatalf("got %d, want 2", got)
	}
	other := h.PushString("x")
	if got := h.FunctionUpvalueCount(other); got != 0 {
		t.Fatalf("got %d, want 0 for a non-function object", got)
	}
}
