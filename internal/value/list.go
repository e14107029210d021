package value

import "fmt"

// List is an ordered deque of values. A List reachable from a Value is
// never mutated; the push and pop operations return new Values.
type List struct {
	items []Value
}

func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}

// Clone deep-copies every element.
func (l *List) Clone() *List {
	if l == nil {
		return &List{}
	}
	out := &List{items: make([]Value, len(l.items))}
	for i, e := range l.items {
		out.items[i] = e.Copy()
	}
	return out
}

func (l *List) Items() []Value {
	if l == nil {
		return nil
	}
	return append([]Value(nil), l.items...)
}

// NewList builds a List value owning copies of items.
func NewList(items ...Value) Value {
	l := &List{items: make([]Value, len(items))}
	for i, e := range items {
		l.items[i] = e.Copy()
	}
	return Value{kind: LIST, list: l}
}

func (v Value) Elements() []Value {
	if v.kind != LIST {
		return nil
	}
	return v.list.Items()
}

func listOp(op string, v Value) error {
	if v.kind != LIST {
		return typeError(op, v)
	}
	return nil
}

// PushFront returns a new list with e prepended.
func PushFront(v, e Value) (Value, error) {
	if err := listOp("lpush", v); err != nil {
		return Value{}, err
	}
	return NewList(append([]Value{e}, v.list.Items()...)...), nil
}

// PushBack returns a new list with e appended.
func PushBack(v, e Value) (Value, error) {
	if err := listOp("rpush", v); err != nil {
		return Value{}, err
	}
	items := append(v.list.Items(), e)
	return NewList(items...), nil
}

// PopFront returns the first element and the remaining list.
func PopFront(v Value) (Value, Value, error) {
	if err := listOp("lpop", v); err != nil {
		return Value{}, Value{}, err
	}
	if v.list.Len() == 0 {
		return Value{}, Value{}, fmt.Errorf("%w: pop from empty list", ErrIndex)
	}
	return v.list.items[0].Copy(), NewList(v.list.items[1:]...), nil
}

// PopBack returns the last element and the remaining list.
func PopBack(v Value) (Value, Value, error) {
	if err := listOp("rpop", v); err != nil {
		return Value{}, Value{}, err
	}
	n := v.list.Len()
	if n == 0 {
		return Value{}, Value{}, fmt.Errorf("%w: pop from empty list", ErrIndex)
	}
	return v.list.items[n-1].Copy(), NewList(v.list.items[:n-1]...), nil
}

func Index(v Value, i int) (Value, error) {
	if err := listOp("lget", v); err != nil {
		return Value{}, err
	}
	if i < 0 || i >= v.list.Len() {
		return Value{}, fmt.Errorf("%w: %d of %d", ErrIndex, i, v.list.Len())
	}
	return v.list.items[i].Copy(), nil
}
