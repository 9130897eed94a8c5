package inject

import (
	"reflect"
)

// Context is the shared data registry handed to every pipeline.
// Values are keyed by their base (non-pointer) type. It is filled by the
// application before startup and is not safe for concurrent mutation.
type Context struct {
	values map[reflect.Type]any
}

// NewContext constructs an empty Context.
func NewContext() *Context {
	return &Context{values: make(map[reflect.Type]any)}
}

// Provide registers v under the type T, replacing any previous value.
func Provide[T any](c *Context, v *T) {
	c.set(TypeOf[T](), v)
}

// Lookup returns the value registered for T.
func Lookup[T any](c *Context) (*T, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.values[TypeOf[T]()]
	if !ok {
		return nil, false
	}
	t, ok := v.(*T)
	return t, ok
}

// Has reports whether a value is registered for t.
func (c *Context) Has(t reflect.Type) bool {
	if c == nil {
		return false
	}
	_, ok := c.values[baseType(t)]
	return ok
}

// Len returns the number of registered values.
func (c *Context) Len() int {
	if c == nil {
		return 0
	}
	return len(c.values)
}

func (c *Context) set(t reflect.Type, v any) {
	if c.values == nil {
		c.values = make(map[reflect.Type]any)
	}
	c.values[t] = v
}

// TypeOf returns the base type key used for T.
func TypeOf[T any]() reflect.Type {
	return baseType(reflect.TypeOf((*T)(nil)).Elem())
}

func baseType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}
