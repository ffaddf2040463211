package row

import (
	"fmt"
	"sync"

	"github.com/arloliu/rowdiff/errs"
)

// Column is an immutable column descriptor.
//
// Columns are shared by pointer between rows and serializers, but identity across
// independently decoded data is always established by name through a Resolver.
type Column struct {
	name string
	typ  Type
}

// NewColumn creates a standalone column descriptor.
//
// Most applications should create columns through a Registry so that every
// component resolves the same name to the same descriptor.
func NewColumn(name string, typ Type) (*Column, error) {
	if name == "" {
		return nil, errs.ErrEmptyColumnName
	}
	if !typ.IsValid() {
		return nil, fmt.Errorf("%w: %d for column %q", errs.ErrInvalidColumnType, typ, name)
	}

	return &Column{name: name, typ: typ}, nil
}

// MustColumn is like NewColumn but panics on error. Intended for package-level declarations.
func MustColumn(name string, typ Type) *Column {
	col, err := NewColumn(name, typ)
	if err != nil {
		panic(err)
	}

	return col
}

func (c *Column) Name() string { return c.name }
func (c *Column) Type() Type   { return c.typ }

func (c *Column) String() string {
	return c.name + ":" + c.typ.String()
}

// Resolver maps a column name to the caller's canonical descriptor.
type Resolver interface {
	Lookup(name string) (*Column, bool)
}

// Columns is an ordered column list. The order drives encoding order.
type Columns []*Column

var _ Resolver = Columns(nil)

// Lookup finds a column by name with a linear scan; column lists are short.
func (cs Columns) Lookup(name string) (*Column, bool) {
	for _, c := range cs {
		if c.name == name {
			return c, true
		}
	}

	return nil, false
}

// Names returns the column names in order.
func (cs Columns) Names() []string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.name
	}

	return names
}

// Registry is an application-owned name to descriptor map.
//
// A Registry is safe for concurrent use, so one instance can be shared by every
// serializer in the process.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Column
	order  []*Column
}

var _ Resolver = (*Registry)(nil)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Column),
	}
}

// Register returns the descriptor for name, creating it on first use.
//
// Registering an existing name with the same type returns the existing descriptor.
// A different type returns errs.ErrColumnTypeConflict.
func (r *Registry) Register(name string, typ Type) (*Column, error) {
	r.mu.RLock()
	col, ok := r.byName[name]
	r.mu.RUnlock()
	if ok {
		return r.checkType(col, typ)
	}

	newCol, err := NewColumn(name, typ)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// re-check, another goroutine may have registered it
	if col, ok := r.byName[name]; ok {
		return r.checkType(col, typ)
	}

	r.byName[name] = newCol
	r.order = append(r.order, newCol)

	return newCol, nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(name string, typ Type) *Column {
	col, err := r.Register(name, typ)
	if err != nil {
		panic(err)
	}

	return col
}

func (r *Registry) checkType(col *Column, typ Type) (*Column, error) {
	if col.typ != typ {
		return nil, fmt.Errorf("%w: %q is %s, requested %s", errs.ErrColumnTypeConflict, col.name, col.typ, typ)
	}

	return col, nil
}

// Lookup finds a registered column by name.
func (r *Registry) Lookup(name string) (*Column, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	col, ok := r.byName[name]

	return col, ok
}

// Columns returns the registered columns in registration order.
func (r *Registry) Columns() Columns {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(Columns, len(r.order))
	copy(out, r.order)

	return out
}

// Len returns the number of registered columns.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}
