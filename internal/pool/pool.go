package pool

// Resettable is a constraint for types that have a Reset() method.
type Resettable interface {
	Reset()
}

// Poolable is a constraint for types that can be pooled (must be resettable and comparable).
type Poolable interface {
	Resettable
	comparable
}

// Pool is a bounded object pool. Objects are reset when returned.
type Pool[T Poolable] struct {
	items chan T
	newFn func() T
}

// New creates a Pool holding at most capacity idle objects. newFn, if not nil,
// builds a fresh object when the pool is empty.
func New[T Poolable](capacity int, newFn func() T) *Pool[T] {
	return &Pool[T]{
		items: make(chan T, capacity),
		newFn: newFn,
	}
}

// Get retrieves an idle object, or a new one from newFn.
// Without newFn an empty pool returns the zero value of T.
func (p *Pool[T]) Get() T {
	select {
	case item := <-p.items:
		return item
	default:
		if p.newFn != nil {
			return p.newFn()
		}
		var zero T
		return zero
	}
}

// Put resets item and keeps it for reuse. Zero values are dropped,
// and so are objects returned to a full pool.
func (p *Pool[T]) Put(item T) {
	var zero T
	if item == zero {
		return
	}
	item.Reset()

	select {
	case p.items <- item:
	default:
	}
}
