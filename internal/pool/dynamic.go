package pool

// Dynamic is the out-of-line variable-size buffer backing an array's or
// string's data once it outgrows the inline two-cell representation. Bias
// lets the logical start slide forward within the backing slice so that
// head-insertions are a pointer decrement instead of a memmove, exactly as
// spec.md §4.1 describes.
type Dynamic[T any] struct {
	data []T
	bias int // elements of unused capacity before Len() logical start
	used int // logical length
	pool *Pool

	recentExpansions int // detects repeated growth of the same node to switch to doubling
}

// NewDynamic allocates a buffer with cap elements of rest capacity and no
// bias.
func NewDynamic[T any](p *Pool, cap int) *Dynamic[T] {
	d := &Dynamic[T]{data: make([]T, 0, cap), pool: p}
	p.account(int64(cap) * elemSize[T]())
	return d
}

func elemSize[T any]() int64 {
	var z T
	return int64(sizeofApprox(z))
}

// sizeofApprox is a best-effort accounting figure; Go has no sizeof, so the
// pool's byte accounting is an estimate used only for the soft-limit trip
// point and the humanize-rendered diagnostics, never for layout decisions.
func sizeofApprox(v any) int {
	switch v.(type) {
	case byte:
		return 1
	default:
		return 24
	}
}

func (p *Pool) account(delta int64) {
	p.bytesOut += delta
}

// Len returns the logical element count.
func (d *Dynamic[T]) Len() int { return d.used }

// Rest returns free capacity after the logical end.
func (d *Dynamic[T]) Rest() int { return cap(d.data) - d.bias - d.used }

// Bias returns the current head offset.
func (d *Dynamic[T]) Bias() int { return d.bias }

// At returns the i-th logical element.
func (d *Dynamic[T]) At(i int) T { return d.data[d.bias+i] }

// Set assigns the i-th logical element.
func (d *Dynamic[T]) Set(i int, v T) { d.data[d.bias+i] = v }

// Slice returns the logical elements as a slice view (no copy).
func (d *Dynamic[T]) Slice() []T { return d.data[d.bias : d.bias+d.used] }

// ShiftHead consumes bias space to grow the logical window backward by
// delta elements — the cheap head-insertion path. Returns false if there is
// not enough bias to satisfy delta, in which case the caller must Expand.
func (d *Dynamic[T]) ShiftHead(delta int) bool {
	if d.bias < delta {
		return false
	}
	d.bias -= delta
	d.used += delta
	return true
}

// InsertMiddle inserts vals at logical index i via memmove-equivalent
// (Go's copy over a grown slice). Expands first if rest capacity is
// insufficient.
func (d *Dynamic[T]) InsertMiddle(i int, vals ...T) {
	need := len(vals)
	if d.Rest() < need {
		d.Expand(need)
	}
	end := d.bias + d.used
	d.data = d.data[:end+need]
	copy(d.data[d.bias+i+need:end+need], d.data[d.bias+i:end])
	copy(d.data[d.bias+i:d.bias+i+need], vals)
	d.used += need
}

// Expand grows capacity by at least need elements, preserving content and
// resetting bias to zero. A small recent-expansion counter mimics the
// teacher's "doubling on repeated growth of the same node" policy: the
// first expansion is tight (need only), repeats double the whole buffer.
func (d *Dynamic[T]) Expand(need int) {
	d.recentExpansions++
	target := d.used + need
	if d.recentExpansions > 1 {
		doubled := cap(d.data) * 2
		if doubled > target {
			target = doubled
		}
	}
	fresh := make([]T, d.used, target)
	copy(fresh, d.Slice())
	delta := int64(target-cap(d.data)) * elemSize[T]()
	d.pool.account(delta)
	d.data = fresh
	d.bias = 0
}

// Release returns the buffer's accounted bytes to the pool and clears the
// buffer. Pool.Free and the collector's sweep do not call it, so freeing a
// node leaves its buffer's bytes counted in BytesOut.
func (d *Dynamic[T]) Release() {
	d.pool.account(-int64(cap(d.data)) * elemSize[T]())
	d.data = nil
	d.used = 0
	d.bias = 0
}
