package scene

// resultQueue is a growable ring buffer. Capacity is always a power of two.
type resultQueue struct {
	buf  []Result
	head int
	n    int
}

func (q *resultQueue) len() int { return q.n }

func (q *resultQueue) mask(i int) int { return i & (len(q.buf) - 1) }

func (q *resultQueue) push(r Result) {
	if q.n == len(q.buf) {
		q.grow()
	}
	q.buf[q.mask(q.head+q.n)] = r
	q.n++
}

func (q *resultQueue) pop() (Result, bool) {
	if q.n == 0 {
		return nil, false
	}
	r := q.buf[q.head]
	q.buf[q.head] = nil
	q.head = q.mask(q.head + 1)
	q.n--
	return r, true
}

func (q *resultQueue) grow() {
	c := len(q.buf) * 2
	if c == 0 {
		c = 16
	}
	nb := make([]Result, c)
	for i := 0; i < q.n; i++ {
		nb[i] = q.buf[q.mask(q.head+i)]
	}
	q.buf = nb
	q.head = 0
}
