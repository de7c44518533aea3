package compute

// PrefixSum writes the exclusive prefix sum of weight into out: out[i] is
// the sum of weight(j) for j < i. It returns the grand total. out must have
// at least n elements and weight must be safe to call concurrently.
//
// The sum runs in three passes: per-chunk totals, a serial prefix over the
// chunk totals, then a per-chunk fill offset by the chunk base.
func (d *Dispatcher) PrefixSum(n int, weight func(i int) int32, out []int32) int {
	c := d.chunks(n)
	if c == 0 {
		return 0
	}

	sums := make([]int32, c+1)
	d.ForRange(n, func(chunk, lo, hi int) {
		var total int32
		for i := lo; i < hi; i++ {
			total += weight(i)
		}
		sums[chunk+1] = total
	})

	for k := 1; k <= c; k++ {
		sums[k] += sums[k-1]
	}

	d.ForRange(n, func(chunk, lo, hi int) {
		acc := sums[chunk]
		for i := lo; i < hi; i++ {
			out[i] = acc
			acc += weight(i)
		}
	})

	return int(sums[c])
}

// Scan is PrefixSum over a predicate: out[i] counts the indices j < i for
// which pred(j) holds.
func (d *Dispatcher) Scan(n int, pred func(i int) bool, out []int32) int {
	return d.PrefixSum(n, func(i int) int32 {
		if pred(i) {
			return 1
		}
		return 0
	}, out)
}

// Collect returns the indices in [0, n) for which pred holds, in ascending
// order. It is the scan-and-scatter form of index collection.
func (d *Dispatcher) Collect(n int, pred func(i int) bool) []int32 {
	if n <= 0 {
		return nil
	}
	offsets := make([]int32, n)
	total := d.Scan(n, pred, offsets)
	if total == 0 {
		return nil
	}

	ids := make([]int32, total)
	d.For(n, func(i int) {
		if pred(i) {
			ids[offsets[i]] = int32(i)
		}
	})
	return ids
}
