package textstore

// prefixSum maintains running totals over a mutable sequence of line
// widths. Totals are recomputed lazily from the lowest index dirtied since
// the last read, so a burst of edits near the top of a document does not
// repeatedly rebuild the sums for every line below it.
type prefixSum struct {
	values []int
	sums   []int
	valid  int // sums[:valid] are up to date
}

func newPrefixSum(values []int) *prefixSum {
	return &prefixSum{
		values: values,
		sums:   make([]int, len(values)),
	}
}

// Len returns the number of tracked values.
func (p *prefixSum) Len() int {
	return len(p.values)
}

// SetValue replaces the value at index.
func (p *prefixSum) SetValue(index, value int) {
	if index < 0 || index >= len(p.values) {
		return
	}
	if p.values[index] == value {
		return
	}
	p.values[index] = value
	if index < p.valid {
		p.valid = index
	}
}

// InsertValues inserts values starting at index.
func (p *prefixSum) InsertValues(index int, values []int) {
	if len(values) == 0 {
		return
	}
	if index < 0 {
		index = 0
	}
	if index > len(p.values) {
		index = len(p.values)
	}
	p.values = append(p.values[:index], append(append([]int{}, values...), p.values[index:]...)...)
	p.sums = append(p.sums, make([]int, len(values))...)
	if index < p.valid {
		p.valid = index
	}
}

// RemoveValues removes count values starting at index.
func (p *prefixSum) RemoveValues(index, count int) {
	if index < 0 || index >= len(p.values) || count <= 0 {
		return
	}
	if index+count > len(p.values) {
		count = len(p.values) - index
	}
	p.values = append(p.values[:index], p.values[index+count:]...)
	p.sums = p.sums[:len(p.values)]
	if index < p.valid {
		p.valid = index
	}
}

// Total returns the sum of all values.
func (p *prefixSum) Total() int {
	return p.SumThrough(len(p.values) - 1)
}

// SumThrough returns the sum of values[0..index] inclusive. A negative
// index yields 0; an index past the end yields the total.
func (p *prefixSum) SumThrough(index int) int {
	if index < 0 || len(p.values) == 0 {
		return 0
	}
	if index >= len(p.values) {
		index = len(p.values) - 1
	}
	p.revalidate(index)
	return p.sums[index]
}

// IndexOf maps a running total back to the index whose span contains it,
// returning the index and the remainder within that span. Totals at or past
// the end resolve to the last index with a remainder that may exceed its
// value; callers clamp.
func (p *prefixSum) IndexOf(sum int) (index, remainder int) {
	if len(p.values) == 0 {
		return 0, 0
	}
	if sum < 0 {
		sum = 0
	}
	total := p.Total()
	last := len(p.values) - 1
	if sum >= total {
		return last, sum - (total - p.values[last])
	}
	low, high := 0, last
	for low < high {
		mid := low + (high-low)/2
		if sum >= p.sums[mid] {
			low = mid + 1
		} else {
			high = mid
		}
	}
	return low, sum - (p.sums[low] - p.values[low])
}

// revalidate brings sums[:through+1] up to date.
func (p *prefixSum) revalidate(through int) {
	if through >= len(p.values) {
		through = len(p.values) - 1
	}
	for i := p.valid; i <= through; i++ {
		if i == 0 {
			p.sums[i] = p.values[i]
		} else {
			p.sums[i] = p.sums[i-1] + p.values[i]
		}
	}
	if through+1 > p.valid {
		p.valid = through + 1
	}
}
