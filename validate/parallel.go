package validate

import "sync"

// passResult is one pass's output over an index range.
type passResult struct {
	counts [2]int
	first  *Violation
}

// note keeps v if no earlier violation has been seen.
func (r *passResult) note(v *Violation) {
	if r.first == nil {
		r.first = v
	}
}

// merge folds a later shard into r.
func (r *passResult) merge(o passResult) {
	r.counts[0] += o.counts[0]
	r.counts[1] += o.counts[1]
	r.note(o.first)
}

// runSharded splits [lo, hi) into contiguous chunks, runs fn on each and
// merges results in index order, so the first violation is the same as a
// serial scan would find.
func runSharded(lo, hi, workers int, fn func(lo, hi int) passResult) passResult {
	n := hi - lo
	if n <= 0 {
		return passResult{}
	}
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		return fn(lo, hi)
	}

	chunk := (n + workers - 1) / workers
	results := make([]passResult, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := lo + w*chunk
		end := min(start+chunk, hi)
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			results[w] = fn(start, end)
		}(w, start, end)
	}
	wg.Wait()

	var out passResult
	for _, r := range results {
		out.merge(r)
	}
	return out
}
