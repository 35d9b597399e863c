package brackets

// Combinations returns every k-element subset of {0..n-1} as sorted index slices,
// in lexicographic order. Iterative: the index vector is advanced in place.
func Combinations(n, k int) [][]int {
	if k < 0 || n < 0 || k > n {
		return nil
	}
	if k == 0 {
		return [][]int{{}}
	}

	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}

	result := make([][]int, 0, binomial(n, k))
	for {
		combo := make([]int, k)
		copy(combo, idx)
		result = append(result, combo)

		// Rightmost position that can still move right.
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return result
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}

// Choose maps index combinations onto the given items.
func Choose[T any](items []T, k int) [][]T {
	combos := Combinations(len(items), k)
	out := make([][]T, len(combos))
	for i, c := range combos {
		picked := make([]T, len(c))
		for j, idx := range c {
			picked[j] = items[idx]
		}
		out[i] = picked
	}
	return out
}

func binomial(n, k int) int {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	r := 1
	for i := 1; i <= k; i++ {
		r = r * (n - k + i) / i
	}
	return r
}
