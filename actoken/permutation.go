package actoken

// PermutationToLehmer encodes a permutation of [0, len(perm)) as its
// Lehmer code: lehmer[i] counts how many elements to the right of
// perm[i] are smaller than it. This is the standard factorial-number-
// system encoding used to transmit a custom coefficient order compactly
// (spec.md §4.6: "emit it via a Lehmer-code of the permutation").
func PermutationToLehmer(perm []int) []int {
	n := len(perm)
	lehmer := make([]int, n)
	for i := 0; i < n; i++ {
		count := 0
		for j := i + 1; j < n; j++ {
			if perm[j] < perm[i] {
				count++
			}
		}
		lehmer[i] = count
	}
	return lehmer
}

// LehmerToPermutation reverses PermutationToLehmer.
func LehmerToPermutation(lehmer []int) []int {
	n := len(lehmer)
	available := make([]int, n)
	for i := range available {
		available[i] = i
	}
	perm := make([]int, n)
	for i := 0; i < n; i++ {
		idx := lehmer[i]
		perm[i] = available[idx]
		available = append(available[:idx], available[idx+1:]...)
	}
	return perm
}
