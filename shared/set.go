package shared

import "sort"

// IndexSet is a set of attribute positions.
type IndexSet map[int]struct{}

func SetOf(members ...int) IndexSet {
	ret := make(IndexSet, len(members))
	for _, member := range members {
		ret[member] = struct{}{}
	}
	return ret
}

func (s IndexSet) Contains(i int) bool {
	_, ok := s[i]
	return ok
}

func (s IndexSet) AsSortedSlice() []int {
	ret := make([]int, 0, len(s))
	for key := range s {
		ret = append(ret, key)
	}
	sort.Ints(ret)
	return ret
}
