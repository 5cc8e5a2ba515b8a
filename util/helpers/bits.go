package helpers

import "golang.org/x/exp/constraints"

func GetBit[T constraints.Unsigned](v T, n int) bool {
	return v&(1<<n) != 0
}

func SetBit[T constraints.Unsigned](v *T, n int, val bool) {
	if val {
		*v |= 1 << n
	} else {
		*v &^= 1 << n
	}
}
