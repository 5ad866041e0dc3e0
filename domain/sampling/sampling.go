// Package sampling holds every randomized choice of the pipeline. All helpers take
// an explicit *rand.Rand so a run is reproducible from its seed.
package sampling

import "math/rand/v2"

func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

/*
Derive 由 rng 派生一个独立的子随机源，用于给各阶段分配互不干扰的随机序列。
*/
func Derive(rng *rand.Rand) *rand.Rand {
	return rand.New(rand.NewPCG(rng.Uint64(), rng.Uint64()))
}

// Coin returns 0 or 1 with equal probability.
func Coin(rng *rand.Rand) int {
	return rng.IntN(2)
}

func Shuffle[T any](rng *rand.Rand, s []T) {
	rng.Shuffle(len(s), func(i, j int) {
		s[i], s[j] = s[j], s[i]
	})
}

/*
Normalize 将 bag 调整为恰好 size 个元素：多于 size 时无放回抽样，少于 size 时从已有元素中
有放回抽样补齐。bag 为空或 size <= 0 时返回 nil。返回值总是新的切片。
*/
func Normalize[T any](rng *rand.Rand, bag []T, size int) []T {
	if len(bag) == 0 || size <= 0 {
		return nil
	}

	if len(bag) > size {
		pool := append([]T(nil), bag...)
		for i := 0; i < size; i++ {
			j := i + rng.IntN(len(pool)-i)
			pool[i], pool[j] = pool[j], pool[i]
		}
		return pool[:size]
	}

	ret := make([]T, len(bag), size)
	copy(ret, bag)
	for len(ret) < size {
		ret = append(ret, bag[rng.IntN(len(bag))])
	}
	return ret
}
