package eval

import "github.com/tms7331/centralized-poker/internal/poker"

// The 7,462 distinct five-card hand classes, strongest first. Rank 0 is the
// royal flush, 7461 the worst high card (7-5-4-3-2 offsuit). Class counts per
// category:
//
//	straight flush   10      0 ..    9
//	four of a kind  156     10 ..  165
//	full house      156    166 ..  321
//	flush          1277    322 .. 1598
//	straight         10   1599 .. 1608
//	three of a kind 858   1609 .. 2466
//	two pair        858   2467 .. 3324
//	pair           2860   3325 .. 6184
//	high card      1277   6185 .. 7461
type fiveCardClass struct {
	product uint64
	flush   bool
}

// straightMasks lists the ten straights as 13-bit rank sets, strongest first.
// Bit 12 is the ace; the wheel reuses it as the low end.
var straightMasks = []uint16{
	0x1F00, // A K Q J T
	0x0F80, // K Q J T 9
	0x07C0,
	0x03E0,
	0x01F0,
	0x00F8,
	0x007C,
	0x003E,
	0x001F, // 6 5 4 3 2
	0x100F, // 5 4 3 2 A
}

func maskProduct(mask uint16) uint64 {
	product := uint64(1)
	for r := 0; r < 13; r++ {
		if mask&(1<<uint(r)) != 0 {
			product *= poker.RankPrimes[r]
		}
	}
	return product
}

func isStraightMask(mask uint16) bool {
	for _, m := range straightMasks {
		if m == mask {
			return true
		}
	}
	return false
}

// distinctMasksDesc returns every 5-of-13 rank set in descending numeric
// order, which for distinct-rank hands is exactly descending strength.
func distinctMasksDesc() []uint16 {
	masks := make([]uint16, 0, 1287)
	for m := uint16(0x1FFF); m >= 0x1F; m-- {
		if popcount13(m) == 5 {
			masks = append(masks, m)
		}
	}
	return masks
}

func popcount13(m uint16) int {
	n := 0
	for ; m != 0; m &= m - 1 {
		n++
	}
	return n
}

// classesInOrder materializes all 7,462 classes in canonical order.
func classesInOrder() []fiveCardClass {
	p := poker.RankPrimes
	classes := make([]fiveCardClass, 0, 7462)
	add := func(product uint64, flush bool) {
		classes = append(classes, fiveCardClass{product: product, flush: flush})
	}

	for _, m := range straightMasks {
		add(maskProduct(m), true)
	}

	for q := 12; q >= 0; q-- {
		for k := 12; k >= 0; k-- {
			if k == q {
				continue
			}
			add(p[q]*p[q]*p[q]*p[q]*p[k], false)
		}
	}

	for trip := 12; trip >= 0; trip-- {
		for pair := 12; pair >= 0; pair-- {
			if pair == trip {
				continue
			}
			add(p[trip]*p[trip]*p[trip]*p[pair]*p[pair], false)
		}
	}

	distinct := distinctMasksDesc()
	for _, m := range distinct {
		if !isStraightMask(m) {
			add(maskProduct(m), true)
		}
	}

	for _, m := range straightMasks {
		add(maskProduct(m), false)
	}

	for trip := 12; trip >= 0; trip-- {
		for k1 := 12; k1 >= 0; k1-- {
			if k1 == trip {
				continue
			}
			for k2 := k1 - 1; k2 >= 0; k2-- {
				if k2 == trip {
					continue
				}
				add(p[trip]*p[trip]*p[trip]*p[k1]*p[k2], false)
			}
		}
	}

	for hi := 12; hi >= 1; hi-- {
		for lo := hi - 1; lo >= 0; lo-- {
			for k := 12; k >= 0; k-- {
				if k == hi || k == lo {
					continue
				}
				add(p[hi]*p[hi]*p[lo]*p[lo]*p[k], false)
			}
		}
	}

	for pair := 12; pair >= 0; pair-- {
		for k1 := 12; k1 >= 0; k1-- {
			if k1 == pair {
				continue
			}
			for k2 := k1 - 1; k2 >= 0; k2-- {
				if k2 == pair {
					continue
				}
				for k3 := k2 - 1; k3 >= 0; k3-- {
					if k3 == pair {
						continue
					}
					add(p[pair]*p[pair]*p[k1]*p[k2]*p[k3], false)
				}
			}
		}
	}

	for _, m := range distinct {
		if !isStraightMask(m) {
			add(maskProduct(m), false)
		}
	}

	return classes
}
