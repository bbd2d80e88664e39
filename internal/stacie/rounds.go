package stacie

import (
	"unicode/utf8"

	"github.com/lavabit/magma-sub003/internal/coreerrors"
)

// RoundsCalculate returns the number of hash rounds for password:
//
//	base   = clamp(MaxRounds >> (len(password)-1), MinRounds, MaxRounds)
//	rounds = clamp(base + bonus, MinRounds, RoundsCeiling)
//
// Length is counted in UTF-8 characters. The sum saturates at RoundsCeiling.
func RoundsCalculate(password []byte, bonus uint32) (uint32, error) {
	if len(password) == 0 {
		return 0, coreerrors.Invalid("password is empty")
	}

	length := utf8.RuneCount(password)

	var base uint64 = MinRounds
	if shift := length - 1; shift < 32 {
		base = uint64(MaxRounds) >> shift
	}
	base = clamp(base, MinRounds, MaxRounds)

	return uint32(clamp(base+uint64(bonus), MinRounds, RoundsCeiling)), nil
}

func clamp(v, lo, hi uint64) uint64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
