package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpected_SumsToOne(t *testing.T) {
	pairs := [][2]int64{{1200, 1200}, {1500, 1100}, {800, 2400}, {0, 0}, {3000, 100}}
	for _, p := range pairs {
		ea := Expected(p[0], p[1])
		eb := Expected(p[1], p[0])
		assert.InDelta(t, 1.0, ea+eb, 1e-9, "pair %v", p)
	}
}

func TestExpected_EqualRatings(t *testing.T) {
	assert.InDelta(t, 0.5, Expected(1200, 1200), 1e-12)
}

func TestUpdateElo_EqualRatings(t *testing.T) {
	a, b := UpdateElo(1200, 1200, true)
	assert.Equal(t, int64(1200+KFactor/2), a)
	assert.Equal(t, int64(1200-KFactor/2), b)

	a, b = UpdateElo(1200, 1200, false)
	assert.Equal(t, int64(1200-KFactor/2), a)
	assert.Equal(t, int64(1200+KFactor/2), b)
}

func TestUpdateElo_SymmetricMagnitude(t *testing.T) {
	for ra := int64(600); ra <= 2400; ra += 137 {
		for rb := int64(600); rb <= 2400; rb += 151 {
			for _, aWon := range []bool{true, false} {
				na, nb := UpdateElo(ra, rb, aWon)
				da, db := na-ra, nb-rb
				assert.Equal(t, da, -db, "ra=%d rb=%d aWon=%v", ra, rb, aWon)
				if aWon {
					assert.GreaterOrEqual(t, da, int64(0))
				} else {
					assert.LessOrEqual(t, da, int64(0))
				}
				assert.LessOrEqual(t, da, int64(KFactor))
				assert.GreaterOrEqual(t, da, int64(-KFactor))
			}
		}
	}
}

func TestUpdateElo_UpsetMovesMore(t *testing.T) {
	favWin, _ := UpdateElo(1600, 1200, true)
	_, dogWin := UpdateElo(1600, 1200, false)

	assert.Less(t, favWin-1600, dogWin-1200)
}
