package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultMMRCalculator_WinLossBase(t *testing.T) {
	c := NewMMRCalculator()
	assert.Equal(t, mmrBaseDelta, c.Delta(true, 0, false, 0))
	assert.Equal(t, -mmrBaseDelta, c.Delta(false, 0, false, 0))
}

func TestDefaultMMRCalculator_StreakBonusesOnlyOnWin(t *testing.T) {
	c := NewMMRCalculator()
	assert.Equal(t, mmrBaseDelta+mmrStreak3Bonus, c.Delta(true, 3, false, 0))
	assert.Equal(t, mmrBaseDelta+mmrStreak5Bonus, c.Delta(true, 5, false, 0))
	assert.Equal(t, -mmrBaseDelta, c.Delta(false, 5, false, 0), "streak bonus should not apply on a loss")
}

func TestDefaultMMRCalculator_MVPAndFeatBonuses(t *testing.T) {
	c := NewMMRCalculator()
	assert.Equal(t, mmrBaseDelta+mmrMVPBonus, c.Delta(true, 0, true, 0))
	assert.Equal(t, mmrBaseDelta+2*mmrFeatBonus, c.Delta(true, 0, false, 2))
}

func TestDefaultMMRCalculator_FeatCountCapped(t *testing.T) {
	c := NewMMRCalculator()
	assert.Equal(t, c.Delta(true, 0, false, maxFeatCount), c.Delta(true, 0, false, maxFeatCount+5), "feats beyond the cap add nothing further")
}

func TestMVPScore_WeightsGoalsHighest(t *testing.T) {
	s := &PlayerMatchStats{Goals: 1, Assists: 1, Interceptions: 1}
	assert.Equal(t, 10+5+2, MVPScore(s))
}

func TestFeatCount_ThresholdsAndCap(t *testing.T) {
	assert.Equal(t, 0, FeatCount(&PlayerMatchStats{}))
	assert.Equal(t, 1, FeatCount(&PlayerMatchStats{Goals: 2}))
	assert.Equal(t, 3, FeatCount(&PlayerMatchStats{Goals: 2, Assists: 2, Interceptions: 3}))
}
