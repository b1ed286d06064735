package quote

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeCostBreakdown_DesignScheme(t *testing.T) {
	got, err := ComputeCostBreakdown(DesignScheme(), 88.5)
	require.NoError(t, err)

	require.Len(t, got.Stages, 2)
	stage1, stage2 := got.Stages[0], got.Stages[1]

	arch, ok := got.Amount(CategoryArchitectural)
	require.True(t, ok)
	assert.InDelta(t, 88.5*65141, arch, 1e-6)

	assert.InDelta(t, 88.5*(65141+33987+14161), stage1.Subtotal, 1e-6)
	assert.InDelta(t, 88.5*(28322+25490+12745), stage2.Subtotal, 1e-6)
	assert.InDelta(t, 15916371, got.Total, 1e-6)
	assert.Equal(t, stage1.Subtotal+stage2.Subtotal, got.Total)
	assert.Equal(t, got.DesignTotal, got.Total)
	assert.Zero(t, got.ConstructionTotal)

	_, ok = got.Amount(CategoryConstruction)
	assert.False(t, ok)
}

func TestComputeCostBreakdown_ConstructionScheme(t *testing.T) {
	s := DesignConstructionScheme(DefaultConstructionRate)

	got, err := ComputeCostBreakdown(s, 100)
	require.NoError(t, err)

	require.Len(t, got.Stages, 3)
	stage3, ok := got.Stage("etapa_3")
	require.True(t, ok)
	assert.True(t, stage3.Construction)
	assert.InDelta(t, 100*float64(DefaultConstructionRate), stage3.Subtotal, 1e-6)

	sum := got.Stages[0].Subtotal + got.Stages[1].Subtotal + got.Stages[2].Subtotal
	assert.InDelta(t, sum, got.Total, 1e-6)
	assert.Equal(t, got.DesignTotal+got.ConstructionTotal, got.Total)
	assert.InDelta(t, 100*179846, got.DesignTotal, 1e-6)
}

func TestComputeCostBreakdown_PaymentSchedule(t *testing.T) {
	for _, area := range []float64{0, 1, 53.5, 88.5, 102.5, 317.25} {
		for _, s := range []PricingScheme{DesignScheme(), DesignConstructionScheme(1_500_000)} {
			got, err := ComputeCostBreakdown(s, area)
			require.NoError(t, err)

			p := got.Payment
			assert.InDelta(t, got.Total, p.First+p.Second+p.Third, 1e-6*math.Max(1, got.Total))
			assert.Equal(t, got.Total*0.4, p.First)
			assert.Equal(t, got.Total*0.5, p.Second)
			assert.Equal(t, got.Total*0.1, p.Third)
			assert.Equal(t, p.First*(1-0.1), p.DiscountedFirst)
			assert.Equal(t, got.Total*(1-0.1), p.DiscountedTotal)
			assert.InDelta(t, got.Total*0.9, p.DiscountedTotal, 1e-6)
		}
	}
}

func TestComputeCostBreakdown_Idempotent(t *testing.T) {
	s := DesignConstructionScheme(DefaultConstructionRate)

	first, err := ComputeCostBreakdown(s, 102.5)
	require.NoError(t, err)
	second, err := ComputeCostBreakdown(s, 102.5)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestComputeCostBreakdown_InvalidArea(t *testing.T) {
	for _, area := range []float64{-0.5, math.NaN(), math.Inf(1), math.Inf(-1)} {
		got, err := ComputeCostBreakdown(DesignScheme(), area)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidInput))
		assert.Nil(t, got.Stages)
	}
}

func TestComputeCostBreakdown_ZeroArea(t *testing.T) {
	got, err := ComputeCostBreakdown(DesignScheme(), 0)
	require.NoError(t, err)
	assert.Zero(t, got.Total)
	assert.Zero(t, got.Payment.DiscountedTotal)
}
