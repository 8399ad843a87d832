package calculation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeMangroveScenario(t *testing.T) {
	// 2 ha mangrove at vi 0.8 over one year
	result, err := Compute(2.0, 0.8, "Mangrove", 1)
	require.NoError(t, err)

	assert.Equal(t, 3.5, result.BaseRate)
	assert.InDelta(t, 0.9, result.HealthMultiplier, 1e-9)
	assert.InDelta(t, 6.3, result.AnnualTons, 1e-9)
	assert.InDelta(t, 6.3, result.TotalTons, 1e-9)
	assert.InDelta(t, 23.121, result.CO2EquivalentTons, 1e-9)
	assert.InDelta(t, 2.52, result.SoilCarbonTons, 1e-9)
	assert.InDelta(t, 3.78, result.BiomassCarbonTons, 1e-9)
	assert.InDelta(t, result.TotalTons, result.SoilCarbonTons+result.BiomassCarbonTons, 1e-9)
	assert.Equal(t, 90, result.BiodiversityScore)
	assert.Equal(t, "Highly Positive", result.WaterQualityImpact)
	assert.InDelta(t, 80.0, result.ConfidenceLevel, 1e-9)
}

func TestComputeDurationScalesLinearly(t *testing.T) {
	one, err := Compute(10, 0.6, "Forest", 1)
	require.NoError(t, err)
	ten, err := Compute(10, 0.6, "Forest", 10)
	require.NoError(t, err)

	assert.InDelta(t, one.AnnualTons, ten.AnnualTons, 1e-9)
	assert.InDelta(t, one.TotalTons*10, ten.TotalTons, 1e-9)
}

func TestComputeUnknownTypeUsesDefaultRate(t *testing.T) {
	result, err := Compute(1, 0.5, "Kelp", 1)
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseRate, result.BaseRate)
	assert.Equal(t, "Low", result.WaterQualityImpact)
}

func TestComputeMatchesLongFormTypeNames(t *testing.T) {
	short, err := Compute(3, 0.7, "Wetland", 2)
	require.NoError(t, err)
	long, err := Compute(3, 0.7, "Wetland Restoration", 2)
	require.NoError(t, err)
	assert.Equal(t, short.BaseRate, long.BaseRate)
	assert.Equal(t, short.WaterQualityImpact, long.WaterQualityImpact)
}

func TestComputeValidation(t *testing.T) {
	_, err := Compute(0, 0.5, "Mangrove", 1)
	assert.Error(t, err)
	_, err = Compute(-2, 0.5, "Mangrove", 1)
	assert.Error(t, err)
	_, err = Compute(2, -0.1, "Mangrove", 1)
	assert.Error(t, err)
	_, err = Compute(2, 1.1, "Mangrove", 1)
	assert.Error(t, err)
	_, err = Compute(2, 0.5, "Mangrove", 0)
	assert.Error(t, err)
}

func TestComputeBoundaryVegetationIndex(t *testing.T) {
	low, err := Compute(1, 0, "Grassland", 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, low.HealthMultiplier, 1e-9)

	high, err := Compute(1, 1, "Grassland", 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, high.HealthMultiplier, 1e-9)
	assert.InDelta(t, low.AnnualTons*2, high.AnnualTons, 1e-9)
}

func TestBiodiversityScoreCapped(t *testing.T) {
	result, err := Compute(50, 0.9, "Mangrove", 1)
	require.NoError(t, err)
	assert.Equal(t, 100, result.BiodiversityScore)
}

func TestSplitCommunityBenefitsSumsToTotal(t *testing.T) {
	split := SplitCommunityBenefits(1000)
	assert.InDelta(t, 700.0, split.CommunityBenefit, 1e-9)
	assert.InDelta(t, 100.0, split.VerificationCost, 1e-9)
	assert.InDelta(t, 50.0, split.PlatformFee, 1e-9)
	assert.InDelta(t, 100.0, split.MaintenanceFund, 1e-9)
	assert.InDelta(t, 50.0, split.Reserve, 1e-9)

	sum := split.CommunityBenefit + split.VerificationCost + split.PlatformFee +
		split.MaintenanceFund + split.Reserve
	assert.InDelta(t, 1000.0, sum, 1e-9)
}

func TestEstimateImpact(t *testing.T) {
	impact := EstimateImpact(2.0, 100)
	assert.Equal(t, 260, impact.FamiliesSupported)
	assert.Equal(t, 20, impact.JobsCreated)
	assert.Equal(t, 2000, impact.TreesPlanted)
	assert.InDelta(t, 1.0, impact.CoastalProtectionKM, 1e-9)
	assert.Equal(t, "Significant", impact.FishHabitatImprovement)
	assert.Equal(t, 22, impact.CarsOffRoad)
	assert.Equal(t, 12, impact.HomesPowered)

	small := EstimateImpact(0.5, 10)
	assert.Equal(t, "Moderate", small.FishHabitatImprovement)
}
