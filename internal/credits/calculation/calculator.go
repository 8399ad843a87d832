// Package calculation computes carbon sequestration estimates for
// restoration projects. All functions are pure.
package calculation

import (
	"fmt"
	"strings"
)

// CO2ConversionFactor converts tons of carbon to tons of CO2 equivalent
const CO2ConversionFactor = 3.67

// DefaultBaseRate applies to project types without a table entry
const DefaultBaseRate = 2.0

// baseRates are sequestration rates in tons of carbon per hectare per year
var baseRates = map[string]float64{
	"Mangrove":     3.5,
	"Forest":       2.5,
	"Wetland":      2.8,
	"Grassland":    1.5,
	"Coastal":      3.0,
	"Agroforestry": 2.0,
}

// Result is the full carbon estimate for one project
type Result struct {
	TotalTons          float64 `json:"total_carbon_tons"`
	AnnualTons         float64 `json:"annual_carbon_tons"`
	CO2EquivalentTons  float64 `json:"co2_equivalent_tons"`
	SoilCarbonTons     float64 `json:"soil_carbon_tons"`
	BiomassCarbonTons  float64 `json:"biomass_carbon_tons"`
	BiodiversityScore  int     `json:"biodiversity_score"`
	WaterQualityImpact string  `json:"water_quality_impact"`
	BaseRate           float64 `json:"base_sequestration_rate"`
	HealthMultiplier   float64 `json:"health_multiplier"`
	ConfidenceLevel    float64 `json:"confidence_level"`
}

// BaseRate returns the sequestration rate for a project type. Types are
// matched on their leading keyword so "Mangrove Restoration" and
// "Mangrove" resolve the same.
func BaseRate(projectType string) float64 {
	for key, rate := range baseRates {
		if strings.HasPrefix(projectType, key) {
			return rate
		}
	}
	return DefaultBaseRate
}

// Compute estimates carbon sequestration for a project. vegetationIndex
// is an NDVI-style health index in [0,1]; durationYears is the crediting
// period.
func Compute(area, vegetationIndex float64, projectType string, durationYears int) (*Result, error) {
	if area <= 0 {
		return nil, fmt.Errorf("area must be positive, got %v", area)
	}
	if vegetationIndex < 0 || vegetationIndex > 1 {
		return nil, fmt.Errorf("vegetation index must be in [0,1], got %v", vegetationIndex)
	}
	if durationYears <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %d years", durationYears)
	}

	rate := BaseRate(projectType)
	healthMultiplier := 0.5 + vegetationIndex*0.5
	annual := area * rate * healthMultiplier
	total := annual * float64(durationYears)

	biodiversity := int(vegetationIndex*100 + area*5)
	if biodiversity > 100 {
		biodiversity = 100
	}

	return &Result{
		TotalTons:          total,
		AnnualTons:         annual,
		CO2EquivalentTons:  total * CO2ConversionFactor,
		SoilCarbonTons:     total * 0.4,
		BiomassCarbonTons:  total * 0.6,
		BiodiversityScore:  biodiversity,
		WaterQualityImpact: WaterQualityImpact(area, projectType),
		BaseRate:           rate,
		HealthMultiplier:   healthMultiplier,
		ConfidenceLevel:    vegetationIndex * 100,
	}, nil
}

// WaterQualityImpact labels the expected water-quality effect of a project
func WaterQualityImpact(area float64, projectType string) string {
	switch {
	case strings.HasPrefix(projectType, "Mangrove"),
		strings.HasPrefix(projectType, "Wetland"),
		strings.HasPrefix(projectType, "Coastal"):
		if area > 1.0 {
			return "Highly Positive"
		}
		return "Positive"
	case strings.HasPrefix(projectType, "Forest"),
		strings.HasPrefix(projectType, "Agroforestry"):
		return "Moderate"
	default:
		return "Low"
	}
}

// CommunityBenefits splits a credit sale value across beneficiaries
type CommunityBenefits struct {
	CommunityBenefit float64 `json:"community_benefit"`
	VerificationCost float64 `json:"verification_cost"`
	PlatformFee      float64 `json:"platform_fee"`
	MaintenanceFund  float64 `json:"maintenance_fund"`
	Reserve          float64 `json:"reserve"`
}

// SplitCommunityBenefits applies the registry's fixed distribution:
// 70% community, 10% verification, 5% platform, 10% maintenance, 5% reserve.
func SplitCommunityBenefits(totalValue float64) CommunityBenefits {
	return CommunityBenefits{
		CommunityBenefit: totalValue * 0.70,
		VerificationCost: totalValue * 0.10,
		PlatformFee:      totalValue * 0.05,
		MaintenanceFund:  totalValue * 0.10,
		Reserve:          totalValue * 0.05,
	}
}

// Impact estimates the broader environmental and social effect of a project
type Impact struct {
	FamiliesSupported      int     `json:"families_supported"`
	JobsCreated            int     `json:"jobs_created"`
	TreesPlanted           int     `json:"trees_planted"`
	CoastalProtectionKM    float64 `json:"coastal_protection_km"`
	FishHabitatImprovement string  `json:"fish_habitat_improvement"`
	CarsOffRoad            int     `json:"cars_off_road"`
	HomesPowered           int     `json:"homes_powered"`
}

// EstimateImpact derives rough impact figures from area and sequestered carbon
func EstimateImpact(area, carbonTons float64) Impact {
	habitat := "Moderate"
	if area > 1.0 {
		habitat = "Significant"
	}
	return Impact{
		FamiliesSupported:      int(area * 130),
		JobsCreated:            int(area * 10),
		TreesPlanted:           int(area * 1000),
		CoastalProtectionKM:    area * 0.5,
		FishHabitatImprovement: habitat,
		CarsOffRoad:            int(carbonTons * 0.22),
		HomesPowered:           int(carbonTons * 0.12),
	}
}
