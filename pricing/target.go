package pricing

import "fmt"

// =============================================================================
// RISK TARGET - What a risk factor applies to
// =============================================================================

// TargetLevel is the granularity a risk factor is attached to.
type TargetLevel string

const (
	LevelCountry      TargetLevel = "COUNTRY"
	LevelCounty       TargetLevel = "COUNTY"
	LevelCity         TargetLevel = "CITY"
	LevelBuildingType TargetLevel = "BUILDING_TYPE"
)

// IsGeography reports whether the level carries a geography reference id.
func (l TargetLevel) IsGeography() bool {
	return l == LevelCountry || l == LevelCounty || l == LevelCity
}

// ParseTargetLevel accepts the four known level names.
func ParseTargetLevel(s string) (TargetLevel, error) {
	switch l := TargetLevel(s); l {
	case LevelCountry, LevelCounty, LevelCity, LevelBuildingType:
		return l, nil
	}
	return "", invalid("target level", fmt.Sprintf("unknown level %q", s))
}

// BuildingType classifies a building (e.g. "RESIDENTIAL", "OFFICE").
type BuildingType string

// RiskTarget is a tagged variant: a geography level with a reference id, or
// BUILDING_TYPE with a building type. Fields are unexported so the only way to
// obtain a RiskTarget is through GeographyTarget or BuildingTypeTarget, which
// makes a target carrying both an id and a building type unrepresentable.
//
// RiskTarget is comparable and can be used as a map key.
type RiskTarget struct {
	level        TargetLevel
	referenceID  string
	buildingType BuildingType
}

// GeographyTarget targets a country, county or city by id.
func GeographyTarget(level TargetLevel, referenceID string) (RiskTarget, error) {
	if !level.IsGeography() {
		return RiskTarget{}, invalid("risk target", fmt.Sprintf("level %q is not a geography level", level))
	}
	if referenceID == "" {
		return RiskTarget{}, invalid("risk target", "geography target requires a reference id")
	}
	return RiskTarget{level: level, referenceID: referenceID}, nil
}

// BuildingTypeTarget targets every building of the given type.
func BuildingTypeTarget(bt BuildingType) (RiskTarget, error) {
	if bt == "" {
		return RiskTarget{}, invalid("risk target", "building type target requires a building type")
	}
	return RiskTarget{level: LevelBuildingType, buildingType: bt}, nil
}

// NewRiskTarget builds the variant matching level. value is the geography id
// or the building type, depending on level.
func NewRiskTarget(level TargetLevel, value string) (RiskTarget, error) {
	if level == LevelBuildingType {
		return BuildingTypeTarget(BuildingType(value))
	}
	return GeographyTarget(level, value)
}

func (t RiskTarget) Level() TargetLevel { return t.level }

// ReferenceID returns the geography id; ok is false for building-type targets.
func (t RiskTarget) ReferenceID() (id string, ok bool) {
	return t.referenceID, t.level.IsGeography()
}

// BuildingType returns the building type; ok is false for geography targets.
func (t RiskTarget) BuildingType() (bt BuildingType, ok bool) {
	return t.buildingType, t.level == LevelBuildingType
}

// Value is the level-specific payload as a string (id or building type).
func (t RiskTarget) Value() string {
	if t.level == LevelBuildingType {
		return string(t.buildingType)
	}
	return t.referenceID
}

// IsZero reports whether t was never constructed.
func (t RiskTarget) IsZero() bool { return t.level == "" }

func (t RiskTarget) String() string {
	return string(t.level) + ":" + t.Value()
}
