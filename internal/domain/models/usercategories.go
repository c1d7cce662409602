// internal/domain/models/usercategories.go
package models

// Canonical professional category identifiers.
//
// These values are stored as-is in UserCategory.MainCategory and matched
// case-sensitively.
const (
	MainCategoryDoctor       = "doctor"
	MainCategoryVeterinarian = "veterinarian"
	MainCategoryNurse        = "nurse"
	MainCategoryPharmacist   = "pharmacist"
)

// Canonical training status identifiers stored in UserCategory.DetailCategory.
const (
	DetailCategoryPracticing = "practicing"
	DetailCategoryInStudy    = "in-study"
)

// MainCategories is the full set of allowed main categories.
//
// This slice is the single source of truth for validation and schema enums.
var MainCategories = []string{
	MainCategoryDoctor,
	MainCategoryVeterinarian,
	MainCategoryNurse,
	MainCategoryPharmacist,
}

// DetailCategories is the full set of allowed detail categories.
var DetailCategories = []string{
	DetailCategoryPracticing,
	DetailCategoryInStudy,
}

