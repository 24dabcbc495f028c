package course

import (
	"fmt"

	apperr "github.com/yungbote/coursecast-backend/internal/pkg/errors"
)

type Region string

const (
	RegionAfrican  Region = "African"
	RegionEuropean Region = "European"
	RegionAsian    Region = "Asian"
	RegionAmerican Region = "American"
)

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

var (
	Regions = []Region{RegionAfrican, RegionEuropean, RegionAsian, RegionAmerican}
	Genders = []Gender{GenderMale, GenderFemale}
)

// TutorPersona is the synthetic tutor identity. It is a value: callers replace it
// wholesale rather than mutating fields.
type TutorPersona struct {
	Region Region `json:"region"`
	Gender Gender `json:"gender"`
	Name   string `json:"name"`
}

func DefaultPersona() TutorPersona {
	return TutorPersona{Region: RegionAfrican, Gender: GenderFemale, Name: "Amara"}
}

func (p TutorPersona) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: persona name required", apperr.ErrInvalidArgument)
	}
	if !containsRegion(p.Region) {
		return fmt.Errorf("%w: unknown region %q", apperr.ErrInvalidArgument, p.Region)
	}
	if p.Gender != GenderMale && p.Gender != GenderFemale {
		return fmt.Errorf("%w: unknown gender %q", apperr.ErrInvalidArgument, p.Gender)
	}
	return nil
}

func containsRegion(r Region) bool {
	for _, v := range Regions {
		if v == r {
			return true
		}
	}
	return false
}
