package dto

import "github.com/techmatch/techmatch-api/internal/models"

// ProfileView is the caller's account plus their role-specific profile.
type ProfileView struct {
	User       models.UserInfo           `json:"user"`
	Technician *models.TechnicianProfile `json:"technician_profile,omitempty"`
	Business   *models.BusinessProfile   `json:"business_profile,omitempty"`
}

// UpdateTechnicianProfileRequest upserts the technician profile.
type UpdateTechnicianProfileRequest struct {
	FullName string   `json:"full_name" validate:"required"`
	Skills   []string `json:"skills"`
	Bio      string   `json:"bio"`
}

// UpdateBusinessProfileRequest upserts the business profile.
type UpdateBusinessProfileRequest struct {
	CompanyName            string `json:"company_name" validate:"required"`
	RegistrationIdentifier string `json:"registration_identifier"`
}

// SetActiveRequest toggles an account's soft-deactivation flag.
type SetActiveRequest struct {
	Active bool `json:"active"`
}
