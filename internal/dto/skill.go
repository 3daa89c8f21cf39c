package dto

import "github.com/techmatch/techmatch-api/internal/models"

// SubmitSkillRequest creates a new PENDING skill item.
type SubmitSkillRequest struct {
	SkillName   string `json:"skill_name" validate:"required"`
	Description string `json:"description"`
}

// ReviewSkillRequest is the admin decision payload for a skill item.
type ReviewSkillRequest struct {
	Reason string `json:"reason"`
}

// SkillDetail combines a skill item with its certificate documents.
type SkillDetail struct {
	Item      models.SkillItem  `json:"item"`
	Documents []models.Document `json:"documents"`
}

// SkillSuggestion is one autocomplete candidate from the canonical
// vocabulary.
type SkillSuggestion struct {
	Skill string  `json:"skill"`
	Score float64 `json:"score"`
}
