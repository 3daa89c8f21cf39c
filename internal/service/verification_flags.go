package service

import (
	"regexp"
	"strings"

	"github.com/techmatch/techmatch-api/internal/models"
)

var disallowedCharPattern = regexp.MustCompile(`[^A-Za-z\s\-']`)

// hasRepeatedRun reports whether s contains a run of at least four
// identical consecutive runes. RE2 has no backreferences, so this is a
// plain scan rather than a pattern.
func hasRepeatedRun(s string) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev {
			run++
			if run >= 4 {
				return true
			}
		} else {
			prev = r
			run = 1
		}
	}
	return false
}

// computeNameFlags inspects a display name or company name for patterns
// worth surfacing to the reviewing admin. Flags never block a submission.
func computeNameFlags(name string) []models.VerificationFlag {
	var flags []models.VerificationFlag
	if hasRepeatedRun(name) {
		flags = append(flags, models.VerificationFlag{
			FlagType:    models.FlagTypeSuspiciousNameFormat,
			Severity:    models.FlagSeverityMedium,
			Description: "Repeated characters pattern detected.",
		})
	}
	if disallowedCharPattern.MatchString(name) {
		flags = append(flags, models.VerificationFlag{
			FlagType:    models.FlagTypeSuspiciousNameFormat,
			Severity:    models.FlagSeverityHigh,
			Description: "Contains disallowed characters.",
		})
	}
	if len(strings.TrimSpace(name)) > 50 {
		flags = append(flags, models.VerificationFlag{
			FlagType:    models.FlagTypeSuspiciousNameFormat,
			Severity:    models.FlagSeverityLow,
			Description: "Unusually long name/company string.",
		})
	}
	return flags
}

// computeTechnicianFlags inspects the declared skills list.
func computeTechnicianFlags(skills []string) []models.VerificationFlag {
	var flags []models.VerificationFlag
	if len(skills) >= 12 {
		flags = append(flags, models.VerificationFlag{
			FlagType:    models.FlagTypeLongSkillsList,
			Severity:    models.FlagSeverityLow,
			Description: "Very large skills list.",
		})
	}
	joined := strings.ToLower(strings.Join(skills, " "))
	if strings.Count(joined, "repair") >= 5 {
		flags = append(flags, models.VerificationFlag{
			FlagType:    models.FlagTypeRepeatedPhrases,
			Severity:    models.FlagSeverityLow,
			Description: "Repeated phrases in skills detected.",
		})
	}
	return flags
}
