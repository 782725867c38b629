package models

import (
	"strings"
)

// Principle is one of the seven ethical dimensions questions are tagged with
// and scores are aggregated by.
type Principle string

const (
	PrincipleTransparency        Principle = "TRANSPARENCY"
	PrincipleHumanAgency         Principle = "HUMAN_AGENCY_OVERSIGHT"
	PrincipleTechnicalRobustness Principle = "TECHNICAL_ROBUSTNESS_SAFETY"
	PrinciplePrivacy             Principle = "PRIVACY_DATA_GOVERNANCE"
	PrincipleDiversityFairness   Principle = "DIVERSITY_FAIRNESS"
	PrincipleSocietalWellbeing   Principle = "SOCIETAL_WELLBEING"
	PrincipleAccountability      Principle = "ACCOUNTABILITY"
)

// Principles lists every principle in display order.
var Principles = []Principle{
	PrincipleTransparency,
	PrincipleHumanAgency,
	PrincipleTechnicalRobustness,
	PrinciplePrivacy,
	PrincipleDiversityFairness,
	PrincipleSocietalWellbeing,
	PrincipleAccountability,
}

var principleLabels = map[Principle]string{
	PrincipleTransparency:        "Transparency",
	PrincipleHumanAgency:         "Human Agency & Oversight",
	PrincipleTechnicalRobustness: "Technical Robustness & Safety",
	PrinciplePrivacy:             "Privacy & Data Governance",
	PrincipleDiversityFairness:   "Diversity, Non-Discrimination & Fairness",
	PrincipleSocietalWellbeing:   "Societal & Environmental Well-Being",
	PrincipleAccountability:      "Accountability",
}

// principleAliases maps normalized spellings found in older questionnaires.
var principleAliases = map[string]Principle{
	"HUMAN_AGENCY":                              PrincipleHumanAgency,
	"HUMAN_AGENCY_AND_OVERSIGHT":                PrincipleHumanAgency,
	"TECHNICAL_ROBUSTNESS":                      PrincipleTechnicalRobustness,
	"TECHNICAL_ROBUSTNESS_AND_SAFETY":           PrincipleTechnicalRobustness,
	"PRIVACY":                                   PrinciplePrivacy,
	"PRIVACY_AND_DATA_GOVERNANCE":               PrinciplePrivacy,
	"DIVERSITY":                                 PrincipleDiversityFairness,
	"FAIRNESS":                                  PrincipleDiversityFairness,
	"DIVERSITY_NON_DISCRIMINATION_AND_FAIRNESS": PrincipleDiversityFairness,
	"DIVERSITY_NON_DISCRIMINATION_FAIRNESS":     PrincipleDiversityFairness,
	"SOCIETAL_WELL_BEING":                       PrincipleSocietalWellbeing,
	"SOCIETAL_AND_ENVIRONMENTAL_WELL_BEING":     PrincipleSocietalWellbeing,
	"SOCIETAL_AND_ENVIRONMENTAL_WELLBEING":      PrincipleSocietalWellbeing,
}

// Label returns the human-readable principle name.
func (p Principle) Label() string {
	if l, ok := principleLabels[p]; ok {
		return l
	}
	return string(p)
}

// IsValid reports whether p is one of the seven canonical principles.
func (p Principle) IsValid() bool {
	_, ok := principleLabels[p]
	return ok
}

// ParsePrinciple accepts a canonical code, a display label, or a legacy
// spelling ("Human Agency & Oversight", "privacy") and returns the canonical code.
func ParsePrinciple(s string) (Principle, bool) {
	key := normalizePrincipleKey(s)
	if key == "" {
		return "", false
	}
	if p := Principle(key); p.IsValid() {
		return p, true
	}
	if p, ok := principleAliases[key]; ok {
		return p, true
	}
	return "", false
}

func normalizePrincipleKey(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "&", " AND ")

	var b strings.Builder
	lastUnderscore := true
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
