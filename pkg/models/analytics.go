package models

import (
	"github.com/google/uuid"
)

// ScoredAnswer is one scored answer from a submitted response, flattened and
// joined to its question's principle.
type ScoredAnswer struct {
	ResponseID       uuid.UUID `json:"responseId"`
	UserID           uuid.UUID `json:"userId"`
	Role             string    `json:"role"`
	QuestionnaireKey string    `json:"questionnaireKey"`
	QuestionCode     string    `json:"questionCode"`
	Principle        Principle `json:"principle"`
	Score            *float64  `json:"score"`
}

// PrincipleScore is the score summary for one principle.
type PrincipleScore struct {
	Principle     Principle `json:"principle"`
	Label         string    `json:"label"`
	AvgScore      float64   `json:"avgScore"`
	MinScore      float64   `json:"minScore"`
	MaxScore      float64   `json:"maxScore"`
	Count         int       `json:"count"`
	QuestionCodes []string  `json:"questionCodes"`
}

// RolePrincipleScore is a principle's score summary within one role.
type RolePrincipleScore struct {
	Principle Principle `json:"principle"`
	Label     string    `json:"label"`
	AvgScore  float64   `json:"avgScore"`
	MinScore  float64   `json:"minScore"`
	MaxScore  float64   `json:"maxScore"`
	Count     int       `json:"count"`
}

// RoleScores nests per-principle scores under one evaluator role.
type RoleScores struct {
	Role       string               `json:"role"`
	Principles []RolePrincipleScore `json:"principles"`
}

// Hotspot groups the answers to one question that scored at or below the
// hotspot threshold.
type Hotspot struct {
	QuestionCode string    `json:"questionCode"`
	Principle    Principle `json:"principle"`
	Count        int       `json:"count"`
	AvgScore     float64   `json:"avgScore"`
	MinScore     float64   `json:"minScore"`
	Roles        []string  `json:"roles"`
	UserCount    int       `json:"userCount"`
}

// ExpertCompletion is the completion status of one (user, role) pair on a project.
type ExpertCompletion struct {
	UserID         uuid.UUID `json:"userId"`
	Name           string    `json:"name,omitempty"`
	Role           string    `json:"role"`
	Assigned       int       `json:"assigned"`
	Submitted      int       `json:"submitted"`
	Draft          int       `json:"draft"`
	CompletionRate float64   `json:"completionRate"`
}

// CompletionResponse is a per-questionnaire-key status used to compute completion.
type CompletionResponse struct {
	UserID           uuid.UUID
	QuestionnaireKey string
	Status           string
}

// AssignedExpert is one expert resolved for a use case.
type AssignedExpert struct {
	UserID         string `json:"userId"`
	Name           string `json:"name"`
	Role           string `json:"role"`
	Email          string `json:"email"`
	AssignmentRole string `json:"assignmentRole"`
}

// AssignedExperts is the resolved expert set of a use case. The shape is the
// same whether or not anyone was found.
type AssignedExperts struct {
	AssignedExpertsCount int              `json:"assignedExpertsCount"`
	AssignedUserIDs      []string         `json:"assignedUserIds"`
	AssignedExperts      []AssignedExpert `json:"assignedExperts"`
}

// EmptyAssignedExperts returns the zero-expert result with non-nil slices.
func EmptyAssignedExperts() *AssignedExperts {
	return &AssignedExperts{
		AssignedUserIDs: []string{},
		AssignedExperts: []AssignedExpert{},
	}
}
