// Package prompts builds the LLM prompts used to draft evaluation reports.
package prompts

import (
	"fmt"
	"strings"

	"github.com/zinspection/zi-engine/pkg/models"
)

// EvaluationReportSystemMessage frames the model as a Z-Inspection rapporteur.
const EvaluationReportSystemMessage = `You are the rapporteur of a Z-Inspection assessment of an AI system.
You write concise, evidence-based evaluation reports in Markdown for a mixed audience of
ethicists, clinicians, engineers and lawyers. Only use the data you are given. Scores are on a
0-4 scale where 0 is the most concerning and 4 the least.`

// ReportContext is everything gathered about a project for its report.
type ReportContext struct {
	Project    *models.Project
	UseCase    *models.UseCase // nil when the project has no linked use case
	Experts    *models.AssignedExperts
	Principles []models.PrincipleScore
	Roles      []models.RoleScores
	Hotspots   []models.Hotspot
	Completion []models.ExpertCompletion
	Tensions   []*models.Tension
}

// maxHotspots bounds how many hotspots are listed in the prompt.
const maxHotspots = 15

// BuildEvaluationReportPrompt creates the user prompt for drafting a report.
func BuildEvaluationReportPrompt(rc *ReportContext) string {
	var prompt strings.Builder

	prompt.WriteString("# Evaluation Report Request\n\n")
	prompt.WriteString(fmt.Sprintf("## Project: %s\n", rc.Project.Title))
	prompt.WriteString(fmt.Sprintf("Stage: %s, status: %s\n", rc.Project.Stage, rc.Project.Status))
	if rc.Project.ShortDescription != "" {
		prompt.WriteString(fmt.Sprintf("Summary: %s\n", rc.Project.ShortDescription))
	}
	if rc.Project.FullDescription != "" {
		prompt.WriteString(fmt.Sprintf("\n%s\n", rc.Project.FullDescription))
	}
	prompt.WriteString("\n")

	if rc.UseCase != nil {
		prompt.WriteString("## Use Case\n\n")
		prompt.WriteString(fmt.Sprintf("Title: %s\n", rc.UseCase.Title))
		if rc.UseCase.AISystemCategory != "" {
			prompt.WriteString(fmt.Sprintf("AI system category: %s\n", rc.UseCase.AISystemCategory))
		}
		if rc.UseCase.Description != "" {
			prompt.WriteString(fmt.Sprintf("Description: %s\n", rc.UseCase.Description))
		}
		prompt.WriteString("\n")
	}

	if rc.Experts != nil && rc.Experts.AssignedExpertsCount > 0 {
		prompt.WriteString(fmt.Sprintf("## Evaluation Team (%d experts)\n\n", rc.Experts.AssignedExpertsCount))
		for _, e := range rc.Experts.AssignedExperts {
			prompt.WriteString(fmt.Sprintf("- %s (%s)\n", e.Name, e.AssignmentRole))
		}
		prompt.WriteString("\n")
	}

	prompt.WriteString("## Scores by Principle\n\n")
	if len(rc.Principles) == 0 {
		prompt.WriteString("No submitted responses yet.\n\n")
	} else {
		prompt.WriteString("| Principle | Avg | Min | Max | Answers |\n|---|---|---|---|---|\n")
		for _, p := range rc.Principles {
			prompt.WriteString(fmt.Sprintf("| %s | %.2f | %g | %g | %d |\n", p.Label, p.AvgScore, p.MinScore, p.MaxScore, p.Count))
		}
		prompt.WriteString("\n")
	}

	if len(rc.Roles) > 0 {
		prompt.WriteString("## Scores by Role\n\n")
		for _, r := range rc.Roles {
			prompt.WriteString(fmt.Sprintf("### %s\n", r.Role))
			for _, p := range r.Principles {
				prompt.WriteString(fmt.Sprintf("- %s: avg %.2f (n=%d)\n", p.Label, p.AvgScore, p.Count))
			}
		}
		prompt.WriteString("\n")
	}

	if len(rc.Hotspots) > 0 {
		prompt.WriteString("## Hotspots (lowest-scoring questions)\n\n")
		for i, h := range rc.Hotspots {
			if i == maxHotspots {
				prompt.WriteString(fmt.Sprintf("- ... and %d more\n", len(rc.Hotspots)-maxHotspots))
				break
			}
			prompt.WriteString(fmt.Sprintf("- %s [%s]: avg %.2f, min %g, %d answers from %d experts (%s)\n",
				h.QuestionCode, h.Principle.Label(), h.AvgScore, h.MinScore, h.Count, h.UserCount, strings.Join(h.Roles, ", ")))
		}
		prompt.WriteString("\n")
	}

	if len(rc.Tensions) > 0 {
		prompt.WriteString("## Ethical Tensions\n\n")
		for _, t := range rc.Tensions {
			agree, disagree := t.VoteCounts()
			prompt.WriteString(fmt.Sprintf("- %s vs %s (%s severity, %s; %d agree / %d disagree): %s\n",
				t.PrincipleA.Label(), t.PrincipleB.Label(), t.Severity, t.Status, agree, disagree, t.Description))
			for _, e := range t.Evidences {
				prompt.WriteString(fmt.Sprintf("  - Evidence: %s\n", e.Title))
			}
		}
		prompt.WriteString("\n")
	}

	if len(rc.Completion) > 0 {
		prompt.WriteString("## Completion\n\n")
		for _, c := range rc.Completion {
			prompt.WriteString(fmt.Sprintf("- %s: %d/%d questionnaires submitted (%.0f%%)\n",
				c.Role, c.Submitted, c.Assigned, c.CompletionRate))
		}
		prompt.WriteString("\n")
	}

	prompt.WriteString(`## Instructions

Write the report in Markdown with these sections:
1. Executive Summary
2. Findings per Principle (cover every principle listed above)
3. Hotspots and Risks
4. Ethical Tensions
5. Recommendations
6. Limitations (mention incomplete evaluations if completion is below 100%)

Do not invent scores, experts or evidence that are not listed above.
`)

	return prompt.String()
}
