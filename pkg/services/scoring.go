package services

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/zinspection/zi-engine/pkg/models"
)

// DefaultHotspotThreshold is the score at or below which an answer is a hotspot.
const DefaultHotspotThreshold = 1.0

// scoreStats accumulates scores at full precision. Rounding happens only
// when a view is built.
type scoreStats struct {
	sum   float64
	count int
	min   float64
	max   float64
}

func (s *scoreStats) add(v float64) {
	if s.count == 0 || v < s.min {
		s.min = v
	}
	if s.count == 0 || v > s.max {
		s.max = v
	}
	s.sum += v
	s.count++
}

func (s *scoreStats) avg() float64 {
	if s.count == 0 {
		return 0
	}
	return s.sum / float64(s.count)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// AggregatePrinciples summarizes scores per principle, sorted by principle.
// Answers without a score are ignored.
func AggregatePrinciples(answers []models.ScoredAnswer) []models.PrincipleScore {
	stats := make(map[models.Principle]*scoreStats)
	codes := make(map[models.Principle]map[string]struct{})

	for _, a := range answers {
		if a.Score == nil {
			continue
		}
		st, ok := stats[a.Principle]
		if !ok {
			st = &scoreStats{}
			stats[a.Principle] = st
			codes[a.Principle] = make(map[string]struct{})
		}
		st.add(*a.Score)
		if a.QuestionCode != "" {
			codes[a.Principle][a.QuestionCode] = struct{}{}
		}
	}

	out := make([]models.PrincipleScore, 0, len(stats))
	for p, st := range stats {
		out = append(out, models.PrincipleScore{
			Principle:     p,
			Label:         p.Label(),
			AvgScore:      round2(st.avg()),
			MinScore:      st.min,
			MaxScore:      st.max,
			Count:         st.count,
			QuestionCodes: sortedKeys(codes[p]),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Principle < out[j].Principle
	})
	return out
}

// AggregateRoles summarizes scores per principle within each evaluator role.
// Roles are sorted by name; principles within a role by average, highest first.
func AggregateRoles(answers []models.ScoredAnswer) []models.RoleScores {
	byRole := make(map[string]map[models.Principle]*scoreStats)

	for _, a := range answers {
		if a.Score == nil {
			continue
		}
		principles, ok := byRole[a.Role]
		if !ok {
			principles = make(map[models.Principle]*scoreStats)
			byRole[a.Role] = principles
		}
		st, ok := principles[a.Principle]
		if !ok {
			st = &scoreStats{}
			principles[a.Principle] = st
		}
		st.add(*a.Score)
	}

	out := make([]models.RoleScores, 0, len(byRole))
	for role, principles := range byRole {
		type ranked struct {
			avg   float64
			score models.RolePrincipleScore
		}
		rows := make([]ranked, 0, len(principles))
		for p, st := range principles {
			rows = append(rows, ranked{
				avg: st.avg(),
				score: models.RolePrincipleScore{
					Principle: p,
					Label:     p.Label(),
					AvgScore:  round2(st.avg()),
					MinScore:  st.min,
					MaxScore:  st.max,
					Count:     st.count,
				},
			})
		}
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].avg != rows[j].avg {
				return rows[i].avg > rows[j].avg
			}
			return rows[i].score.Principle < rows[j].score.Principle
		})

		scores := make([]models.RolePrincipleScore, len(rows))
		for i, r := range rows {
			scores[i] = r.score
		}
		out = append(out, models.RoleScores{Role: role, Principles: scores})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Role < out[j].Role
	})
	return out
}

// DetectHotspots groups answers scoring at or below threshold by
// (question code, principle). Groups are ordered by average score ascending,
// then by occurrence count descending.
func DetectHotspots(answers []models.ScoredAnswer, threshold float64) []models.Hotspot {
	type hotspotKey struct {
		code      string
		principle models.Principle
	}
	type group struct {
		stats scoreStats
		roles map[string]struct{}
		users map[uuid.UUID]struct{}
	}

	groups := make(map[hotspotKey]*group)
	for _, a := range answers {
		if a.Score == nil || *a.Score > threshold {
			continue
		}
		key := hotspotKey{code: a.QuestionCode, principle: a.Principle}
		g, ok := groups[key]
		if !ok {
			g = &group{roles: make(map[string]struct{}), users: make(map[uuid.UUID]struct{})}
			groups[key] = g
		}
		g.stats.add(*a.Score)
		if a.Role != "" {
			g.roles[a.Role] = struct{}{}
		}
		g.users[a.UserID] = struct{}{}
	}

	type ranked struct {
		avg     float64
		hotspot models.Hotspot
	}
	rows := make([]ranked, 0, len(groups))
	for key, g := range groups {
		rows = append(rows, ranked{
			avg: g.stats.avg(),
			hotspot: models.Hotspot{
				QuestionCode: key.code,
				Principle:    key.principle,
				Count:        g.stats.count,
				AvgScore:     round2(g.stats.avg()),
				MinScore:     g.stats.min,
				Roles:        sortedKeys(g.roles),
				UserCount:    len(g.users),
			},
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.avg != b.avg {
			return a.avg < b.avg
		}
		if a.hotspot.Count != b.hotspot.Count {
			return a.hotspot.Count > b.hotspot.Count
		}
		if a.hotspot.QuestionCode != b.hotspot.QuestionCode {
			return a.hotspot.QuestionCode < b.hotspot.QuestionCode
		}
		return a.hotspot.Principle < b.hotspot.Principle
	})

	out := make([]models.Hotspot, len(rows))
	for i, r := range rows {
		out[i] = r.hotspot
	}
	return out
}

// ComputeCompletion reports, per (user, role) assignment, how many of the
// assigned questionnaires have a submitted or draft response. Rows are sorted
// by role, then completion rate descending.
func ComputeCompletion(
	assignments []*models.ProjectAssignment,
	responses []models.CompletionResponse,
	names map[uuid.UUID]string,
) []models.ExpertCompletion {
	type expertKey struct {
		userID uuid.UUID
		role   string
	}

	keys := make([]expertKey, 0, len(assignments))
	questionnaires := make(map[expertKey]map[string]struct{})
	for _, a := range assignments {
		k := expertKey{userID: a.UserID, role: a.Role}
		set, ok := questionnaires[k]
		if !ok {
			set = make(map[string]struct{})
			questionnaires[k] = set
			keys = append(keys, k)
		}
		for _, q := range a.Questionnaires {
			if q != "" {
				set[q] = struct{}{}
			}
		}
	}

	type responseKey struct {
		userID uuid.UUID
		key    string
	}
	statuses := make(map[responseKey]string, len(responses))
	for _, r := range responses {
		statuses[responseKey{userID: r.UserID, key: r.QuestionnaireKey}] = r.Status
	}

	out := make([]models.ExpertCompletion, 0, len(keys))
	for _, k := range keys {
		assigned := questionnaires[k]
		row := models.ExpertCompletion{
			UserID:   k.userID,
			Name:     names[k.userID],
			Role:     k.role,
			Assigned: len(assigned),
		}
		for q := range assigned {
			switch statuses[responseKey{userID: k.userID, key: q}] {
			case models.ResponseStatusSubmitted:
				row.Submitted++
			case models.ResponseStatusDraft:
				row.Draft++
			}
		}
		row.CompletionRate = completionRate(row.Submitted, row.Assigned)
		out = append(out, row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Role != out[j].Role {
			return out[i].Role < out[j].Role
		}
		if out[i].CompletionRate != out[j].CompletionRate {
			return out[i].CompletionRate > out[j].CompletionRate
		}
		return out[i].UserID.String() < out[j].UserID.String()
	})
	return out
}

// completionRate is submitted/assigned as a percentage in [0, 100], 0 when
// nothing is assigned.
func completionRate(submitted, assigned int) float64 {
	if assigned <= 0 || submitted <= 0 {
		return 0
	}
	rate := float64(submitted) / float64(assigned) * 100
	if rate > 100 {
		rate = 100
	}
	return round2(rate)
}
