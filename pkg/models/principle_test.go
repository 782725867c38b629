package models

import "testing"

func TestParsePrinciple(t *testing.T) {
	tests := []struct {
		in   string
		want Principle
		ok   bool
	}{
		{"TRANSPARENCY", PrincipleTransparency, true},
		{"transparency", PrincipleTransparency, true},
		{"  Accountability ", PrincipleAccountability, true},
		{"Human Agency & Oversight", PrincipleHumanAgency, true},
		{"human_agency", PrincipleHumanAgency, true},
		{"Technical Robustness & Safety", PrincipleTechnicalRobustness, true},
		{"Privacy & Data Governance", PrinciplePrivacy, true},
		{"privacy", PrinciplePrivacy, true},
		{"Diversity, Non-Discrimination & Fairness", PrincipleDiversityFairness, true},
		{"fairness", PrincipleDiversityFairness, true},
		{"Societal & Environmental Well-Being", PrincipleSocietalWellbeing, true},
		{"", "", false},
		{"   ", "", false},
		{"ethics", "", false},
	}

	for _, tt := range tests {
		got, ok := ParsePrinciple(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParsePrinciple(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestPrinciple_LabelRoundTrips(t *testing.T) {
	if len(Principles) != 7 {
		t.Fatalf("expected 7 principles, got %d", len(Principles))
	}
	for _, p := range Principles {
		if !p.IsValid() {
			t.Errorf("%q should be valid", p)
		}
		parsed, ok := ParsePrinciple(p.Label())
		if !ok || parsed != p {
			t.Errorf("label %q parsed to (%q, %v), want %q", p.Label(), parsed, ok, p)
		}
	}

	if got := Principle("UNKNOWN").Label(); got != "UNKNOWN" {
		t.Errorf("unknown principle label = %q, want the code itself", got)
	}
}

func TestQuestion_ScoreFor(t *testing.T) {
	q := &Question{Options: []QuestionOption{
		{Key: "no", Score: 0},
		{Key: "partly", Score: 2},
		{Key: "yes", Score: 4},
	}}

	if s, ok := q.ScoreFor("partly"); !ok || s != 2 {
		t.Errorf("ScoreFor(partly) = (%v, %v), want (2, true)", s, ok)
	}
	if s, ok := q.ScoreFor("no"); !ok || s != 0 {
		t.Errorf("ScoreFor(no) = (%v, %v), want (0, true)", s, ok)
	}
	if _, ok := q.ScoreFor("maybe"); ok {
		t.Error("ScoreFor(maybe) should report a missing option")
	}
}

func TestIsValidRole(t *testing.T) {
	for _, r := range ValidRoles {
		if !IsValidRole(r) {
			t.Errorf("%q should be valid", r)
		}
	}
	if IsValidRole("viewer") {
		t.Error("viewer should not be a valid role")
	}
}

func TestTension_VoteCounts(t *testing.T) {
	tension := &Tension{Votes: []TensionVote{
		{Vote: VoteAgree}, {Vote: VoteDisagree}, {Vote: VoteAgree}, {Vote: "abstain"},
	}}
	agree, disagree := tension.VoteCounts()
	if agree != 2 || disagree != 1 {
		t.Errorf("VoteCounts() = (%d, %d), want (2, 1)", agree, disagree)
	}
}
