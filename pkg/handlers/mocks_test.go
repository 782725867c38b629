package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/zinspection/zi-engine/pkg/apperrors"
	"github.com/zinspection/zi-engine/pkg/models"
	"github.com/zinspection/zi-engine/pkg/services"
)

// passthrough stands in for the auth and scope middleware.
func passthrough(next http.HandlerFunc) http.HandlerFunc { return next }

// serve routes req through mux and returns the recorder.
func serve(mux *http.ServeMux, method, path string, body any) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

// decodeData unwraps an ApiResponse envelope into dst.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	require.True(t, envelope.Success)
	require.NoError(t, json.Unmarshal(envelope.Data, dst))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body["error"]
}

// mockProjectService implements Get and the assignment operations; other
// methods panic through the nil embedded interface.
type mockProjectService struct {
	services.ProjectService
	projects    map[uuid.UUID]*models.Project
	forbidden   map[uuid.UUID]bool
	assignments []*models.ProjectAssignment
	assignReq   *services.AssignRequest
	removed     []uuid.UUID
	deleted     []uuid.UUID
}

func newMockProjectService(projects ...*models.Project) *mockProjectService {
	m := &mockProjectService{
		projects:  make(map[uuid.UUID]*models.Project),
		forbidden: make(map[uuid.UUID]bool),
	}
	for _, p := range projects {
		m.projects[p.ID] = p
	}
	return m
}

func (m *mockProjectService) Get(_ context.Context, id uuid.UUID) (*models.Project, error) {
	if m.forbidden[id] {
		return nil, apperrors.ErrForbidden
	}
	p, ok := m.projects[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return p, nil
}

func (m *mockProjectService) List(context.Context) ([]*models.Project, error) {
	out := make([]*models.Project, 0, len(m.projects))
	for _, p := range m.projects {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockProjectService) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.projects[id]; !ok {
		return apperrors.ErrNotFound
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockProjectService) Assign(_ context.Context, projectID uuid.UUID, req *services.AssignRequest) (*models.ProjectAssignment, error) {
	if req.Role == "" {
		return nil, apperrors.ErrInvalidRole
	}
	m.assignReq = req
	a := &models.ProjectAssignment{ID: uuid.New(), ProjectID: projectID, UserID: req.UserID, Role: req.Role, Questionnaires: req.Questionnaires}
	m.assignments = append(m.assignments, a)
	return a, nil
}

func (m *mockProjectService) ListAssignments(_ context.Context, projectID uuid.UUID) ([]*models.ProjectAssignment, error) {
	var out []*models.ProjectAssignment
	for _, a := range m.assignments {
		if a.ProjectID == projectID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockProjectService) RemoveAssignment(_ context.Context, _, assignmentID uuid.UUID) error {
	m.removed = append(m.removed, assignmentID)
	return nil
}

type mockAnalyticsService struct {
	services.AnalyticsService
	principles    []models.PrincipleScore
	hotspots      []models.Hotspot
	lastKey       string
	lastThreshold *float64
	err           error
}

func (m *mockAnalyticsService) PrincipleScores(_ context.Context, _ uuid.UUID, key string) ([]models.PrincipleScore, error) {
	m.lastKey = key
	return m.principles, m.err
}

func (m *mockAnalyticsService) Hotspots(_ context.Context, _ uuid.UUID, key string, threshold *float64) ([]models.Hotspot, error) {
	m.lastKey = key
	m.lastThreshold = threshold
	return m.hotspots, m.err
}

func (m *mockAnalyticsService) Completion(context.Context, uuid.UUID) ([]models.ExpertCompletion, error) {
	return []models.ExpertCompletion{}, m.err
}

type mockReportService struct {
	services.ReportService
	reports     map[uuid.UUID]*models.Report
	generateErr error
	finalized   []uuid.UUID
}

func newMockReportService(reports ...*models.Report) *mockReportService {
	m := &mockReportService{reports: make(map[uuid.UUID]*models.Report)}
	for _, r := range reports {
		m.reports[r.ID] = r
	}
	return m
}

func (m *mockReportService) Generate(_ context.Context, projectID uuid.UUID) (*models.Report, error) {
	if m.generateErr != nil {
		return nil, m.generateErr
	}
	r := &models.Report{ID: uuid.New(), ProjectID: projectID, Title: "Evaluation report", Status: models.ReportStatusDraft}
	m.reports[r.ID] = r
	return r, nil
}

func (m *mockReportService) Get(_ context.Context, id uuid.UUID) (*models.Report, error) {
	r, ok := m.reports[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return r, nil
}

func (m *mockReportService) Finalize(_ context.Context, id uuid.UUID) error {
	r, ok := m.reports[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if r.Status != models.ReportStatusDraft {
		return apperrors.ErrConflict
	}
	m.finalized = append(m.finalized, id)
	return nil
}

type mockResponseService struct {
	services.ResponseService
	saved   *services.SaveResponseRequest
	saveErr error
	mine    map[string]*models.Response
}

func (m *mockResponseService) Save(_ context.Context, projectID uuid.UUID, req *services.SaveResponseRequest) (*models.Response, error) {
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	m.saved = req
	return &models.Response{ID: uuid.New(), ProjectID: projectID, QuestionnaireKey: req.QuestionnaireKey, Status: req.Status}, nil
}

func (m *mockResponseService) GetMine(_ context.Context, _ uuid.UUID, key string) (*models.Response, error) {
	r, ok := m.mine[key]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return r, nil
}

type mockTensionService struct {
	services.TensionService
	tensions map[uuid.UUID]*models.Tension
	lastVote string
	mutated  []string
}

func (m *mockTensionService) AddComment(_ context.Context, id uuid.UUID, text string) (*models.TensionComment, error) {
	m.mutated = append(m.mutated, "comment")
	return &models.TensionComment{Text: text}, nil
}

func (m *mockTensionService) AddEvidence(_ context.Context, id uuid.UUID, req *services.EvidenceRequest) (*models.TensionEvidence, error) {
	m.mutated = append(m.mutated, "evidence")
	return &models.TensionEvidence{Title: req.Title}, nil
}

func (m *mockTensionService) Delete(_ context.Context, id uuid.UUID) error {
	m.mutated = append(m.mutated, "delete")
	return nil
}

func (m *mockTensionService) Get(_ context.Context, id uuid.UUID) (*models.Tension, error) {
	t, ok := m.tensions[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return t, nil
}

func (m *mockTensionService) Vote(_ context.Context, id uuid.UUID, vote string) (*models.Tension, error) {
	t, ok := m.tensions[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if vote != models.VoteAgree && vote != models.VoteDisagree {
		return nil, apperrors.ErrValidation
	}
	m.lastVote = vote
	m.mutated = append(m.mutated, "vote")
	return t, nil
}

type mockMessageService struct {
	services.MessageService
	lastLimit int
	unread    int
	sent      []*models.Message
	marked    int
}

func (m *mockMessageService) Send(_ context.Context, projectID, toUserID uuid.UUID, text string) (*models.Message, error) {
	msg := &models.Message{ID: uuid.New(), ProjectID: projectID, ToUserID: toUserID, Text: text}
	m.sent = append(m.sent, msg)
	return msg, nil
}

func (m *mockMessageService) MarkRead(context.Context, uuid.UUID, uuid.UUID) (int64, error) {
	m.marked++
	return 1, nil
}

func (m *mockMessageService) Conversation(_ context.Context, _, _ uuid.UUID, limit int) ([]*models.Message, error) {
	m.lastLimit = limit
	return []*models.Message{}, nil
}

func (m *mockMessageService) UnreadCount(context.Context) (int, error) {
	return m.unread, nil
}

type mockUseCaseService struct {
	services.UseCaseService
	experts   map[string]*models.AssignedExperts
	forbidden map[string]bool
	useCases  map[uuid.UUID]*models.UseCase
	statuses  map[uuid.UUID]string
}

func (m *mockUseCaseService) Get(_ context.Context, id uuid.UUID) (*models.UseCase, error) {
	if uc, ok := m.useCases[id]; ok {
		return uc, nil
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockUseCaseService) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	if _, ok := m.useCases[id]; !ok {
		return apperrors.ErrNotFound
	}
	if !models.IsValidUseCaseStatus(status) {
		return fmt.Errorf("%w: unknown status %q", apperrors.ErrValidation, status)
	}
	if m.statuses == nil {
		m.statuses = map[uuid.UUID]string{}
	}
	m.statuses[id] = status
	return nil
}

func (m *mockUseCaseService) AssignedExperts(_ context.Context, id string) (*models.AssignedExperts, error) {
	if m.forbidden[id] {
		return nil, apperrors.ErrForbidden
	}
	if e, ok := m.experts[id]; ok {
		return e, nil
	}
	return models.EmptyAssignedExperts(), nil
}
