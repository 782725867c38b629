package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/zinspection/zi-engine/pkg/apperrors"
	"github.com/zinspection/zi-engine/pkg/auth"
	"github.com/zinspection/zi-engine/pkg/database"
	"github.com/zinspection/zi-engine/pkg/models"
	"github.com/zinspection/zi-engine/pkg/repositories"
)

// ctxAs returns a context carrying claims for userID. Admin adds the admin role.
func ctxAs(userID uuid.UUID, admin bool) context.Context {
	claims := &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: userID.String()}}
	if admin {
		claims.Roles = []string{models.RoleAdmin}
	}
	return auth.WithClaims(context.Background(), claims)
}

// fakeAcquirer hands out connection-less scopes.
type fakeAcquirer struct {
	mu       sync.Mutex
	acquired int
	err      error
}

func (a *fakeAcquirer) Acquire(ctx context.Context) (*database.Scope, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return nil, a.err
	}
	a.acquired++
	return &database.Scope{}, nil
}

// mockUserRepository keeps users in memory.
type mockUserRepository struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*models.User
	getErr   error
	createFn func(u *models.User) error
	deleted  []uuid.UUID
}

func newMockUserRepository(users ...*models.User) *mockUserRepository {
	m := &mockUserRepository{users: make(map[uuid.UUID]*models.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createFn != nil {
		if err := m.createFn(user); err != nil {
			return err
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	u, ok := m.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockUserRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	var out []*models.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *mockUserRepository) List(ctx context.Context, role string) ([]*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.User
	for _, u := range m.users {
		if role == "" || u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *mockUserRepository) Update(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return apperrors.ErrNotFound
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.users, id)
	m.deleted = append(m.deleted, id)
	return nil
}

// mockUseCaseRepository keeps use cases in memory.
type mockUseCaseRepository struct {
	mu          sync.Mutex
	useCases    map[uuid.UUID]*models.UseCase
	getErr      error
	statusCalls []string
}

func newMockUseCaseRepository(ucs ...*models.UseCase) *mockUseCaseRepository {
	m := &mockUseCaseRepository{useCases: make(map[uuid.UUID]*models.UseCase)}
	for _, uc := range ucs {
		m.useCases[uc.ID] = uc
	}
	return m
}

func (m *mockUseCaseRepository) Create(ctx context.Context, uc *models.UseCase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	uc.ID = uuid.New()
	m.useCases[uc.ID] = uc
	return nil
}

func (m *mockUseCaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.UseCase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	uc, ok := m.useCases[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return uc, nil
}

func (m *mockUseCaseRepository) List(ctx context.Context, filter repositories.UseCaseFilter) ([]*models.UseCase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.UseCase
	for _, uc := range m.useCases {
		if filter.Status != "" && uc.Status != filter.Status {
			continue
		}
		if filter.OwnerID != nil && uc.OwnerID != *filter.OwnerID {
			continue
		}
		out = append(out, uc)
	}
	return out, nil
}

func (m *mockUseCaseRepository) Update(ctx context.Context, uc *models.UseCase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.useCases[uc.ID] = uc
	return nil
}

func (m *mockUseCaseRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	uc, ok := m.useCases[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	uc.Status = status
	m.statusCalls = append(m.statusCalls, status)
	return nil
}

func (m *mockUseCaseRepository) AppendAssignedExperts(ctx context.Context, id uuid.UUID, refs models.LegacyRefs) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	uc, ok := m.useCases[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	uc.AssignedExperts = append(uc.AssignedExperts, refs...)
	return nil
}

func (m *mockUseCaseRepository) AddAttachment(ctx context.Context, id uuid.UUID, attachment models.Attachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	uc, ok := m.useCases[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	uc.Attachments = append(uc.Attachments, attachment)
	return nil
}

func (m *mockUseCaseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.useCases, id)
	return nil
}

// mockProjectRepository keeps projects in memory. Membership through
// assignments is configured with forUser.
type mockProjectRepository struct {
	mu        sync.Mutex
	projects  map[uuid.UUID]*models.Project
	forUser   map[uuid.UUID][]*models.Project
	getErr    error
	listUCErr error
}

func newMockProjectRepository(projects ...*models.Project) *mockProjectRepository {
	m := &mockProjectRepository{
		projects: make(map[uuid.UUID]*models.Project),
		forUser:  make(map[uuid.UUID][]*models.Project),
	}
	for _, p := range projects {
		m.projects[p.ID] = p
	}
	return m
}

func (m *mockProjectRepository) Create(ctx context.Context, project *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	project.ID = uuid.New()
	m.projects[project.ID] = project
	return nil
}

func (m *mockProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.projects[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return p, nil
}

func (m *mockProjectRepository) List(ctx context.Context) ([]*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Project
	for _, p := range m.projects {
		out = append(out, p)
	}
	return out, nil
}

func (m *mockProjectRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.forUser[userID], nil
}

func (m *mockProjectRepository) ListByUseCase(ctx context.Context, useCaseID string) ([]*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listUCErr != nil {
		return nil, m.listUCErr
	}
	want := strings.ToLower(strings.TrimSpace(useCaseID))
	var out []*models.Project
	for _, p := range m.projects {
		if strings.ToLower(strings.TrimSpace(p.UseCase)) == want {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProjectRepository) Update(ctx context.Context, project *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[project.ID] = project
	return nil
}

func (m *mockProjectRepository) AppendAssignedUsers(ctx context.Context, id uuid.UUID, refs models.LegacyRefs) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	p.AssignedUsers = append(p.AssignedUsers, refs...)
	return nil
}

func (m *mockProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.projects, id)
	return nil
}

// mockAssignmentRepository keeps assignments in insertion order.
type mockAssignmentRepository struct {
	mu            sync.Mutex
	assignments   []*models.ProjectAssignment
	listErr       error
	statusUpdates map[uuid.UUID]string
}

func newMockAssignmentRepository(as ...*models.ProjectAssignment) *mockAssignmentRepository {
	return &mockAssignmentRepository{assignments: as, statusUpdates: make(map[uuid.UUID]string)}
}

func (m *mockAssignmentRepository) Upsert(ctx context.Context, a *models.ProjectAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.assignments {
		if existing.ProjectID == a.ProjectID && existing.UserID == a.UserID && existing.Role == a.Role {
			existing.Questionnaires = a.Questionnaires
			*a = *existing
			return nil
		}
	}
	a.ID = uuid.New()
	a.Status = models.AssignmentStatusAssigned
	m.assignments = append(m.assignments, a)
	return nil
}

func (m *mockAssignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ProjectAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.assignments {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockAssignmentRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.ProjectAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []*models.ProjectAssignment
	for _, a := range m.assignments {
		if want[a.ID] {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAssignmentRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.ProjectAssignment, error) {
	return m.ListByProjects(ctx, []uuid.UUID{projectID})
}

func (m *mockAssignmentRepository) ListByProjects(ctx context.Context, projectIDs []uuid.UUID) ([]*models.ProjectAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	want := make(map[uuid.UUID]bool, len(projectIDs))
	for _, id := range projectIDs {
		want[id] = true
	}
	var out []*models.ProjectAssignment
	for _, a := range m.assignments {
		if want[a.ProjectID] {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAssignmentRepository) ListForUser(ctx context.Context, projectID, userID uuid.UUID) ([]*models.ProjectAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.ProjectAssignment
	for _, a := range m.assignments {
		if a.ProjectID == projectID && a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAssignmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.assignments {
		if a.ID == id {
			a.Status = status
			m.statusUpdates[id] = status
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (m *mockAssignmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.assignments {
		if a.ID == id {
			m.assignments = append(m.assignments[:i], m.assignments[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

// mockQuestionnaireRepository keeps questionnaires and their questions in memory.
type mockQuestionnaireRepository struct {
	mu             sync.Mutex
	questionnaires map[string]*models.Questionnaire
	questions      map[string][]*models.Question
}

func newMockQuestionnaireRepository() *mockQuestionnaireRepository {
	return &mockQuestionnaireRepository{
		questionnaires: make(map[string]*models.Questionnaire),
		questions:      make(map[string][]*models.Question),
	}
}

func (m *mockQuestionnaireRepository) Create(ctx context.Context, q *models.Questionnaire) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.questionnaires[q.Key]; exists {
		return apperrors.ErrConflict
	}
	m.questionnaires[q.Key] = q
	return nil
}

func (m *mockQuestionnaireRepository) Get(ctx context.Context, key string) (*models.Questionnaire, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.questionnaires[key]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return q, nil
}

func (m *mockQuestionnaireRepository) List(ctx context.Context) ([]*models.Questionnaire, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Questionnaire
	for _, q := range m.questionnaires {
		out = append(out, q)
	}
	return out, nil
}

func (m *mockQuestionnaireRepository) UpsertQuestion(ctx context.Context, q *models.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.questions[q.QuestionnaireKey]
	for i, existing := range list {
		if existing.Code == q.Code {
			q.ID = existing.ID
			list[i] = q
			return nil
		}
	}
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	m.questions[q.QuestionnaireKey] = append(list, q)
	return nil
}

func (m *mockQuestionnaireRepository) ListQuestions(ctx context.Context, key string) ([]*models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.questions[key], nil
}

// mockResponseRepository keeps responses keyed by (project, user, questionnaire).
type mockResponseRepository struct {
	mu            sync.Mutex
	responses     []*models.Response
	scored        []models.ScoredAnswer
	statuses      []models.CompletionResponse
	assignmentIDs []uuid.UUID
	scoredCalls   int
	scoredErr     error
}

func (m *mockResponseRepository) Upsert(ctx context.Context, resp *models.Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.responses {
		if existing.ProjectID == resp.ProjectID && existing.UserID == resp.UserID && existing.QuestionnaireKey == resp.QuestionnaireKey {
			resp.ID = existing.ID
			resp.CreatedAt = existing.CreatedAt
			m.responses[i] = resp
			return nil
		}
	}
	resp.ID = uuid.New()
	resp.CreatedAt = time.Now()
	m.responses = append(m.responses, resp)
	return nil
}

func (m *mockResponseRepository) Get(ctx context.Context, projectID, userID uuid.UUID, questionnaireKey string) (*models.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.responses {
		if r.ProjectID == projectID && r.UserID == userID && r.QuestionnaireKey == questionnaireKey {
			return r, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockResponseRepository) ListByProject(ctx context.Context, projectID uuid.UUID, status string) ([]*models.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Response
	for _, r := range m.responses {
		if r.ProjectID == projectID && (status == "" || r.Status == status) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockResponseRepository) AssignmentIDsForProjects(ctx context.Context, projectIDs []uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.assignmentIDs, nil
}

func (m *mockResponseRepository) ScoredAnswers(ctx context.Context, projectID uuid.UUID, questionnaireKey string) ([]models.ScoredAnswer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scoredCalls++
	if m.scoredErr != nil {
		return nil, m.scoredErr
	}
	return m.scored, nil
}

func (m *mockResponseRepository) Statuses(ctx context.Context, projectID uuid.UUID) ([]models.CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.statuses) > 0 {
		return m.statuses, nil
	}
	var out []models.CompletionResponse
	for _, r := range m.responses {
		if r.ProjectID == projectID {
			out = append(out, models.CompletionResponse{UserID: r.UserID, QuestionnaireKey: r.QuestionnaireKey, Status: r.Status})
		}
	}
	return out, nil
}

// mockTensionRepository keeps tensions in memory.
type mockTensionRepository struct {
	mu       sync.Mutex
	tensions map[uuid.UUID]*models.Tension
	listErr  error
}

func newMockTensionRepository(ts ...*models.Tension) *mockTensionRepository {
	m := &mockTensionRepository{tensions: make(map[uuid.UUID]*models.Tension)}
	for _, t := range ts {
		m.tensions[t.ID] = t
	}
	return m
}

func (m *mockTensionRepository) Create(ctx context.Context, t *models.Tension) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = uuid.New()
	m.tensions[t.ID] = t
	return nil
}

func (m *mockTensionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tension, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tensions[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return t, nil
}

func (m *mockTensionRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Tension, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*models.Tension
	for _, t := range m.tensions {
		if t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockTensionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tensions[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	t.Status = status
	return nil
}

func (m *mockTensionRepository) UpdateVotes(ctx context.Context, id uuid.UUID, mutate repositories.VoteMutator) (*models.Tension, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tensions[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	t.Votes = mutate(t.Votes)
	return t, nil
}

func (m *mockTensionRepository) AddComment(ctx context.Context, id uuid.UUID, comment models.TensionComment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tensions[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	t.Comments = append(t.Comments, comment)
	return nil
}

func (m *mockTensionRepository) AddEvidence(ctx context.Context, id uuid.UUID, evidence models.TensionEvidence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tensions[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	t.Evidences = append(t.Evidences, evidence)
	return nil
}

func (m *mockTensionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tensions[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(m.tensions, id)
	return nil
}

// mockMessageRepository records created messages.
type mockMessageRepository struct {
	mu        sync.Mutex
	created   []*models.Message
	lastLimit int
	marked    int64
	unread    int
}

func (m *mockMessageRepository) Create(ctx context.Context, msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = uuid.New()
	msg.CreatedAt = time.Now()
	m.created = append(m.created, msg)
	return nil
}

func (m *mockMessageRepository) Conversation(ctx context.Context, projectID, userA, userB uuid.UUID, limit int) ([]*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLimit = limit
	return m.created, nil
}

func (m *mockMessageRepository) MarkRead(ctx context.Context, projectID, senderID, recipientID uuid.UUID) (int64, error) {
	return m.marked, nil
}

func (m *mockMessageRepository) UnreadCount(ctx context.Context, recipientID uuid.UUID) (int, error) {
	return m.unread, nil
}

// mockReportRepository keeps reports in memory.
type mockReportRepository struct {
	mu      sync.Mutex
	reports map[uuid.UUID]*models.Report
}

func newMockReportRepository() *mockReportRepository {
	return &mockReportRepository{reports: make(map[uuid.UUID]*models.Report)}
}

func (m *mockReportRepository) Create(ctx context.Context, report *models.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	report.ID = uuid.New()
	m.reports[report.ID] = report
	return nil
}

func (m *mockReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return r, nil
}

func (m *mockReportRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Report
	for _, r := range m.reports {
		if r.ProjectID == projectID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockReportRepository) UpdateContent(ctx context.Context, id uuid.UUID, title, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	r.Title, r.Content = title, content
	return nil
}

func (m *mockReportRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	r.Status = status
	return nil
}

func (m *mockReportRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.reports, id)
	return nil
}

var (
	_ repositories.UserRepository          = (*mockUserRepository)(nil)
	_ repositories.UseCaseRepository       = (*mockUseCaseRepository)(nil)
	_ repositories.ProjectRepository       = (*mockProjectRepository)(nil)
	_ repositories.AssignmentRepository    = (*mockAssignmentRepository)(nil)
	_ repositories.QuestionnaireRepository = (*mockQuestionnaireRepository)(nil)
	_ repositories.ResponseRepository      = (*mockResponseRepository)(nil)
	_ repositories.TensionRepository       = (*mockTensionRepository)(nil)
	_ repositories.MessageRepository       = (*mockMessageRepository)(nil)
	_ repositories.ReportRepository        = (*mockReportRepository)(nil)
	_ database.Acquirer                    = (*fakeAcquirer)(nil)
)
