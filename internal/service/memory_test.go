package service

// In-memory store implementations mirroring the Mongo repositories'
// contracts, including the constraints the engine leans on: the single
// InProgress session per user on Create, and the ungraded-step gate on
// SubmitStep.

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"assessment-service/internal/apperrors"
	"assessment-service/internal/models"
)

type memUsers struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User

	// updateErr, when set, is returned by the next UpdateAssessmentStatus
	// call to simulate a storage fault.
	updateErr error
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[primitive.ObjectID]*models.User{}}
}

func (m *memUsers) add(u *models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	m.users[u.ID] = u
}

func (m *memUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (m *memUsers) UpdateAssessmentStatus(_ context.Context, id primitive.ObjectID, status models.AssessmentState, finalLevel *models.Level) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		err := m.updateErr
		m.updateErr = nil
		return err
	}
	u := m.users[id]
	u.AssessmentStatus.Status = status
	if finalLevel != nil {
		u.AssessmentStatus.FinalLevel = finalLevel
	}
	return nil
}

func (m *memUsers) SetCertificateID(_ context.Context, id, certificateID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id].AssessmentStatus.CertificateID = &certificateID
	return nil
}

type memQuestions struct {
	mu        sync.Mutex
	questions map[primitive.ObjectID]models.Question
}

func newMemQuestions() *memQuestions {
	return &memQuestions{questions: map[primitive.ObjectID]models.Question{}}
}

func (m *memQuestions) seedLevel(level models.Level, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < n; i++ {
		q := models.Question{
			ID:    primitive.NewObjectID(),
			Level: level,
			Text:  "placeholder",
			Options: []models.QuestionOption{
				{Key: "a", Label: "first"},
				{Key: "b", Label: "second"},
			},
			CorrectOptionKey: "a",
			IsActive:         true,
		}
		m.questions[q.ID] = q
	}
}

func (m *memQuestions) deactivateLevel(level models.Level) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, q := range m.questions {
		if q.Level == level {
			q.IsActive = false
			m.questions[id] = q
		}
	}
}

func (m *memQuestions) SampleActiveByLevel(_ context.Context, level models.Level, count int) ([]models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var pool []models.Question
	for _, q := range m.questions {
		if q.Level == level && q.IsActive {
			pool = append(pool, q)
		}
	}
	rand.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if count < len(pool) {
		pool = pool[:count]
	}
	return pool, nil
}

func (m *memQuestions) CountActiveByLevel(_ context.Context, level models.Level) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, q := range m.questions {
		if q.Level == level && q.IsActive {
			n++
		}
	}
	return n, nil
}

// FindByIDs deliberately returns the documents in scrambled order, the way a
// store with no ordering guarantee would.
func (m *memQuestions) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Question
	for _, id := range ids {
		if q, ok := m.questions[id]; ok {
			out = append(out, q)
		}
	}
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out, nil
}

func (m *memQuestions) CorrectKeys(_ context.Context, ids []primitive.ObjectID) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make(map[string]string, len(ids))
	for _, id := range ids {
		if q, ok := m.questions[id]; ok {
			keys[id.Hex()] = q.CorrectOptionKey
		}
	}
	return keys, nil
}

type memSessions struct {
	mu       sync.Mutex
	sessions map[primitive.ObjectID]*models.TestSession
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: map[primitive.ObjectID]*models.TestSession{}}
}

func copySession(s *models.TestSession) *models.TestSession {
	copied := *s
	copied.Steps = append([]models.StepResult(nil), s.Steps...)
	return &copied
}

func (m *memSessions) Create(_ context.Context, session *models.TestSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.sessions {
		if existing.UserID == session.UserID && existing.Status == models.SessionInProgress {
			return apperrors.E(apperrors.ErrAlreadyActive, "assessment already in progress")
		}
	}
	if session.ID.IsZero() {
		session.ID = primitive.NewObjectID()
	}
	session.CreatedAt = time.Now()
	session.UpdatedAt = session.CreatedAt
	m.sessions[session.ID] = copySession(session)
	return nil
}

func (m *memSessions) FindByID(_ context.Context, id primitive.ObjectID) (*models.TestSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return copySession(s), nil
}

func (m *memSessions) FindByUserAndStatus(_ context.Context, userID primitive.ObjectID, status models.SessionStatus) (*models.TestSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.UserID == userID && s.Status == status {
			return copySession(s), nil
		}
	}
	return nil, nil
}

func (m *memSessions) Replace(_ context.Context, session *models.TestSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[session.ID]; !ok {
		return apperrors.E(apperrors.ErrNotFound, "session not found")
	}
	session.UpdatedAt = time.Now()
	m.sessions[session.ID] = copySession(session)
	return nil
}

func (m *memSessions) SubmitStep(_ context.Context, session *models.TestSession, stepIndex int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.sessions[session.ID]
	if !ok {
		return apperrors.E(apperrors.ErrNotFound, "session not found")
	}
	if stepIndex >= len(stored.Steps) || stored.Steps[stepIndex].Graded() {
		return apperrors.E(apperrors.ErrInvalidState, "step already submitted")
	}
	stored.Steps[stepIndex] = session.Steps[stepIndex]
	stored.Status = session.Status
	if session.FinalCertificationLevel != nil {
		stored.FinalCertificationLevel = session.FinalCertificationLevel
	}
	stored.UpdatedAt = time.Now()
	return nil
}

func (m *memSessions) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *memSessions) ListByStatus(_ context.Context, status models.SessionStatus, page, limit int64) ([]models.TestSession, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.TestSession
	for _, s := range m.sessions {
		if s.Status == status {
			out = append(out, *copySession(s))
		}
	}
	return out, int64(len(out)), nil
}

// mutate edits the stored session directly, for crafting edge-case states.
func (m *memSessions) mutate(id primitive.ObjectID, fn func(*models.TestSession)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.sessions[id])
}

type memCertificates struct {
	mu    sync.Mutex
	certs map[primitive.ObjectID]*models.Certificate
}

func newMemCertificates() *memCertificates {
	return &memCertificates{certs: map[primitive.ObjectID]*models.Certificate{}}
}

func (m *memCertificates) Create(_ context.Context, cert *models.Certificate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.certs {
		if existing.UserID == cert.UserID && existing.TestSessionID == cert.TestSessionID {
			return apperrors.E(apperrors.ErrAlreadyActive, "certificate already issued for this session")
		}
	}
	cert.ID = primitive.NewObjectID()
	cert.CreatedAt = time.Now()
	copied := *cert
	m.certs[cert.ID] = &copied
	return nil
}

func (m *memCertificates) FindBySessionID(_ context.Context, sessionID primitive.ObjectID) (*models.Certificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.certs {
		if c.TestSessionID == sessionID {
			copied := *c
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memCertificates) FindByUID(_ context.Context, uid string) (*models.Certificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.certs {
		if c.CertificateUID == uid {
			copied := *c
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memCertificates) FindLatestByUser(_ context.Context, userID primitive.ObjectID) (*models.Certificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *models.Certificate
	for _, c := range m.certs {
		if c.UserID == userID && (latest == nil || c.CreatedAt.After(latest.CreatedAt)) {
			latest = c
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

func (m *memCertificates) Revoke(_ context.Context, id primitive.ObjectID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.certs[id]; ok {
		c.RevokedAt = &at
	}
	return nil
}

func (m *memCertificates) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.certs)
}
