package service

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"caseguard/models"
	"caseguard/notification"
)

// In-memory fakes standing in for the MySQL repositories.

type fakeRuleStore struct {
	rules []models.EscalationRule
	err   error
}

func (s *fakeRuleStore) GetActiveRules() ([]models.EscalationRule, error) {
	return s.rules, s.err
}

func (s *fakeRuleStore) GetRuleByID(ruleID int64) (*models.EscalationRule, error) {
	for i := range s.rules {
		if s.rules[i].RuleID == ruleID {
			return &s.rules[i], nil
		}
	}
	return nil, &models.NotFoundError{Resource: "escalation rule", Key: fmt.Sprintf("%d", ruleID)}
}

type fakeLogStore struct {
	mu     sync.Mutex
	nextID int64
	logs   map[int64]*models.EscalationLog
}

func newFakeLogStore() *fakeLogStore {
	return &fakeLogStore{nextID: 1, logs: make(map[int64]*models.EscalationLog)}
}

func (s *fakeLogStore) GetLogByID(logID int64) (*models.EscalationLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.logs[logID]
	if !ok {
		return nil, &models.NotFoundError{Resource: "escalation log", Key: fmt.Sprintf("%d", logID)}
	}
	copied := *entry
	return &copied, nil
}

func (s *fakeLogStore) GetOpenLogForEntity(ref models.EntityRef) (*models.EscalationLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openLogLocked(ref), nil
}

func (s *fakeLogStore) openLogLocked(ref models.EntityRef) *models.EscalationLog {
	for _, entry := range s.logs {
		if entry.Entity == ref && entry.Status.Open() {
			copied := *entry
			return &copied
		}
	}
	return nil
}

func (s *fakeLogStore) HasOpenLog(ref models.EntityRef) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openLogLocked(ref) != nil, nil
}

func (s *fakeLogStore) CreateLogIfAbsent(l *models.EscalationLog) (*models.EscalationLog, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing := s.openLogLocked(l.Entity); existing != nil {
		return existing, false, nil
	}
	entry := *l
	entry.LogID = s.nextID
	entry.Status = models.EscalationPending
	entry.EscalatedAt = time.Now().UTC()
	s.nextID++
	s.logs[entry.LogID] = &entry
	copied := entry
	return &copied, true, nil
}

func (s *fakeLogStore) Acknowledge(logID, byUserID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.logs[logID]
	if !ok || entry.Status != models.EscalationPending {
		return false, nil
	}
	entry.Status = models.EscalationAcknowledged
	entry.EscalatedTo = sql.NullInt64{Int64: byUserID, Valid: true}
	entry.AcknowledgedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	return true, nil
}

func (s *fakeLogStore) Resolve(logID int64, notes string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.logs[logID]
	if !ok || !entry.Status.Open() {
		return false, nil
	}
	entry.Status = models.EscalationResolved
	entry.ResolvedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	if notes != "" {
		entry.ResolutionNotes = sql.NullString{String: notes, Valid: true}
	}
	return true, nil
}

func (s *fakeLogStore) GetStatistics(from, to *time.Time) (*models.EscalationStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &models.EscalationStats{}
	for _, entry := range s.logs {
		stats.Total++
		switch entry.Status {
		case models.EscalationPending:
			stats.Pending++
		case models.EscalationAcknowledged:
			stats.Acknowledged++
		case models.EscalationResolved:
			stats.Resolved++
		}
	}
	return stats, nil
}

type fakeCaseStore struct {
	mu               sync.Mutex
	cases            []models.CaseSnapshot
	pendingDocs      map[string]int
	lastStatusChange map[string]*time.Time
	escalated        map[string]int // ref string -> priority written
	cleared          map[string]bool
}

func newFakeCaseStore(cases ...models.CaseSnapshot) *fakeCaseStore {
	return &fakeCaseStore{
		cases:            cases,
		pendingDocs:      make(map[string]int),
		lastStatusChange: make(map[string]*time.Time),
		escalated:        make(map[string]int),
		cleared:          make(map[string]bool),
	}
}

func (s *fakeCaseStore) ListOpenCases() ([]models.CaseSnapshot, error) {
	return s.cases, nil
}

func (s *fakeCaseStore) CountPendingDocuments(ref models.EntityRef) (int, error) {
	return s.pendingDocs[ref.String()], nil
}

func (s *fakeCaseStore) LastStatusChangeAt(ref models.EntityRef) (*time.Time, error) {
	return s.lastStatusChange[ref.String()], nil
}

func (s *fakeCaseStore) MarkEscalated(ref models.EntityRef, priorityLevel int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.escalated[ref.String()]; !ok || priorityLevel > current {
		s.escalated[ref.String()] = priorityLevel
	}
	return nil
}

func (s *fakeCaseStore) ClearEscalated(ref models.EntityRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared[ref.String()] = true
	return nil
}

type fakeUserDirectory struct {
	users map[int64]*models.User
	roles map[string][]models.User
	err   error
}

func (d *fakeUserDirectory) GetUserByID(userID int64) (*models.User, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.users[userID], nil
}

func (d *fakeUserDirectory) GetActiveUsersByRole(roleName string) ([]models.User, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.roles[roleName], nil
}

type fakeTemplateSource struct {
	tpl *models.NotificationTemplate
	err error
}

func (s *fakeTemplateSource) Get(name string) (*models.NotificationTemplate, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.tpl, nil
}

type recordingSink struct {
	mu         sync.Mutex
	dispatches []*models.DispatchRecord
	events     []string
	err        error
}

func (s *recordingSink) RecordDispatch(record *models.DispatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.dispatches = append(s.dispatches, record)
	return nil
}

func (s *recordingSink) RecordEvent(ref models.EntityRef, action string, metadata map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, action)
	return nil
}

type fakeSender struct {
	mu      sync.Mutex
	channel models.Channel
	sent    []*notification.Message
	failFor map[string]error // address -> error
}

func newFakeSender(channel models.Channel) *fakeSender {
	return &fakeSender{channel: channel, failFor: make(map[string]error)}
}

func (s *fakeSender) Channel() models.Channel { return s.channel }

func (s *fakeSender) Validate(msg *notification.Message) error { return nil }

func (s *fakeSender) Send(ctx context.Context, msg *notification.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failFor[msg.Address]; ok {
		return err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func user(id int64, name, email, phone string) *models.User {
	u := &models.User{UserID: id, FirstName: name, IsActive: true}
	if email != "" {
		u.Email = sql.NullString{String: email, Valid: true}
	}
	if phone != "" {
		u.PhoneNumber = sql.NullString{String: phone, Valid: true}
	}
	return u
}
