package service

import (
	"context"
	"errors"
	"testing"

	"saysense/backend/internal/apperr"
	"saysense/backend/internal/feedback/domain"
	"saysense/backend/internal/feedback/repository"
	"saysense/backend/internal/realtime"
	sessiondomain "saysense/backend/internal/session/domain"
)

type mockSuggestionRepo struct {
	suggestions map[string]*domain.Suggestion
}

func newMockSuggestionRepo() *mockSuggestionRepo {
	return &mockSuggestionRepo{suggestions: map[string]*domain.Suggestion{}}
}

func (m *mockSuggestionRepo) Create(ctx context.Context, s *domain.Suggestion) error {
	cp := *s
	m.suggestions[s.ID] = &cp
	return nil
}

func (m *mockSuggestionRepo) CreateBatch(ctx context.Context, ss []domain.Suggestion) error {
	for _, s := range ss {
		cp := s
		m.suggestions[s.ID] = &cp
	}
	return nil
}

func (m *mockSuggestionRepo) GetByID(ctx context.Context, id string) (*domain.Suggestion, error) {
	s, ok := m.suggestions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *mockSuggestionRepo) ListBySession(ctx context.Context, sessionID string) ([]domain.Suggestion, error) {
	return m.ListFiltered(ctx, sessionID, repository.Filter{})
}

func (m *mockSuggestionRepo) ListFiltered(ctx context.Context, sessionID string, f repository.Filter) ([]domain.Suggestion, error) {
	var out []domain.Suggestion
	for _, s := range m.suggestions {
		if s.SessionID != sessionID {
			continue
		}
		if f.IsResolved != nil && s.IsResolved != *f.IsResolved {
			continue
		}
		if len(f.Types) > 0 && !containsType(f.Types, s.Type) {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (m *mockSuggestionRepo) Update(ctx context.Context, s *domain.Suggestion) error {
	cp := *s
	m.suggestions[s.ID] = &cp
	return nil
}

func (m *mockSuggestionRepo) Delete(ctx context.Context, id string) error {
	delete(m.suggestions, id)
	return nil
}

func (m *mockSuggestionRepo) Summary(ctx context.Context, sessionID string) (*domain.Summary, error) {
	sum := &domain.Summary{ByType: map[domain.SuggestionType]int{}, BySeverity: map[domain.Severity]int{}}
	for _, s := range m.suggestions {
		if s.SessionID != sessionID {
			continue
		}
		sum.Total++
		sum.ByType[s.Type]++
		sum.BySeverity[s.Severity]++
		if s.IsResolved {
			sum.Resolved++
		}
		if s.IsApplied {
			sum.Applied++
		}
	}
	return sum, nil
}

func containsType(ts []domain.SuggestionType, t domain.SuggestionType) bool {
	for _, x := range ts {
		if x == t {
			return true
		}
	}
	return false
}

type mockGuard struct {
	owners map[string]string
}

func (m *mockGuard) GetByIDForUser(ctx context.Context, id, userID string) (*sessiondomain.Session, error) {
	if m.owners[id] != userID {
		return nil, nil
	}
	return &sessiondomain.Session{ID: id, UserID: userID}, nil
}

type captureBroadcaster struct {
	messages []realtime.Message
}

func (c *captureBroadcaster) Broadcast(sessionID string, msg realtime.Message) {
	c.messages = append(c.messages, msg)
}

func newService() (*FeedbackService, *captureBroadcaster) {
	bc := &captureBroadcaster{}
	guard := &mockGuard{owners: map[string]string{"s-1": "u-1", "s-2": "u-2"}}
	return NewFeedbackService(newMockSuggestionRepo(), guard, bc), bc
}

func TestCreate_DefaultsSeverityAndBroadcasts(t *testing.T) {
	svc, bc := newService()
	sg, err := svc.Create(context.Background(), "u-1", "s-1", CreateSuggestionInput{
		Type: domain.SuggestionPacing, Message: "Slow down a touch",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sg.Severity != domain.SeverityMedium {
		t.Errorf("severity = %q, want default medium", sg.Severity)
	}
	if len(bc.messages) != 1 || bc.messages[0].Type != realtime.EventFeedbackSuggestion {
		t.Errorf("expected one feedback_suggestion broadcast, got %+v", bc.messages)
	}
}

func TestItemPaths_Asymmetry(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	foreign, err := svc.Create(ctx, "u-2", "s-2", CreateSuggestionInput{
		Type: domain.SuggestionTone, Message: "x",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Get(ctx, "u-1", "s-1", "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing get err = %v, want not found", err)
	}
	if _, err := svc.Get(ctx, "u-1", "s-1", foreign.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("foreign get err = %v, want forbidden", err)
	}
	resolved := true
	if _, err := svc.Update(ctx, "u-1", "s-1", foreign.ID, UpdateInput{IsResolved: &resolved}); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("foreign update err = %v, want forbidden", err)
	}
	if err := svc.Delete(ctx, "u-1", "s-1", foreign.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("foreign delete err = %v, want forbidden", err)
	}
}

func TestUpdate_PatchesFields(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	sg, _ := svc.Create(ctx, "u-1", "s-1", CreateSuggestionInput{
		Type: domain.SuggestionClarity, Message: "Enunciate",
	})

	msg := "Enunciate word endings"
	high := domain.SeverityHigh
	applied := true
	updated, err := svc.Update(ctx, "u-1", "s-1", sg.ID, UpdateInput{
		Message: &msg, Severity: &high, IsApplied: &applied,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Message != msg || updated.Severity != high || !updated.IsApplied {
		t.Errorf("unexpected suggestion: %+v", updated)
	}
}

func TestDelete_BroadcastsDeletionMarker(t *testing.T) {
	svc, bc := newService()
	ctx := context.Background()
	sg, _ := svc.Create(ctx, "u-1", "s-1", CreateSuggestionInput{
		Type: domain.SuggestionPause, Message: "x",
	})
	bc.messages = nil

	if err := svc.Delete(ctx, "u-1", "s-1", sg.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(bc.messages) != 1 || bc.messages[0].Type != realtime.EventFeedbackSuggestion {
		t.Fatalf("expected deletion broadcast, got %+v", bc.messages)
	}
	if _, err := svc.Get(ctx, "u-1", "s-1", sg.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("deleted get err = %v, want not found", err)
	}
}

func TestCreateBatch_MixedSessionsRejected(t *testing.T) {
	svc, _ := newService()
	_, err := svc.CreateBatch(context.Background(), "u-1", "s-1", []CreateSuggestionInput{
		{Type: domain.SuggestionTone, Message: "a"},
		{SessionID: "s-2", Type: domain.SuggestionTone, Message: "b"},
	})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v, want validation", err)
	}
}

func TestSummary(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	if _, err := svc.Create(ctx, "u-1", "s-1", CreateSuggestionInput{Type: domain.SuggestionTone, Message: "a"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, "u-1", "s-1", CreateSuggestionInput{
		Type: domain.SuggestionTone, Severity: domain.SeverityHigh, Message: "b",
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	sum, err := svc.Summary(ctx, "u-1", "s-1")
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if sum.Total != 2 || sum.ByType[domain.SuggestionTone] != 2 || sum.BySeverity[domain.SeverityHigh] != 1 {
		t.Errorf("unexpected summary: %+v", sum)
	}
}

func TestList_FilterValidation(t *testing.T) {
	svc, _ := newService()
	_, err := svc.List(context.Background(), "u-1", "s-1", repository.Filter{
		Severities: []domain.Severity{"catastrophic"},
	})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v, want validation", err)
	}
}
