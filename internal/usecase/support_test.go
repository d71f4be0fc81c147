package usecase

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/hamdani2020/EdAgent-sub002/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeAI scripts structured responses in order; the last one sticks for any
// further calls. A non-nil error wins over scripted responses.
type fakeAI struct {
	mu              sync.Mutex
	structured      []string
	structuredErr   error
	text            string
	textErr         error
	structuredCalls int
	textCalls       int
	prompts         []string
}

func (f *fakeAI) GenerateText(_ domain.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.textCalls++
	f.prompts = append(f.prompts, prompt)
	if f.textErr != nil {
		return "", f.textErr
	}
	return f.text, nil
}

func (f *fakeAI) GenerateStructured(_ domain.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.structuredCalls++
	f.prompts = append(f.prompts, prompt)
	if f.structuredErr != nil {
		return "", f.structuredErr
	}
	if len(f.structured) == 0 {
		return "{}", nil
	}
	resp := f.structured[0]
	if len(f.structured) > 1 {
		f.structured = f.structured[1:]
	}
	return resp, nil
}

type fakeStateStore struct {
	mu     sync.Mutex
	states map[string]*domain.ConversationState
	puts   int
	putErr error
}

func newFakeStateStore() *fakeStateStore {
	return &fakeStateStore{states: make(map[string]*domain.ConversationState)}
}

func (f *fakeStateStore) Get(_ domain.Context, userID string) (*domain.ConversationState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.states[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return st, nil
}

func (f *fakeStateStore) Put(_ domain.Context, state *domain.ConversationState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.putErr != nil {
		return f.putErr
	}
	f.states[state.UserID] = state
	return nil
}

type fakeContextStore struct {
	mu           sync.Mutex
	contexts     map[string]domain.UserContext
	turns        []domain.Turn
	savedResults []domain.SkillResult
	skillUpdates []map[string]domain.SkillLevel
	appendErr    error
}

func newFakeContextStore() *fakeContextStore {
	return &fakeContextStore{contexts: make(map[string]domain.UserContext)}
}

func (f *fakeContextStore) GetUserContext(_ domain.Context, userID string) (domain.UserContext, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	uc, ok := f.contexts[userID]
	if !ok {
		return domain.UserContext{}, domain.ErrNotFound
	}
	return uc, nil
}

func (f *fakeContextStore) CreateUserContext(_ domain.Context, userID string) (domain.UserContext, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	uc := domain.UserContext{UserID: userID, Skills: map[string]domain.SkillLevel{}, CreatedAt: time.Now().UTC()}
	f.contexts[userID] = uc
	return uc, nil
}

func (f *fakeContextStore) AppendTurn(_ domain.Context, userID, userText, assistantText string, t domain.ReplyType, metadata map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.turns = append(f.turns, domain.Turn{
		UserID: userID, UserText: userText, AssistantText: assistantText, Type: t, Metadata: metadata,
	})
	return nil
}

func (f *fakeContextStore) SaveAssessmentResult(_ domain.Context, _ string, result domain.SkillResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.savedResults = append(f.savedResults, result)
	return nil
}

func (f *fakeContextStore) UpdateSkills(_ domain.Context, _ string, skills map[string]domain.SkillLevel) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.skillUpdates = append(f.skillUpdates, skills)
	return nil
}

func (f *fakeContextStore) History(_ domain.Context, userID string, limit int) ([]domain.Turn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Turn
	for _, t := range f.turns {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}
