package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"aidly-widget-be/internal/entity"
	"aidly-widget-be/internal/model"
	"aidly-widget-be/internal/repository/contract"
	"aidly-widget-be/internal/repository/specification"
	"aidly-widget-be/internal/repository/unitofwork"
	"aidly-widget-be/pkg/events"

	"github.com/google/uuid"
)

// In-memory repositories backing the service tests. They interpret the same
// specifications the gorm implementations translate to SQL.

type fakeStore struct {
	mu sync.Mutex

	users    map[uuid.UUID]*entity.User
	renewals []*entity.RenewalToken

	workspaces map[uuid.UUID]*entity.Workspace
	bots       map[uuid.UUID]*entity.Bot

	widgetTokens []*entity.WidgetToken
	sessions     []*entity.ChatSession
	messages     []*entity.Message
	systemLogs   []*model.SystemLog
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:      map[uuid.UUID]*entity.User{},
		workspaces: map[uuid.UUID]*entity.Workspace{},
		bots:       map[uuid.UUID]*entity.Bot{},
	}
}

// fakeFactory satisfies unitofwork.RepositoryFactory over the shared store.
// Begin/Commit/Rollback are no-ops; single-row CAS still holds under the
// store mutex, which is what the rotation tests exercise.
type fakeFactory struct {
	store *fakeStore
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUow{store: f.store}
}

type fakeUow struct {
	store *fakeStore
}

func (u *fakeUow) Begin(ctx context.Context) error { return nil }
func (u *fakeUow) Commit() error                   { return nil }
func (u *fakeUow) Rollback() error                 { return nil }

func (u *fakeUow) UserRepository() contract.UserRepository {
	return &fakeUserRepo{store: u.store}
}
func (u *fakeUow) BotRepository() contract.BotRepository {
	return &fakeBotRepo{store: u.store}
}
func (u *fakeUow) WidgetTokenRepository() contract.WidgetTokenRepository {
	return &fakeWidgetTokenRepo{store: u.store}
}
func (u *fakeUow) ChatSessionRepository() contract.ChatSessionRepository {
	return &fakeChatSessionRepo{store: u.store}
}
func (u *fakeUow) MessageRepository() contract.MessageRepository {
	return &fakeMessageRepo{store: u.store}
}
func (u *fakeUow) SystemLogRepository() contract.SystemLogRepository {
	return &fakeSystemLogRepo{store: u.store}
}

// --- user repository ---

type fakeUserRepo struct {
	store *fakeStore
}

func matchUser(u *entity.User, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if u.Id != s.ID {
				return false
			}
		case specification.ByUsername:
			if u.Username != s.Username {
				return false
			}
		case specification.ActiveUsers:
			if u.Status != entity.UserStatusActive {
				return false
			}
		}
	}
	return true
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *user
	r.store.users[user.Id] = &cp
	return nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	return r.Create(ctx, user)
}

func (r *fakeUserRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if matchUser(u, specs) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var n int64
	for _, u := range r.store.users {
		if matchUser(u, specs) {
			n++
		}
	}
	return n, nil
}

func (r *fakeUserRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if u, ok := r.store.users[id]; ok {
		u.Status = entity.UserStatus(status)
	}
	return nil
}

func matchRenewal(t *entity.RenewalToken, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if t.Id != s.ID {
				return false
			}
		case specification.ByTokenHash:
			if t.TokenHash != s.Hash {
				return false
			}
		case specification.OwnedByUser:
			if t.UserId != s.UserID {
				return false
			}
		case specification.ActiveRenewals:
			if t.Revoked {
				return false
			}
		case specification.ExpiresBefore:
			if !t.ExpiresAt.Before(s.At) {
				return false
			}
		case specification.CreatedBefore:
			if !t.CreatedAt.Before(s.At) {
				return false
			}
		}
	}
	return true
}

func (r *fakeUserRepo) CreateRenewalToken(ctx context.Context, t *entity.RenewalToken) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *t
	r.store.renewals = append(r.store.renewals, &cp)
	return nil
}

func (r *fakeUserRepo) FindRenewalToken(ctx context.Context, specs ...specification.Specification) (*entity.RenewalToken, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, t := range r.store.renewals {
		if matchRenewal(t, specs) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) RevokeRenewalToken(ctx context.Context, tokenHash string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, t := range r.store.renewals {
		if t.TokenHash == tokenHash && !t.Revoked {
			t.Revoked = true
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeUserRepo) RevokeAllRenewalTokens(ctx context.Context, userId uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var n int64
	for _, t := range r.store.renewals {
		if t.UserId == userId && !t.Revoked {
			t.Revoked = true
			n++
		}
	}
	return n, nil
}

func (r *fakeUserRepo) DeleteRenewalTokens(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	kept := r.store.renewals[:0]
	var n int64
	for _, t := range r.store.renewals {
		if matchRenewal(t, specs) {
			n++
			continue
		}
		kept = append(kept, t)
	}
	r.store.renewals = kept
	return n, nil
}

func (r *fakeUserRepo) FindRenewalTokens(ctx context.Context, specs ...specification.Specification) ([]*entity.RenewalToken, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.RenewalToken
	for _, t := range r.store.renewals {
		if matchRenewal(t, specs) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) DeleteRenewalTokensOlderThanNth(ctx context.Context, userId uuid.UUID, keep int) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var active []*entity.RenewalToken
	for _, t := range r.store.renewals {
		if t.UserId == userId && !t.Revoked {
			active = append(active, t)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].CreatedAt.After(active[j].CreatedAt) })
	if len(active) <= keep {
		return 0, nil
	}
	doomed := map[uuid.UUID]bool{}
	for _, t := range active[keep:] {
		doomed[t.Id] = true
	}
	kept := r.store.renewals[:0]
	var n int64
	for _, t := range r.store.renewals {
		if doomed[t.Id] {
			n++
			continue
		}
		kept = append(kept, t)
	}
	r.store.renewals = kept
	return n, nil
}

func (r *fakeUserRepo) ListUserIdsWithRenewalTokens(ctx context.Context) ([]uuid.UUID, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	seen := map[uuid.UUID]bool{}
	var out []uuid.UUID
	for _, t := range r.store.renewals {
		if !seen[t.UserId] {
			seen[t.UserId] = true
			out = append(out, t.UserId)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) DeleteInactiveRenewalTokens(ctx context.Context, before time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	kept := r.store.renewals[:0]
	var n int64
	for _, t := range r.store.renewals {
		if t.Revoked && t.CreatedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, t)
	}
	r.store.renewals = kept
	return n, nil
}

// --- bot repository ---

type fakeBotRepo struct {
	store *fakeStore
}

func matchBot(b *entity.Bot, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if b.Id != s.ID {
				return false
			}
		case specification.OwnedByOwner:
			if b.OwnerId != s.OwnerID {
				return false
			}
		case specification.ActiveBots:
			if !b.IsActive {
				return false
			}
		}
	}
	return true
}

func (r *fakeBotRepo) Create(ctx context.Context, bot *entity.Bot) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *bot
	r.store.bots[bot.Id] = &cp
	return nil
}

func (r *fakeBotRepo) Update(ctx context.Context, bot *entity.Bot) error {
	return r.Create(ctx, bot)
}

func (r *fakeBotRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Bot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var found []*entity.Bot
	for _, b := range r.store.bots {
		if matchBot(b, specs) {
			found = append(found, b)
		}
	}
	if len(found) == 0 {
		return nil, nil
	}
	desc := false
	for _, spec := range specs {
		if s, ok := spec.(specification.OrderBy); ok {
			desc = s.Desc
		}
	}
	sort.Slice(found, func(i, j int) bool {
		if desc {
			return found[i].CreatedAt.After(found[j].CreatedAt)
		}
		return found[i].CreatedAt.Before(found[j].CreatedAt)
	})
	cp := *found[0]
	return &cp, nil
}

func (r *fakeBotRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Bot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.Bot
	for _, b := range r.store.bots {
		if matchBot(b, specs) {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeBotRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	bots, _ := r.FindAll(ctx, specs...)
	return int64(len(bots)), nil
}

func (r *fakeBotRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.bots, id)
	return nil
}

func (r *fakeBotRepo) UpdateActive(ctx context.Context, id uuid.UUID, active bool) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if b, ok := r.store.bots[id]; ok {
		b.IsActive = active
		b.UpdatedAt = time.Now()
	}
	return nil
}

func (r *fakeBotRepo) CreateWorkspace(ctx context.Context, ws *entity.Workspace) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *ws
	r.store.workspaces[ws.Id] = &cp
	return nil
}

func (r *fakeBotRepo) FindWorkspace(ctx context.Context, specs ...specification.Specification) (*entity.Workspace, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, ws := range r.store.workspaces {
		match := true
		for _, spec := range specs {
			if s, ok := spec.(specification.ByID); ok && ws.Id != s.ID {
				match = false
			}
		}
		if match {
			cp := *ws
			return &cp, nil
		}
	}
	return nil, nil
}

// --- widget token repository ---

type fakeWidgetTokenRepo struct {
	store *fakeStore
}

func matchWidgetToken(t *entity.WidgetToken, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if t.Id != s.ID {
				return false
			}
		case specification.ByTokenHash:
			if t.TokenHash != s.Hash {
				return false
			}
		case specification.ForBot:
			if t.BotId != s.BotID {
				return false
			}
		case specification.OwnedByOwner:
			if t.OwnerId != s.OwnerID {
				return false
			}
		case specification.ActiveWidgetTokens:
			if !t.IsActive {
				return false
			}
		case specification.ExpiresBefore:
			if !t.ExpiresAt.Before(s.At) {
				return false
			}
		}
	}
	return true
}

func (r *fakeWidgetTokenRepo) Create(ctx context.Context, t *entity.WidgetToken) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *t
	r.store.widgetTokens = append(r.store.widgetTokens, &cp)
	return nil
}

func (r *fakeWidgetTokenRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.WidgetToken, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, t := range r.store.widgetTokens {
		if matchWidgetToken(t, specs) {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeWidgetTokenRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.WidgetToken, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.WidgetToken
	for _, t := range r.store.widgetTokens {
		if matchWidgetToken(t, specs) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeWidgetTokenRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

func (r *fakeWidgetTokenRepo) Deactivate(ctx context.Context, tokenHash string) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, t := range r.store.widgetTokens {
		if t.TokenHash == tokenHash && t.IsActive {
			t.IsActive = false
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeWidgetTokenRepo) DeactivateById(ctx context.Context, botId, tokenId uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var n int64
	for _, t := range r.store.widgetTokens {
		if t.Id == tokenId && t.BotId == botId && t.IsActive {
			t.IsActive = false
			n++
		}
	}
	return n, nil
}

func (r *fakeWidgetTokenRepo) DeactivateAllForBot(ctx context.Context, botId uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var n int64
	for _, t := range r.store.widgetTokens {
		if t.BotId == botId && t.IsActive {
			t.IsActive = false
			n++
		}
	}
	return n, nil
}

func (r *fakeWidgetTokenRepo) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, t := range r.store.widgetTokens {
		if t.Id == id {
			at := at
			t.LastUsedAt = &at
		}
	}
	return nil
}

func (r *fakeWidgetTokenRepo) DeleteTokens(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	kept := r.store.widgetTokens[:0]
	var n int64
	for _, t := range r.store.widgetTokens {
		if matchWidgetToken(t, specs) {
			n++
			continue
		}
		kept = append(kept, t)
	}
	r.store.widgetTokens = kept
	return n, nil
}

// --- chat session repository ---

type fakeChatSessionRepo struct {
	store *fakeStore
}

func matchSession(s *entity.ChatSession, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.ByID:
			if s.Id != sp.ID {
				return false
			}
		case specification.BySessionToken:
			if s.SessionToken != sp.Token {
				return false
			}
		case specification.ForBot:
			if s.BotId != sp.BotID {
				return false
			}
		case specification.ActiveSessions:
			if !s.IsActive {
				return false
			}
		}
	}
	return true
}

func (r *fakeChatSessionRepo) Create(ctx context.Context, session *entity.ChatSession) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *session
	r.store.sessions = append(r.store.sessions, &cp)
	return nil
}

func (r *fakeChatSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, s := range r.store.sessions {
		if matchSession(s, specs) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeChatSessionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.ChatSession
	for _, s := range r.store.sessions {
		if matchSession(s, specs) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeChatSessionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

func (r *fakeChatSessionRepo) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, s := range r.store.sessions {
		if s.Id == id {
			s.LastActivityAt = at
			s.MessagesCount++
		}
	}
	return nil
}

func (r *fakeChatSessionRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, s := range r.store.sessions {
		if s.Id == id {
			s.IsActive = false
		}
	}
	return nil
}

func (r *fakeChatSessionRepo) DeactivateAllForBot(ctx context.Context, botId uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var n int64
	for _, s := range r.store.sessions {
		if s.BotId == botId && s.IsActive {
			s.IsActive = false
			n++
		}
	}
	return n, nil
}

func (r *fakeChatSessionRepo) DeactivateIdleBefore(ctx context.Context, botId uuid.UUID, cutoff time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var n int64
	for _, s := range r.store.sessions {
		if s.BotId == botId && s.IsActive && s.LastActivityAt.Before(cutoff) {
			s.IsActive = false
			n++
		}
	}
	return n, nil
}

// --- message and system log repositories ---

type fakeMessageRepo struct {
	store *fakeStore
}

func (r *fakeMessageRepo) Create(ctx context.Context, msg *entity.Message) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *msg
	r.store.messages = append(r.store.messages, &cp)
	return nil
}

func (r *fakeMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.Message
	for _, m := range r.store.messages {
		match := true
		for _, spec := range specs {
			if s, ok := spec.(specification.ForChatSession); ok {
				if m.ChatSessionId == nil || *m.ChatSessionId != s.SessionID {
					match = false
				}
			}
		}
		if match {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

type fakeSystemLogRepo struct {
	store *fakeStore
}

func (r *fakeSystemLogRepo) Create(ctx context.Context, log *model.SystemLog) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *log
	r.store.systemLogs = append(r.store.systemLogs, &cp)
	return nil
}

// --- collaborators ---

type fakeAudit struct {
	mu     sync.Mutex
	events []events.Event
}

func (a *fakeAudit) Record(ctx context.Context, event events.Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, event)
}

func (a *fakeAudit) Consume(ctx context.Context) error { return nil }

func (a *fakeAudit) typesSeen() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.events))
	for _, e := range a.events {
		out = append(out, e.EventType())
	}
	return out
}

func newTestSession(botId uuid.UUID) *entity.ChatSession {
	now := time.Now()
	return &entity.ChatSession{
		Id:             uuid.New(),
		BotId:          botId,
		SessionToken:   "sess_" + uuid.NewString(),
		StartedAt:      now,
		LastActivityAt: now,
		IsActive:       true,
	}
}

type fakeMailer struct {
	mu     sync.Mutex
	alerts []string
}

func (m *fakeMailer) SendSecurityAlert(toEmail, username, event, ipAddress string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, event)
	return nil
}

func (m *fakeMailer) SendWelcome(toEmail, username string) error { return nil }
