package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/agrisupport/internal/domain"
	"github.com/spec-kit/agrisupport/internal/notify"
)

// fakeIdentityRepo is an in-memory IdentityRepository.
type fakeIdentityRepo struct {
	mu         sync.Mutex
	byID       map[string]*domain.Identity
	createErr  error
	updateErr  error
	createHits int
}

func newFakeIdentityRepo() *fakeIdentityRepo {
	return &fakeIdentityRepo{byID: make(map[string]*domain.Identity)}
}

func (f *fakeIdentityRepo) Create(_ context.Context, identity *domain.Identity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createHits++
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.byID {
		if existing.Email == identity.Email {
			return pgx.ErrNoRows // stand-in for a unique violation; tests never hit it
		}
	}
	identity.ID = uuid.NewString()
	identity.CreatedAt = time.Now()
	identity.UpdatedAt = identity.CreatedAt
	cp := *identity
	f.byID[identity.ID] = &cp
	return nil
}

func (f *fakeIdentityRepo) Update(_ context.Context, identity *domain.Identity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.byID[identity.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *identity
	cp.UpdatedAt = time.Now()
	f.byID[identity.ID] = &cp
	return nil
}

func (f *fakeIdentityRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeIdentityRepo) GetByID(_ context.Context, id string) (*domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	identity, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *identity
	return &cp, nil
}

func (f *fakeIdentityRepo) GetByEmail(_ context.Context, email string) (*domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, identity := range f.byID {
		if identity.Email == email {
			cp := *identity
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeIdentityRepo) List(_ context.Context) ([]domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Identity, 0, len(f.byID))
	for _, identity := range f.byID {
		out = append(out, *identity)
	}
	return out, nil
}

// seed inserts an identity directly, bypassing the verification flow.
func (f *fakeIdentityRepo) seed(identity domain.Identity) *domain.Identity {
	f.mu.Lock()
	defer f.mu.Unlock()
	if identity.ID == "" {
		identity.ID = uuid.NewString()
	}
	f.byID[identity.ID] = &identity
	return &identity
}

// fakeVerificationRepo is an in-memory VerificationRepository whose Consume
// performs the same used=false compare-and-swap as the SQL implementation.
type fakeVerificationRepo struct {
	mu   sync.Mutex
	recs map[string]*domain.PendingVerification
}

func newFakeVerificationRepo() *fakeVerificationRepo {
	return &fakeVerificationRepo{recs: make(map[string]*domain.PendingVerification)}
}

func (f *fakeVerificationRepo) Replace(_ context.Context, rec *domain.PendingVerification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, existing := range f.recs {
		if existing.Kind == rec.Kind && existing.Email == rec.Email {
			delete(f.recs, id)
		}
	}
	cp := *rec
	f.recs[rec.ID] = &cp
	return nil
}

func (f *fakeVerificationRepo) GetByCode(_ context.Context, kind domain.VerificationKind, email, code string) (*domain.PendingVerification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *domain.PendingVerification
	for _, rec := range f.recs {
		if rec.Kind == kind && rec.Email == email && rec.Code == code {
			if latest == nil || rec.CreatedAt.After(latest.CreatedAt) {
				latest = rec
			}
		}
	}
	if latest == nil {
		return nil, pgx.ErrNoRows
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeVerificationRepo) GetLatest(_ context.Context, kind domain.VerificationKind, email string) (*domain.PendingVerification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *domain.PendingVerification
	for _, rec := range f.recs {
		if rec.Kind == kind && rec.Email == email {
			if latest == nil || rec.CreatedAt.After(latest.CreatedAt) {
				latest = rec
			}
		}
	}
	if latest == nil {
		return nil, pgx.ErrNoRows
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeVerificationRepo) Consume(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.recs[id]
	if !ok || rec.Used {
		return pgx.ErrNoRows
	}
	rec.Used = true
	return nil
}

func (f *fakeVerificationRepo) Unconsume(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec, ok := f.recs[id]; ok {
		rec.Used = false
	}
	return nil
}

func (f *fakeVerificationRepo) HasPending(_ context.Context, kind domain.VerificationKind, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for _, rec := range f.recs {
		if rec.Kind == kind && rec.Email == email && !rec.Used && rec.ExpiresAt.After(now) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeVerificationRepo) DeleteByKindEmail(_ context.Context, kind domain.VerificationKind, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, rec := range f.recs {
		if rec.Kind == kind && rec.Email == email {
			delete(f.recs, id)
		}
	}
	return nil
}

func (f *fakeVerificationRepo) DeleteExpired(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	var purged int64
	for id, rec := range f.recs {
		if rec.Used || rec.ExpiresAt.Before(now) {
			delete(f.recs, id)
			purged++
		}
	}
	return purged, nil
}

// latest returns the stored record for (kind, email), letting tests inspect
// state or force expiry.
func (f *fakeVerificationRepo) latest(kind domain.VerificationKind, email string) *domain.PendingVerification {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *domain.PendingVerification
	for _, rec := range f.recs {
		if rec.Kind == kind && rec.Email == email {
			if latest == nil || rec.CreatedAt.After(latest.CreatedAt) {
				latest = rec
			}
		}
	}
	return latest
}

func (f *fakeVerificationRepo) count(kind domain.VerificationKind, email string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, rec := range f.recs {
		if rec.Kind == kind && rec.Email == email {
			n++
		}
	}
	return n
}

// fakeNotifier records deliveries and can be told to fail.
type fakeNotifier struct {
	mu   sync.Mutex
	fail bool
	sent []sentCode
}

type sentCode struct {
	Email string
	Code  string
	Info  notify.CodeContext
}

func (f *fakeNotifier) SendCode(_ context.Context, email, code string, info notify.CodeContext) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return false
	}
	f.sent = append(f.sent, sentCode{Email: email, Code: code, Info: info})
	return true
}

func (f *fakeNotifier) lastCode() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1].Code
}

func (f *fakeNotifier) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// fakeLimiter allows or denies every attempt.
type fakeLimiter struct {
	deny bool
}

func (f *fakeLimiter) Allow(context.Context, string) bool {
	return !f.deny
}
