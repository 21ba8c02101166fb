package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stoik/simplecrm/internal/models"
	"github.com/stoik/simplecrm/services/crm-service/internal/users"
)

type fakeUsers struct {
	mu        sync.Mutex
	byEmail   map[string]*models.User
	getErr    error
	createErr error
	creates   int
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byEmail: map[string]*models.User{}}
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, users.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if existing, ok := f.byEmail[u.Email]; ok {
		return existing, nil
	}
	created := *u
	created.ID = uuid.New()
	created.CreatedAt = time.Now()
	f.byEmail[u.Email] = &created
	f.creates++
	return &created, nil
}

type fakeProvider struct {
	profile     models.ProviderUser
	exchangeErr error
	gotCode     string
	gotVerifier string
}

func (p *fakeProvider) Name() string { return "google" }

func (p *fakeProvider) AuthCodeURL(state, verifier string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (p *fakeProvider) Exchange(ctx context.Context, code, verifier string) (models.ProviderUser, error) {
	p.gotCode, p.gotVerifier = code, verifier
	if p.exchangeErr != nil {
		return models.ProviderUser{}, p.exchangeErr
	}
	return p.profile, nil
}
