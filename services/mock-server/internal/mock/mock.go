package mock

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/stoik/simplecrm/internal/models"
)

var (
	firstNames = []string{"John", "Jane", "Bob", "Alice", "Charlie", "Diana", "Eve", "Frank"}
	lastNames  = []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis"}
	domains    = []string{"example.com", "company.com", "business.org", "enterprise.net"}

	ErrInvalidGrant  = errors.New("invalid_grant")
	ErrInvalidToken  = errors.New("invalid_token")
	ErrInvalidClient = errors.New("invalid_client")
	ErrUnknownUser   = errors.New("unknown login_hint")
)

const (
	codeTTL  = 5 * time.Minute
	tokenTTL = time.Hour
)

type grant struct {
	email       string
	clientID    string
	redirectURI string
	challenge   string
	expires     time.Time
}

type token struct {
	email   string
	expires time.Time
}

// Provider is an in-memory stand-in for Google's authorization, token and
// userinfo endpoints. Accounts are generated; codes and tokens are single
// process and never persisted.
type Provider struct {
	mu       sync.RWMutex
	accounts []models.ProviderUser
	byEmail  map[string]int
	codes    map[string]grant
	tokens   map[string]token
	counter  int
	now      func() time.Time
}

// NewProvider seeds n generated accounts.
func NewProvider(n int) *Provider {
	p := &Provider{
		byEmail: make(map[string]int),
		codes:   make(map[string]grant),
		tokens:  make(map[string]token),
		now:     time.Now,
	}
	p.addLocked(n)
	return p
}

func generateAccount(index int) models.ProviderUser {
	firstName := firstNames[index%len(firstNames)]
	lastName := lastNames[index%len(lastNames)]
	domain := domains[index%len(domains)]
	email := strings.ToLower(fmt.Sprintf("%s.%s.%d@%s", firstName, lastName, index, domain))

	return models.ProviderUser{
		ID:      fmt.Sprintf("1%020d", index),
		Email:   email,
		Name:    fmt.Sprintf("%s %s", firstName, lastName),
		Picture: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", email),
	}
}

func (p *Provider) addLocked(n int) {
	for i := 0; i < n; i++ {
		acct := generateAccount(p.counter)
		p.byEmail[acct.Email] = len(p.accounts)
		p.accounts = append(p.accounts, acct)
		p.counter++
	}
}

// Users returns a copy of the account list.
func (p *Provider) Users() []models.ProviderUser {
	p.mu.RLock()
	defer p.mu.RUnlock()

	users := make([]models.ProviderUser, len(p.accounts))
	copy(users, p.accounts)
	return users
}

// AddUsers grows the account list and returns the new total.
func (p *Provider) AddUsers(numUsers int) (int, error) {
	if numUsers < 1 {
		return 0, fmt.Errorf("numUsers must be at least 1")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.addLocked(numUsers)
	return len(p.accounts), nil
}

// AuthorizeRequest carries the query of an authorization request.
type AuthorizeRequest struct {
	ClientID            string
	RedirectURI         string
	State               string
	CodeChallenge       string
	CodeChallengeMethod string
	LoginHint           string
}

// Authorize consents on behalf of the hinted account (or the first one) and
// returns the redirect back to the client with a fresh code.
func (p *Provider) Authorize(req AuthorizeRequest) (string, error) {
	if req.ClientID == "" {
		return "", ErrInvalidClient
	}
	redirect, err := url.Parse(req.RedirectURI)
	if err != nil || redirect.Scheme == "" || redirect.Host == "" {
		return "", fmt.Errorf("invalid redirect_uri %q", req.RedirectURI)
	}
	if req.CodeChallenge != "" && req.CodeChallengeMethod != "S256" {
		return "", fmt.Errorf("unsupported code_challenge_method %q", req.CodeChallengeMethod)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.accounts) == 0 {
		return "", ErrUnknownUser
	}
	acct := p.accounts[0]
	if req.LoginHint != "" {
		idx, ok := p.byEmail[strings.ToLower(req.LoginHint)]
		if !ok {
			return "", ErrUnknownUser
		}
		acct = p.accounts[idx]
	}

	code, err := randomHex(16)
	if err != nil {
		return "", err
	}
	p.codes[code] = grant{
		email:       acct.Email,
		clientID:    req.ClientID,
		redirectURI: req.RedirectURI,
		challenge:   req.CodeChallenge,
		expires:     p.now().Add(codeTTL),
	}

	q := redirect.Query()
	q.Set("code", code)
	if req.State != "" {
		q.Set("state", req.State)
	}
	redirect.RawQuery = q.Encode()
	return redirect.String(), nil
}

// TokenRequest carries the form of a token request.
type TokenRequest struct {
	ClientID     string
	Code         string
	RedirectURI  string
	CodeVerifier string
}

// Token redeems a code once. It returns the access token and its lifetime.
func (p *Provider) Token(req TokenRequest) (string, time.Duration, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	g, ok := p.codes[req.Code]
	if !ok {
		return "", 0, ErrInvalidGrant
	}
	delete(p.codes, req.Code)

	if p.now().After(g.expires) {
		return "", 0, ErrInvalidGrant
	}
	if req.ClientID != g.clientID {
		return "", 0, ErrInvalidClient
	}
	if req.RedirectURI != "" && req.RedirectURI != g.redirectURI {
		return "", 0, ErrInvalidGrant
	}
	if g.challenge != "" && oauth2.S256ChallengeFromVerifier(req.CodeVerifier) != g.challenge {
		return "", 0, ErrInvalidGrant
	}

	access, err := randomHex(24)
	if err != nil {
		return "", 0, err
	}
	p.tokens[access] = token{email: g.email, expires: p.now().Add(tokenTTL)}
	return access, tokenTTL, nil
}

// UserInfo resolves a bearer token to its account.
func (p *Provider) UserInfo(accessToken string) (models.ProviderUser, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	t, ok := p.tokens[accessToken]
	if !ok || p.now().After(t.expires) {
		return models.ProviderUser{}, ErrInvalidToken
	}
	idx, ok := p.byEmail[t.email]
	if !ok {
		return models.ProviderUser{}, ErrInvalidToken
	}
	return p.accounts[idx], nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
