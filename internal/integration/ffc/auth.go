package ffc

import (
	"sync"
	"time"

	ierr "github.com/finops/ffc-billing/internal/errors"
	"github.com/golang-jwt/jwt/v4"
)

const tokenTTL = 5 * time.Minute

// tokenSource issues short lived HS256 tokens for the operations API
type tokenSource struct {
	mu     sync.Mutex
	sub    string
	secret []byte
	now    func() time.Time
	token  string
}

func newTokenSource(sub, secret string) *tokenSource {
	return &tokenSource{sub: sub, secret: []byte(secret), now: time.Now}
}

// Token returns the current token, issuing one on first use
func (s *tokenSource) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" {
		return s.token, nil
	}
	return s.issue()
}

// Refresh replaces the current token, the API answered 401 with it
func (s *tokenSource) Refresh() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issue()
}

func (s *tokenSource) issue() (string, error) {
	now := s.now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   s.sub,
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		NotBefore: jwt.NewNumericDate(now),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Failed to sign operations API token").
			Mark(ierr.ErrSystem)
	}
	s.token = token
	return token, nil
}
