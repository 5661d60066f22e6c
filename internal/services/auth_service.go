package services

import (
	"context"
	"errors"
	"fmt"

	"finboard/internal/auth"
	"finboard/internal/core"
	"finboard/internal/log"
	"finboard/internal/query"
	"finboard/internal/storage"
)

// AuthService owns the session and the cached current user.
type AuthService struct {
	base
	sessions storage.SessionStore
}

func NewAuthService(api FinanceAPI, q *query.Client, sessions storage.SessionStore, opts ...Option) *AuthService {
	return &AuthService{
		base:     newBase(api, q, log.ComponentAuth, opts),
		sessions: sessions,
	}
}

// Token implements api.TokenSource.
func (s *AuthService) Token(ctx context.Context) (string, error) {
	return storage.TokenOf(ctx, s.sessions)
}

func (s *AuthService) Login(ctx context.Context, creds core.LoginCredentials) (core.User, error) {
	if err := creds.Validate(); err != nil {
		return core.User{}, err
	}
	tok, err := s.api.Login(ctx, creds)
	if err != nil {
		s.logger.WarnContext(ctx, "Login failed", log.FieldOperation, log.OpLogin, log.FieldError, err)
		return core.User{}, err
	}
	username := tok.Username
	if username == "" {
		username = creds.UsernameOrEmail
	}
	return s.startSession(ctx, tok.Token, username)
}

func (s *AuthService) Signup(ctx context.Context, creds core.SignupCredentials) (core.User, error) {
	if err := creds.Validate(); err != nil {
		return core.User{}, err
	}
	tok, err := s.api.Register(ctx, creds)
	if err != nil {
		s.logger.WarnContext(ctx, "Signup failed", log.FieldOperation, log.OpCreate, log.FieldError, err)
		return core.User{}, err
	}
	username := tok.Username
	if username == "" {
		username = creds.Username
	}
	return s.startSession(ctx, tok.Token, username)
}

// startSession persists the token and seeds the user snapshot. Snapshots
// from a previous session are dropped first.
func (s *AuthService) startSession(ctx context.Context, token, username string) (core.User, error) {
	if token == "" {
		return core.User{}, errors.New("server returned an empty token")
	}
	if err := s.sessions.Save(ctx, storage.Session{Token: token, Username: username, SavedAt: s.now().UTC()}); err != nil {
		return core.User{}, fmt.Errorf("persist session: %w", err)
	}

	user, err := auth.ResolveUser(token, username, s.now())
	if err != nil {
		return core.User{}, err
	}
	s.q.Clear()
	if err := query.SetData(s.q, UserKey, user); err != nil {
		return core.User{}, err
	}

	s.logger.InfoContext(ctx, "Session started",
		log.FieldOperation, log.OpLogin,
		log.FieldUserID, user.ID,
		"username", user.Username)
	return user, nil
}

// Logout clears the session and every cached snapshot.
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.sessions.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.q.Clear()
	s.logger.InfoContext(ctx, "Session ended", log.FieldOperation, log.OpLogout)
	return nil
}

// CurrentUser resolves the signed-in user. Without a stored token the user
// query is never attempted.
func (s *AuthService) CurrentUser(ctx context.Context) (core.User, error) {
	sess, err := s.sessions.Load(ctx)
	if errors.Is(err, storage.ErrNoSession) || (err == nil && sess.Token == "") {
		return core.User{}, ErrNotAuthenticated
	}
	if err != nil {
		return core.User{}, err
	}

	if claims, cerr := auth.ParseClaims(sess.Token); cerr == nil && claims.Expired(s.now()) {
		s.q.Invalidate(UserKey)
		return core.User{}, ErrNotAuthenticated
	}

	res, err := query.Fetch(ctx, s.q, query.Options{Key: UserKey, StaleTime: query.Forever, Retry: query.NoRetry},
		func(context.Context) (core.User, error) {
			return auth.ResolveUser(sess.Token, sess.Username, s.now())
		})
	if err != nil {
		if errors.Is(err, auth.ErrNoToken) || errors.Is(err, auth.ErrTokenExpired) {
			return core.User{}, ErrNotAuthenticated
		}
		return core.User{}, err
	}
	return res.Data, nil
}

func (s *AuthService) IsAuthenticated(ctx context.Context) bool {
	_, err := s.CurrentUser(ctx)
	return err == nil
}
