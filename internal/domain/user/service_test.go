package user

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sagaline/ecommerce-backend/internal/config"
	"github.com/sagaline/ecommerce-backend/internal/domain/events"
	"github.com/sagaline/ecommerce-backend/internal/pkg/apperrors"
	"github.com/sagaline/ecommerce-backend/internal/pkg/auth"
	"github.com/sagaline/ecommerce-backend/internal/pkg/metrics"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memoryRepo struct {
	mu     sync.Mutex
	users  map[uint]*User
	tokens []*RefreshToken
	nextID uint
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: map[uint]*User{}}
}

func (r *memoryRepo) Create(ctx context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return apperrors.Conflict("email already registered")
		}
	}
	r.nextID++
	u.ID = r.nextID
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memoryRepo) FindByID(ctx context.Context, id uint) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.NotFound("user not found")
	}
	cp := *u
	return &cp, nil
}

func (r *memoryRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == NormalizeEmail(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("user not found")
}

func (r *memoryRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	return err == nil, nil
}

func (r *memoryRepo) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[id].LastLoginAt = &at
	return nil
}

func (r *memoryRepo) SetActive(ctx context.Context, id uint, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return apperrors.NotFound("user not found")
	}
	u.IsActive = active
	return nil
}

func (r *memoryRepo) SaveRefreshToken(ctx context.Context, token *RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *token
	r.tokens = append(r.tokens, &cp)
	return nil
}

func (r *memoryRepo) FindRefreshToken(ctx context.Context, token string) (*RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.Token == token {
			cp := *t
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("refresh token not found")
}

func (r *memoryRepo) RevokeRefreshTokens(ctx context.Context, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

func (r *memoryRepo) liveTokens(userID uint) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.tokens {
		if t.UserID == userID && !t.Revoked {
			n++
		}
	}
	return n
}

type inlineTx struct{}

func (inlineTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type recordingEmitter struct {
	topics []string
	events []events.Event
}

func (e *recordingEmitter) Emit(topic string, event events.Event) {
	e.topics = append(e.topics, topic)
	e.events = append(e.events, event)
}

type fixture struct {
	svc     *Service
	repo    *memoryRepo
	emitter *recordingEmitter
	sink    *metrics.Memory
	jwt     *auth.JWTManager
}

func newFixture() *fixture {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	f := &fixture{
		repo:    newMemoryRepo(),
		emitter: &recordingEmitter{},
		sink:    metrics.NewMemory(),
		jwt: auth.NewJWTManager(config.JWTConfig{
			Secret:             "0123456789abcdef0123456789abcdef",
			AccessTokenExpiry:  15 * time.Minute,
			RefreshTokenExpiry: 24 * time.Hour,
		}, "sagaline-test"),
	}
	f.svc = NewService(f.repo, inlineTx{}, auth.NewPasswordManager(bcrypt.MinCost), f.jwt, f.emitter, f.sink, logger)
	return f
}

func registration() *RegisterRequest {
	return &RegisterRequest{
		Email:     "  Kim.Minsu@Example.com ",
		Password:  "secret123",
		FirstName: "Minsu",
		LastName:  "Kim",
	}
}

func TestRegister(t *testing.T) {
	f := newFixture()

	resp, err := f.svc.Register(context.Background(), registration())
	require.NoError(t, err)

	assert.Equal(t, "kim.minsu@example.com", resp.User.Email)
	assert.Equal(t, RoleUser, resp.User.Role)
	assert.True(t, resp.User.IsActive)
	assert.NotEqual(t, "secret123", f.repo.users[resp.User.ID].Password)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(900), resp.ExpiresIn)

	claims, err := f.jwt.ValidateAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, RoleUser, claims.Role)

	assert.Equal(t, 1.0, f.sink.Value(metrics.UserRegistrations, nil))
	require.Len(t, f.emitter.events, 1)
	assert.Equal(t, events.TopicUserEvents, f.emitter.topics[0])
	registered, ok := f.emitter.events[0].(*events.UserRegistered)
	require.True(t, ok)
	assert.Equal(t, "Minsu Kim", registered.FullName)
	assert.Equal(t, events.SourceUserService, registered.Source)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Register(context.Background(), registration())
	require.NoError(t, err)

	req := registration()
	req.Email = "KIM.MINSU@example.com"
	_, err = f.svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.EqualError(t, err, "email already registered")
	assert.Len(t, f.emitter.events, 1)
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	f := newFixture()
	req := registration()
	req.Password = "password"

	_, err := f.svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Empty(t, f.repo.users)
}

func TestLogin(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	registered, err := f.svc.Register(ctx, registration())
	require.NoError(t, err)

	resp, err := f.svc.Login(ctx, &LoginRequest{Email: "kim.minsu@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, resp.User.ID)
	require.NotNil(t, resp.User.LastLoginAt)
	assert.NotNil(t, f.repo.users[resp.User.ID].LastLoginAt)
	assert.Equal(t, 1, f.repo.liveTokens(resp.User.ID), "one device at a time")
}

func TestLoginFailures(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	registered, err := f.svc.Register(ctx, registration())
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, &LoginRequest{Email: "kim.minsu@example.com", Password: "wrong1234"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.EqualError(t, err, "invalid email or password")

	_, err = f.svc.Login(ctx, &LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	assert.EqualError(t, err, "invalid email or password")

	_, err = f.svc.SetActive(ctx, registered.User.ID, false)
	require.NoError(t, err)
	_, err = f.svc.Login(ctx, &LoginRequest{Email: "kim.minsu@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	assert.EqualError(t, err, "account is deactivated")
}

func TestRefreshTokenRotates(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	registered, err := f.svc.Register(ctx, registration())
	require.NoError(t, err)

	rotated, err := f.svc.RefreshToken(ctx, registered.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, registered.RefreshToken, rotated.RefreshToken)
	assert.Equal(t, 1, f.repo.liveTokens(registered.User.ID))

	_, err = f.svc.RefreshToken(ctx, registered.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized, "old token was revoked")

	_, err = f.svc.RefreshToken(ctx, rotated.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized, "access tokens cannot refresh")

	_, err = f.svc.RefreshToken(ctx, "garbage")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestSetActiveRevokesTokens(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	registered, err := f.svc.Register(ctx, registration())
	require.NoError(t, err)

	u, err := f.svc.SetActive(ctx, registered.User.ID, false)
	require.NoError(t, err)
	assert.False(t, u.IsActive)
	assert.Zero(t, f.repo.liveTokens(registered.User.ID))

	_, err = f.svc.RefreshToken(ctx, registered.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = f.svc.SetActive(ctx, 999, true)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestGetProfile(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	registered, err := f.svc.Register(ctx, registration())
	require.NoError(t, err)

	u, err := f.svc.GetProfile(ctx, registered.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Minsu Kim", u.GetDisplayName())

	_, err = f.svc.GetProfile(ctx, 404)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
