package auth

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gratilog/internal/client/storage"
	"github.com/iudanet/gratilog/internal/crypto"
	"github.com/iudanet/gratilog/pkg/api"
)

const (
	testUsername = "testuser"
	testPassword = "SecurePassword123!"
)

// mockAPIClient is a mock implementation of APIClient for testing
type mockAPIClient struct {
	registerResp *api.RegisterResponse
	registerErr  error
	saltResp     *api.SaltResponse
	saltErr      error
	loginResp    *api.TokenResponse
	loginErr     error
	refreshResp  *api.TokenResponse
	refreshErr   error
	logoutErr    error
	meResp       *api.ProfileResponse
	meErr        error

	loginRequests   []api.LoginRequest
	refreshedTokens []string
	loggedOutTokens []string
	accessToken     string
}

func (m *mockAPIClient) Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error) {
	if m.registerErr != nil {
		return nil, m.registerErr
	}
	return m.registerResp, nil
}

func (m *mockAPIClient) GetSalt(ctx context.Context, username string) (*api.SaltResponse, error) {
	if m.saltErr != nil {
		return nil, m.saltErr
	}
	return m.saltResp, nil
}

func (m *mockAPIClient) Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error) {
	m.loginRequests = append(m.loginRequests, req)
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	return m.loginResp, nil
}

func (m *mockAPIClient) Refresh(ctx context.Context, refreshToken string) (*api.TokenResponse, error) {
	m.refreshedTokens = append(m.refreshedTokens, refreshToken)
	if m.refreshErr != nil {
		return nil, m.refreshErr
	}
	return m.refreshResp, nil
}

func (m *mockAPIClient) Logout(ctx context.Context, refreshToken string) error {
	m.loggedOutTokens = append(m.loggedOutTokens, refreshToken)
	return m.logoutErr
}

func (m *mockAPIClient) Me(ctx context.Context) (*api.ProfileResponse, error) {
	if m.meErr != nil {
		return nil, m.meErr
	}
	return m.meResp, nil
}

func (m *mockAPIClient) SetAccessToken(token string) {
	m.accessToken = token
}

// mockSessionStorage is an in-memory SessionStorage for testing
type mockSessionStorage struct {
	session   *storage.SessionData
	saveErr   error
	deleteErr error
}

func (m *mockSessionStorage) SaveSession(ctx context.Context, session *storage.SessionData) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	copied := *session
	m.session = &copied
	return nil
}

func (m *mockSessionStorage) GetSession(ctx context.Context) (*storage.SessionData, error) {
	if m.session == nil {
		return nil, storage.ErrSessionNotFound
	}
	copied := *m.session
	return &copied, nil
}

func (m *mockSessionStorage) DeleteSession(ctx context.Context) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if m.session == nil {
		return storage.ErrSessionNotFound
	}
	m.session = nil
	return nil
}

func (m *mockSessionStorage) IsAuthenticated(ctx context.Context) (bool, error) {
	return m.session != nil, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestService_Register_Success(t *testing.T) {
	apiClient := &mockAPIClient{
		registerResp: &api.RegisterResponse{UserID: "user-123"},
	}
	svc := NewService(testLogger(), apiClient, &mockSessionStorage{})

	result, err := svc.Register(context.Background(), testUsername, "Test User", testPassword)

	require.NoError(t, err)
	assert.Equal(t, "user-123", result.UserID)
	assert.Equal(t, testUsername, result.Username)
	assert.NotEmpty(t, result.PublicSalt)
}

func TestService_Register_InvalidInput(t *testing.T) {
	svc := NewService(testLogger(), &mockAPIClient{}, &mockSessionStorage{})
	ctx := context.Background()

	_, err := svc.Register(ctx, "ab", "", testPassword)
	assert.Error(t, err, "короткий username отклоняется до сети")

	_, err = svc.Register(ctx, testUsername, "", "short")
	assert.Error(t, err, "слабый пароль отклоняется до сети")
}

func TestService_Register_ServerError(t *testing.T) {
	apiClient := &mockAPIClient{
		registerErr: errors.New("username already taken"),
	}
	svc := NewService(testLogger(), apiClient, &mockSessionStorage{})

	_, err := svc.Register(context.Background(), testUsername, "", testPassword)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registration failed")
}

func TestService_Login_Success(t *testing.T) {
	salt, err := crypto.GenerateSaltBase64()
	require.NoError(t, err)

	apiClient := &mockAPIClient{
		saltResp: &api.SaltResponse{PublicSalt: salt},
		loginResp: &api.TokenResponse{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			ExpiresIn:    900,
		},
		meResp: &api.ProfileResponse{
			UserID:      "user-123",
			Username:    testUsername,
			DisplayName: "Test User",
		},
	}
	sessions := &mockSessionStorage{}
	svc := NewService(testLogger(), apiClient, sessions)

	session, err := svc.Login(context.Background(), testUsername, testPassword)

	require.NoError(t, err)
	assert.Equal(t, "user-123", session.UserID)
	assert.Equal(t, "Test User", session.DisplayName)
	assert.Equal(t, "access-1", session.AccessToken)
	assert.Equal(t, "refresh-1", session.RefreshToken)
	assert.Equal(t, salt, session.PublicSalt)
	assert.True(t, session.ExpiresAt.After(time.Now()))

	// Сессия сохранена, токен установлен на клиенте
	require.NotNil(t, sessions.session)
	assert.Equal(t, "access-1", apiClient.accessToken)

	// На сервер ушел хеш ключа, не пароль
	require.Len(t, apiClient.loginRequests, 1)
	assert.NotContains(t, apiClient.loginRequests[0].AuthKeyHash, testPassword)
	assert.Len(t, apiClient.loginRequests[0].AuthKeyHash, 64, "SHA256 hex")
}

func TestService_Login_DeterministicAuthKey(t *testing.T) {
	salt, err := crypto.GenerateSaltBase64()
	require.NoError(t, err)

	apiClient := &mockAPIClient{
		saltResp:  &api.SaltResponse{PublicSalt: salt},
		loginResp: &api.TokenResponse{AccessToken: "a", RefreshToken: "r", ExpiresIn: 900},
		meResp:    &api.ProfileResponse{UserID: "user-123"},
	}
	svc := NewService(testLogger(), apiClient, &mockSessionStorage{})
	ctx := context.Background()

	_, err = svc.Login(ctx, testUsername, testPassword)
	require.NoError(t, err)
	_, err = svc.Login(ctx, testUsername, testPassword)
	require.NoError(t, err)

	// Одинаковые пароль и соль дают одинаковый auth_key_hash
	require.Len(t, apiClient.loginRequests, 2)
	assert.Equal(t, apiClient.loginRequests[0].AuthKeyHash, apiClient.loginRequests[1].AuthKeyHash)
}

func TestService_Login_WrongPassword(t *testing.T) {
	salt, err := crypto.GenerateSaltBase64()
	require.NoError(t, err)

	apiClient := &mockAPIClient{
		saltResp: &api.SaltResponse{PublicSalt: salt},
		loginErr: errors.New("invalid credentials"),
	}
	svc := NewService(testLogger(), apiClient, &mockSessionStorage{})

	_, err = svc.Login(context.Background(), testUsername, testPassword)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "login failed")
}

func TestService_Restore_ValidSession(t *testing.T) {
	apiClient := &mockAPIClient{}
	sessions := &mockSessionStorage{
		session: &storage.SessionData{
			Username:     testUsername,
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			ExpiresAt:    time.Now().Add(10 * time.Minute),
		},
	}
	svc := NewService(testLogger(), apiClient, sessions)

	session, err := svc.Restore(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "access-1", session.AccessToken)
	assert.Equal(t, "access-1", apiClient.accessToken)
	assert.Empty(t, apiClient.refreshedTokens, "живой токен не обновляется")
}

func TestService_Restore_ExpiredSessionRefreshes(t *testing.T) {
	apiClient := &mockAPIClient{
		refreshResp: &api.TokenResponse{
			AccessToken:  "access-2",
			RefreshToken: "refresh-2",
			ExpiresIn:    900,
		},
	}
	sessions := &mockSessionStorage{
		session: &storage.SessionData{
			Username:     testUsername,
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			ExpiresAt:    time.Now().Add(-time.Minute),
		},
	}
	svc := NewService(testLogger(), apiClient, sessions)

	session, err := svc.Restore(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "access-2", session.AccessToken)
	assert.Equal(t, "refresh-2", session.RefreshToken)
	assert.Equal(t, []string{"refresh-1"}, apiClient.refreshedTokens)

	// Новая пара сохранена
	assert.Equal(t, "refresh-2", sessions.session.RefreshToken)
}

func TestService_Restore_NoSession(t *testing.T) {
	svc := NewService(testLogger(), &mockAPIClient{}, &mockSessionStorage{})

	_, err := svc.Restore(context.Background())
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
}

func TestService_Logout_Success(t *testing.T) {
	apiClient := &mockAPIClient{}
	sessions := &mockSessionStorage{
		session: &storage.SessionData{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
		},
	}
	svc := NewService(testLogger(), apiClient, sessions)

	err := svc.Logout(context.Background())

	require.NoError(t, err)
	assert.Nil(t, sessions.session)
	assert.Equal(t, []string{"refresh-1"}, apiClient.loggedOutTokens)
}

func TestService_Logout_ServerUnavailable(t *testing.T) {
	apiClient := &mockAPIClient{
		logoutErr: errors.New("connection refused"),
	}
	sessions := &mockSessionStorage{
		session: &storage.SessionData{AccessToken: "a", RefreshToken: "r"},
	}
	svc := NewService(testLogger(), apiClient, sessions)

	// Локальная сессия удаляется даже если сервер недоступен
	err := svc.Logout(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sessions.session)
}

func TestService_Logout_NoSession(t *testing.T) {
	svc := NewService(testLogger(), &mockAPIClient{}, &mockSessionStorage{})

	err := svc.Logout(context.Background())
	assert.NoError(t, err)
}
