package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iudanet/gratilog/internal/client/storage"
	"github.com/iudanet/gratilog/internal/crypto"
	"github.com/iudanet/gratilog/internal/validation"
	"github.com/iudanet/gratilog/pkg/api"
)

// APIClient defines the server operations needed by the auth service
type APIClient interface {
	Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error)
	GetSalt(ctx context.Context, username string) (*api.SaltResponse, error)
	Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*api.TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context) (*api.ProfileResponse, error)
	SetAccessToken(token string)
}

// Service предоставляет функции авторизации и управления сессией.
// Пароль пользователя не покидает клиента: на сервер уходит только
// SHA256 хеш ключа, деривированного через Argon2id.
type Service struct {
	apiClient APIClient
	sessions  storage.SessionStorage
	logger    *slog.Logger
}

// NewService создает новый сервис авторизации
func NewService(logger *slog.Logger, apiClient APIClient, sessions storage.SessionStorage) *Service {
	return &Service{
		apiClient: apiClient,
		sessions:  sessions,
		logger:    logger,
	}
}

// RegisterResult содержит результат регистрации
type RegisterResult struct {
	UserID     string // UUID пользователя
	Username   string // username
	PublicSalt string // public salt (base64)
}

// Register регистрирует нового пользователя
func (s *Service) Register(ctx context.Context, username, displayName, password string) (*RegisterResult, error) {
	// Валидация входных данных
	if err := validation.ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("invalid username: %w", err)
	}
	if err := validation.ValidateDisplayName(displayName); err != nil {
		return nil, fmt.Errorf("invalid display name: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("invalid password: %w", err)
	}

	// 1. Генерируем публичную соль
	publicSaltBase64, err := crypto.GenerateSaltBase64()
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	// 2. Деривируем auth key из пароля
	authKey, err := crypto.DeriveAuthKeyFromBase64Salt(password, username, publicSaltBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to derive auth key: %w", err)
	}

	// 3. Хешируем auth_key для отправки на сервер
	authKeyHash, err := crypto.HashAuthKey(authKey)
	if err != nil {
		return nil, fmt.Errorf("failed to hash auth key: %w", err)
	}

	// 4. Отправляем запрос на регистрацию
	resp, err := s.apiClient.Register(ctx, api.RegisterRequest{
		Username:    username,
		DisplayName: displayName,
		AuthKeyHash: authKeyHash,
		PublicSalt:  publicSaltBase64,
	})
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}

	return &RegisterResult{
		UserID:     resp.UserID,
		Username:   username,
		PublicSalt: publicSaltBase64,
	}, nil
}

// Login выполняет аутентификацию пользователя и сохраняет сессию
func (s *Service) Login(ctx context.Context, username, password string) (*storage.SessionData, error) {
	if err := validation.ValidateUsername(username); err != nil {
		return nil, fmt.Errorf("invalid username: %w", err)
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("invalid password: %w", err)
	}

	// 1. Получаем public_salt с сервера
	saltResp, err := s.apiClient.GetSalt(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get salt: %w", err)
	}

	// 2. Деривируем auth key из пароля
	authKey, err := crypto.DeriveAuthKeyFromBase64Salt(password, username, saltResp.PublicSalt)
	if err != nil {
		return nil, fmt.Errorf("failed to derive auth key: %w", err)
	}

	// 3. Хешируем auth_key
	authKeyHash, err := crypto.HashAuthKey(authKey)
	if err != nil {
		return nil, fmt.Errorf("failed to hash auth key: %w", err)
	}

	// 4. Отправляем запрос на логин
	resp, err := s.apiClient.Login(ctx, api.LoginRequest{
		Username:    username,
		AuthKeyHash: authKeyHash,
	})
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	s.apiClient.SetAccessToken(resp.AccessToken)

	// 5. Запрашиваем профиль для user_id и display_name
	profile, err := s.apiClient.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	session := &storage.SessionData{
		Username:     username,
		UserID:       profile.UserID,
		DisplayName:  profile.DisplayName,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		PublicSalt:   saltResp.PublicSalt,
		ExpiresAt:    time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second),
	}

	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// Restore восстанавливает сохраненную сессию.
// Если access token истек, пара токенов обновляется через refresh token.
func (s *Service) Restore(ctx context.Context) (*storage.SessionData, error) {
	session, err := s.sessions.GetSession(ctx)
	if err != nil {
		return nil, err
	}

	if time.Now().Before(session.ExpiresAt) {
		s.apiClient.SetAccessToken(session.AccessToken)
		return session, nil
	}

	return s.Refresh(ctx)
}

// Refresh обновляет пару токенов и сохраняет новую сессию
func (s *Service) Refresh(ctx context.Context) (*storage.SessionData, error) {
	session, err := s.sessions.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	if session.RefreshToken == "" {
		return nil, errors.New("no refresh token in session")
	}

	resp, err := s.apiClient.Refresh(ctx, session.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh tokens: %w", err)
	}

	session.AccessToken = resp.AccessToken
	session.RefreshToken = resp.RefreshToken
	session.ExpiresAt = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)

	if err := s.sessions.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.apiClient.SetAccessToken(session.AccessToken)
	return session, nil
}

// Logout выполняет выход из системы.
// Локальная сессия удаляется даже если сервер недоступен.
func (s *Service) Logout(ctx context.Context) error {
	session, err := s.sessions.GetSession(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil
		}
		return fmt.Errorf("failed to get session: %w", err)
	}

	s.apiClient.SetAccessToken(session.AccessToken)
	if logoutErr := s.apiClient.Logout(ctx, session.RefreshToken); logoutErr != nil {
		// best effort: сервер мог быть недоступен
		s.logger.Warn("failed to logout on server", slog.Any("error", logoutErr))
	}

	if err := s.sessions.DeleteSession(ctx); err != nil {
		return fmt.Errorf("failed to delete local session: %w", err)
	}

	return nil
}

// IsAuthenticated проверяет наличие пригодной сессии
func (s *Service) IsAuthenticated(ctx context.Context) (bool, error) {
	return s.sessions.IsAuthenticated(ctx)
}
