package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/iudanet/gratilog/pkg/api"
)

// Время жизни кэшей редко меняющихся ответов сервера
const (
	saltCacheTTL    = 10 * time.Minute
	profileCacheTTL = 5 * time.Minute
)

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	baseURL    string

	mu          sync.RWMutex
	accessToken string

	// Кэш public_salt и профиля: CLI вызывает их на каждую команду,
	// а меняются они практически никогда
	saltCache    *cache.Cache
	profileCache *cache.Cache
}

// NewClient создает новый API клиент
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:      baseURL,
		saltCache:    cache.New(saltCacheTTL, saltCacheTTL),
		profileCache: cache.New(profileCacheTTL, profileCacheTTL),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			// Настройка обработки редиректов
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовки Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// SetAccessToken устанавливает bearer token для последующих запросов
func (c *Client) SetAccessToken(token string) {
	c.mu.Lock()
	c.accessToken = token
	c.mu.Unlock()
}

// Register регистрирует нового пользователя
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error) {
	var resp api.RegisterResponse
	err := c.doRequest(ctx, "POST", "/api/v1/auth/register", req, &resp)
	if err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return &resp, nil
}

// GetSalt получает public_salt пользователя
func (c *Client) GetSalt(ctx context.Context, username string) (*api.SaltResponse, error) {
	if cached, ok := c.saltCache.Get(username); ok {
		resp := cached.(api.SaltResponse)
		return &resp, nil
	}

	var resp api.SaltResponse
	path := "/api/v1/auth/salt/" + url.PathEscape(username)
	err := c.doRequest(ctx, "GET", path, nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("get salt request failed: %w", err)
	}

	c.saltCache.Set(username, resp, cache.DefaultExpiration)
	return &resp, nil
}

// Login выполняет аутентификацию пользователя
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	err := c.doRequest(ctx, "POST", "/api/v1/auth/login", req, &resp)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return &resp, nil
}

// Refresh обновляет пару токенов по refresh token
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	req := api.RefreshRequest{RefreshToken: refreshToken}
	err := c.doRequest(ctx, "POST", "/api/v1/auth/refresh", req, &resp)
	if err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	return &resp, nil
}

// Logout завершает сессию на сервере.
// С пустым refreshToken отзываются все сессии пользователя.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	var body interface{}
	if refreshToken != "" {
		body = api.LogoutRequest{RefreshToken: refreshToken}
	}
	err := c.doRequest(ctx, "POST", "/api/v1/auth/logout", body, nil)
	if err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	c.profileCache.Flush()
	return nil
}

// Me возвращает профиль текущего пользователя
func (c *Client) Me(ctx context.Context) (*api.ProfileResponse, error) {
	const cacheKey = "me"
	if cached, ok := c.profileCache.Get(cacheKey); ok {
		resp := cached.(api.ProfileResponse)
		return &resp, nil
	}

	var resp api.ProfileResponse
	err := c.doRequest(ctx, "GET", "/api/v1/users/me", nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("profile request failed: %w", err)
	}

	c.profileCache.Set(cacheKey, resp, cache.DefaultExpiration)
	return &resp, nil
}

// CreateSpace создает пространство (личный журнал или общую группу)
func (c *Client) CreateSpace(ctx context.Context, req api.CreateSpaceRequest) (*api.Space, error) {
	var resp api.Space
	err := c.doRequest(ctx, "POST", "/api/v1/spaces", req, &resp)
	if err != nil {
		return nil, fmt.Errorf("create space request failed: %w", err)
	}
	return &resp, nil
}

// ListSpaces возвращает пространства текущего пользователя
func (c *Client) ListSpaces(ctx context.Context) (*api.SpacesResponse, error) {
	var resp api.SpacesResponse
	err := c.doRequest(ctx, "GET", "/api/v1/spaces", nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("list spaces request failed: %w", err)
	}
	return &resp, nil
}

// JoinSpace вступает в общую группу
func (c *Client) JoinSpace(ctx context.Context, spaceID string) error {
	path := "/api/v1/spaces/" + url.PathEscape(spaceID) + "/join"
	err := c.doRequest(ctx, "POST", path, nil, nil)
	if err != nil {
		return fmt.Errorf("join space request failed: %w", err)
	}
	return nil
}

// CreateEntry создает запись ленты. Сервер назначает id и created_at
// и возвращает client_ref из запроса echo-ом.
func (c *Client) CreateEntry(ctx context.Context, req api.CreateEntryRequest) (*api.Entry, error) {
	var resp api.Entry
	err := c.doRequest(ctx, "POST", "/api/v1/entries", req, &resp)
	if err != nil {
		return nil, fmt.Errorf("create entry request failed: %w", err)
	}
	return &resp, nil
}

// ListEntries возвращает записи коллекции в хронологическом порядке
func (c *Client) ListEntries(ctx context.Context, parentID string) (*api.EntriesResponse, error) {
	var resp api.EntriesResponse
	path := "/api/v1/entries?parent=" + url.QueryEscape(parentID)
	err := c.doRequest(ctx, "GET", path, nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("list entries request failed: %w", err)
	}
	return &resp, nil
}

// DeleteEntry удаляет запись ленты
func (c *Client) DeleteEntry(ctx context.Context, entryID string) error {
	path := "/api/v1/entries/" + url.PathEscape(entryID)
	err := c.doRequest(ctx, "DELETE", path, nil, nil)
	if err != nil {
		return fmt.Errorf("delete entry request failed: %w", err)
	}
	return nil
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path string, body, result interface{}) error {
	url := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.RLock()
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}
	c.mu.RUnlock()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	// Проверяем статус код
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil {
			msg := errResp.Message
			if msg == "" {
				msg = errResp.Error
			}
			if msg != "" {
				return fmt.Errorf("server error (%d): %s", resp.StatusCode, msg)
			}
		}
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	// Декодируем успешный ответ
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
