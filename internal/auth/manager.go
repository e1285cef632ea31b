package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// TokenStorageKey 令牌在键值表中的键
const TokenStorageKey = "oauth_tokens_v2"

// 距离过期不足该时长时主动刷新
const refreshWindow = 5 * time.Minute

// DefaultScopes 只读访问 Drive 并允许创建/删除转换副本
var DefaultScopes = []string{
	"https://www.googleapis.com/auth/drive",
	"https://www.googleapis.com/auth/spreadsheets.readonly",
}

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrInvalidState     = errors.New("invalid or expired login state")
)

// TokenStore 令牌持久化
type TokenStore interface {
	GetValue(key string) (string, error)
	SetValue(key, value string) error
	DeleteValue(key string) error
}

// storedToken 持久化格式
type storedToken struct {
	AccessToken    string `json:"accessToken"`
	RefreshToken   string `json:"refreshToken,omitempty"`
	TokenExpiresAt int64  `json:"tokenExpiresAt"`
	ClientID       string `json:"clientId"`
	CreatedAt      int64  `json:"createdAt"`
	LastRefreshed  int64  `json:"lastRefreshed,omitempty"`
}

// Status 登录状态
type Status struct {
	Authenticated   bool      `json:"authenticated"`
	HasRefreshToken bool      `json:"hasRefreshToken"`
	ExpiresAt       time.Time `json:"expiresAt,omitempty"`
}

// Manager OAuth2 令牌管理，实现 oauth2.TokenSource
type Manager struct {
	cfg    *oauth2.Config
	store  TokenStore
	states *stateStore
	now    func() time.Time

	mu        sync.Mutex
	token     *oauth2.Token
	createdAt int64
	loaded    bool
}

// NewOAuthConfig 创建 Google OAuth2 配置
func NewOAuthConfig(clientID, clientSecret, redirectURL string, scopes []string) *oauth2.Config {
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       scopes,
		Endpoint:     google.Endpoint,
	}
}

// NewManager 创建令牌管理器
func NewManager(cfg *oauth2.Config, store TokenStore) *Manager {
	return &Manager{
		cfg:    cfg,
		store:  store,
		states: newStateStore(time.Now),
		now:    time.Now,
	}
}

// Token 返回可用的访问令牌，临近过期时自动刷新
func (m *Manager) Token() (*oauth2.Token, error) {
	return m.TokenContext(context.Background())
}

// TokenContext 同 Token，刷新请求使用 ctx
func (m *Manager) TokenContext(ctx context.Context) (*oauth2.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tok := m.currentLocked()
	if tok == nil || tok.AccessToken == "" {
		return nil, ErrNotAuthenticated
	}
	if tok.Expiry.IsZero() || tok.Expiry.After(m.now().Add(refreshWindow)) {
		return tok, nil
	}

	expired := !tok.Expiry.After(m.now())
	if tok.RefreshToken == "" {
		if expired {
			return nil, fmt.Errorf("%w: access token expired", ErrNotAuthenticated)
		}
		return tok, nil
	}

	fresh, err := m.refreshLocked(ctx)
	if err != nil {
		if !expired {
			log.Printf("[auth] proactive refresh failed, using current token: %v", err)
			return tok, nil
		}
		return nil, err
	}
	return fresh, nil
}

// ForceRefresh 无条件刷新令牌（远端返回 401 之后调用）
func (m *Manager) ForceRefresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tok := m.currentLocked()
	if tok == nil || tok.RefreshToken == "" {
		return fmt.Errorf("%w: no refresh token", ErrNotAuthenticated)
	}
	_, err := m.refreshLocked(ctx)
	return err
}

// AuthCodeURL 生成登录地址
func (m *Manager) AuthCodeURL() string {
	state := m.states.issue()
	return m.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange 校验 state 并用授权码换取令牌
func (m *Manager) Exchange(ctx context.Context, state, code string) error {
	if !m.states.consume(state) {
		return ErrInvalidState
	}
	tok, err := m.cfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.createdAt = m.now().UnixMilli()
	m.loaded = true
	return m.saveLocked(tok, false)
}

// Logout 清除令牌
func (m *Manager) Logout() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = nil
	m.loaded = true
	if err := m.store.DeleteValue(TokenStorageKey); err != nil {
		return fmt.Errorf("delete stored token: %w", err)
	}
	log.Printf("[auth] signed out")
	return nil
}

// Status 当前登录状态
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	tok := m.currentLocked()
	if tok == nil || tok.AccessToken == "" {
		return Status{}
	}
	return Status{
		Authenticated:   tok.RefreshToken != "" || tok.Expiry.IsZero() || tok.Expiry.After(m.now()),
		HasRefreshToken: tok.RefreshToken != "",
		ExpiresAt:       tok.Expiry,
	}
}

func (m *Manager) refreshLocked(ctx context.Context) (*oauth2.Token, error) {
	old := m.token
	fresh, err := m.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: old.RefreshToken}).Token()
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) && rerr.ErrorCode == "invalid_grant" {
			log.Printf("[auth] refresh token revoked, clearing stored token")
			m.token = nil
			_ = m.store.DeleteValue(TokenStorageKey)
		}
		return nil, fmt.Errorf("%w: refresh failed: %v", ErrNotAuthenticated, err)
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = old.RefreshToken
	}
	if err := m.saveLocked(fresh, true); err != nil {
		log.Printf("[auth] persist refreshed token failed: %v", err)
	}
	log.Printf("[auth] access token refreshed, expires %s", fresh.Expiry.Format(time.RFC3339))
	return fresh, nil
}

func (m *Manager) currentLocked() *oauth2.Token {
	if m.loaded {
		return m.token
	}
	m.loaded = true

	raw, err := m.store.GetValue(TokenStorageKey)
	if err != nil || raw == "" {
		return nil
	}
	st, err := decodeToken(raw)
	if err != nil {
		log.Printf("[auth] clearing corrupted stored token: %v", err)
		_ = m.store.DeleteValue(TokenStorageKey)
		return nil
	}
	m.createdAt = st.CreatedAt
	m.token = &oauth2.Token{
		AccessToken:  st.AccessToken,
		RefreshToken: st.RefreshToken,
		TokenType:    "Bearer",
	}
	if st.TokenExpiresAt > 0 {
		m.token.Expiry = time.UnixMilli(st.TokenExpiresAt)
	}
	return m.token
}

func (m *Manager) saveLocked(tok *oauth2.Token, refreshed bool) error {
	m.token = tok
	st := storedToken{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ClientID:     m.cfg.ClientID,
		CreatedAt:    m.createdAt,
	}
	if !tok.Expiry.IsZero() {
		st.TokenExpiresAt = tok.Expiry.UnixMilli()
	}
	if refreshed {
		st.LastRefreshed = m.now().UnixMilli()
	}
	payload, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return m.store.SetValue(TokenStorageKey, base64.StdEncoding.EncodeToString(payload))
}

func decodeToken(raw string) (*storedToken, error) {
	payload, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, err
	}
	var st storedToken
	if err := json.Unmarshal(payload, &st); err != nil {
		return nil, err
	}
	if st.AccessToken == "" {
		return nil, errors.New("stored token has no access token")
	}
	return &st, nil
}
