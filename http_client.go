package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const defaultClientTimeout = 15 * time.Second

// APIIdentityService implements IdentityService against the portal's REST
// API. The server establishes its session via a cookie on login; the jar
// carries it into subsequent identity probes.
type APIIdentityService struct {
	baseURL    string
	httpClient *http.Client
	logger     Logger

	// route overrides, relative to baseURL
	LoginPath  string
	LogoutPath string
	MePath     string
}

// NewAPIIdentityService returns a service bound to the portal API base URL.
func NewAPIIdentityService(baseURL string) *APIIdentityService {
	jar, _ := cookiejar.New(nil)

	return &APIIdentityService{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultClientTimeout,
			Jar:     jar,
		},
		logger:     defLogger{},
		LoginPath:  "/auth/login",
		LogoutPath: "/auth/logout",
		MePath:     "/auth/me",
	}
}

func (s *APIIdentityService) WithLogger(logger Logger) *APIIdentityService {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithHTTPClient overrides the underlying client. The replacement should
// carry a cookie jar or the session cookie will be lost between calls.
func (s *APIIdentityService) WithHTTPClient(client *http.Client) *APIIdentityService {
	if client != nil {
		s.httpClient = client
	}
	return s
}

type credentialPayload struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// apiError is the error envelope the portal API wraps failures in.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ExchangeCredentials trades the credential pair for an identity. Failures
// come back classified: invalid credentials, locked account, denied origin,
// transport failure, or unknown.
func (s *APIIdentityService) ExchangeCredentials(ctx context.Context, identifier, password string) (*IdentityRecord, error) {
	body, err := json.Marshal(credentialPayload{Identifier: identifier, Password: password})
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode credentials payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+s.LoginPath, bytes.NewReader(body))
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build login request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, ErrNetworkFailure.Message).
			WithTextCode(TextCodeNetworkFailure)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, s.classifyLoginFailure(resp)
	}

	identity := &IdentityRecord{}
	if err := json.NewDecoder(resp.Body).Decode(identity); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to decode identity payload").
			WithTextCode(TextCodeUnknownFailure)
	}

	return identity, nil
}

// FetchCurrentIdentity resolves the identity bound to the session cookie.
// A 401 is the anonymous signal, returned as ErrAnonymous.
func (s *APIIdentityService) FetchCurrentIdentity(ctx context.Context) (*IdentityRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+s.MePath, nil)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build identity probe request")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, ErrNetworkFailure.Message).
			WithTextCode(TextCodeNetworkFailure)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fallthrough to decode
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrAnonymous
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, goerrors.New(
			fmt.Sprintf("identity probe failed (status %d): %s", resp.StatusCode, string(snippet)),
			goerrors.CategoryOperation,
		)
	}

	identity := &IdentityRecord{}
	if err := json.NewDecoder(resp.Body).Decode(identity); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to decode identity payload")
	}

	return identity, nil
}

// InvalidateSession tears down the server side session. Errors are
// returned for logging only; the store never blocks local logout on them.
func (s *APIIdentityService) InvalidateSession(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+s.LogoutPath, nil)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build logout request")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "logout request failed")
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusInternalServerError {
		return goerrors.New(
			fmt.Sprintf("logout rejected (status %d)", resp.StatusCode),
			goerrors.CategoryOperation,
		)
	}

	return nil
}

// classifyLoginFailure maps the API's status/code pair onto the structured
// taxonomy. Unrecognized combinations degrade to the unknown kind with the
// raw payload attached as metadata.
func (s *APIIdentityService) classifyLoginFailure(resp *http.Response) error {
	payload := apiError{}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if err := json.Unmarshal(raw, &payload); err != nil {
		s.logger.Debug("login failure body is not an error envelope", "status", resp.StatusCode)
	}

	code := strings.ToUpper(payload.Code)
	switch {
	case resp.StatusCode == http.StatusUnauthorized,
		code == TextCodeInvalidCreds:
		return ErrInvalidCredentials
	case resp.StatusCode == http.StatusLocked,
		code == TextCodeAccountLocked:
		return ErrAccountLocked
	case resp.StatusCode == http.StatusForbidden && code == TextCodeIPDenied:
		return ErrIPDenied
	default:
		return goerrors.New("authentication failed", goerrors.CategoryInternal).
			WithTextCode(TextCodeUnknownFailure).
			WithMetadata(map[string]any{
				"status": resp.StatusCode,
				"body":   string(raw),
			})
	}
}

var _ IdentityService = (*APIIdentityService)(nil)
