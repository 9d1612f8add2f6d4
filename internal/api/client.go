package api

import (
	"context"
	"fmt"
	"net/http"

	koruerrors "github.com/korulabs/koru/internal/errors"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// TokenProvider supplies the bearer token for authenticated calls and
// refreshes it when the server rejects one. Injecting it keeps session
// state out of the client and makes concurrent sessions possible.
type TokenProvider interface {
	Token() string
	Refresh(ctx context.Context) (string, error)
}

// StaticToken is a TokenProvider for tokens that cannot be refreshed, such
// as service tokens.
type StaticToken string

func (s StaticToken) Token() string { return string(s) }

func (s StaticToken) Refresh(ctx context.Context) (string, error) {
	return "", koruerrors.ErrSessionExpired
}

// Client talks to the Koru server. All payloads are encrypted before they
// reach this layer; the client moves ciphertext and never holds keys.
type Client struct {
	http   *resty.Client
	tokens TokenProvider
	log    zerolog.Logger
}

// NewClient creates a client for the given server base URL. tokens may be
// nil for pre-login calls.
func NewClient(baseURL string, tokens TokenProvider, log zerolog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetHeader("User-Agent", "koru-cli")

	return &Client{http: httpClient, tokens: tokens, log: log}
}

// do performs one authenticated request. On a 401 it asks the token
// provider for a fresh token and retries exactly once.
func (c *Client) do(ctx context.Context, op, method, path string, body, result interface{}) error {
	resp, err := c.doAuthed(ctx, op, method, path, body, result)
	if err != nil {
		return err
	}
	return c.checkStatus(op, resp)
}

// doAuthed runs the authenticated request with the refresh-then-retry-once
// behavior and hands the response back unmapped, for endpoints that give a
// status like 404 a meaning of its own.
func (c *Client) doAuthed(ctx context.Context, op, method, path string, body, result interface{}) (*resty.Response, error) {
	if c.tokens == nil {
		return nil, koruerrors.ErrNotLoggedIn
	}

	resp, err := c.send(ctx, method, path, c.tokens.Token(), body, result)
	if err != nil {
		return nil, &koruerrors.NetworkError{Op: op, Err: err}
	}

	if resp.StatusCode() == http.StatusUnauthorized {
		c.log.Debug().Str("op", op).Msg("token rejected, refreshing session")
		token, err := c.tokens.Refresh(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to refresh session: %w", err)
		}
		resp, err = c.send(ctx, method, path, token, body, result)
		if err != nil {
			return nil, &koruerrors.NetworkError{Op: op, Err: err}
		}
	}

	return resp, nil
}

// doUnauthenticated performs one request with no bearer token, for the
// login exchange.
func (c *Client) doUnauthenticated(ctx context.Context, op, method, path string, body, result interface{}) error {
	resp, err := c.send(ctx, method, path, "", body, result)
	if err != nil {
		return &koruerrors.NetworkError{Op: op, Err: err}
	}
	return c.checkStatus(op, resp)
}

func (c *Client) send(ctx context.Context, method, path, token string, body, result interface{}) (*resty.Response, error) {
	req := c.http.R().SetContext(ctx)
	if token != "" {
		req.SetAuthToken(token)
	}
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	c.log.Debug().Str("method", method).Str("path", path).Msg("request")
	return req.Execute(method, path)
}

func (c *Client) checkStatus(op string, resp *resty.Response) error {
	switch {
	case resp.IsSuccess():
		return nil
	case resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden:
		return koruerrors.ErrAuthFailed
	default:
		return &koruerrors.NetworkError{
			Op:  op,
			Err: fmt.Errorf("server returned %s", resp.Status()),
		}
	}
}

// GetKeyGrant fetches the caller's wrapped project key. Returns a nil grant
// without error when the project has no grant for the caller yet; the
// keyring layer decides whether that means bootstrap or denied access.
func (c *Client) GetKeyGrant(ctx context.Context, workspaceID string) (*KeyGrant, error) {
	var result getKeyGrantResponse
	path := fmt.Sprintf("/projects/%s/key/latest", workspaceID)

	resp, err := c.doAuthed(ctx, "get key grant", resty.MethodGet, path, nil, &result)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if err := c.checkStatus("get key grant", resp); err != nil {
		return nil, err
	}
	return result.Grant, nil
}

// CreateKeyGrant submits a new wrapped project key for a recipient.
func (c *Client) CreateKeyGrant(ctx context.Context, workspaceID string, grant KeyGrant) error {
	path := fmt.Sprintf("/projects/%s/key", workspaceID)
	return c.do(ctx, "create key grant", resty.MethodPost, path, grant, nil)
}

// GetSecrets fetches all encrypted records for one environment.
func (c *Client) GetSecrets(ctx context.Context, workspaceID, environment string) ([]SecretRecord, error) {
	var result getSecretsResponse
	path := fmt.Sprintf("/secrets/%s?environment=%s", workspaceID, environment)
	if err := c.do(ctx, "get secrets", resty.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result.Secrets, nil
}

// CreateSecrets submits a batch of new records and returns them with their
// server-assigned ids.
func (c *Client) CreateSecrets(ctx context.Context, workspaceID, environment string, secrets []SecretRecord) ([]SecretRecord, error) {
	var result createSecretsResponse
	body := createSecretsRequest{WorkspaceID: workspaceID, Environment: environment, Secrets: secrets}
	if err := c.do(ctx, "create secrets", resty.MethodPost, "/secrets", body, &result); err != nil {
		return nil, err
	}
	return result.Secrets, nil
}

// UpdateSecrets submits a batch of modified records, matched by id.
func (c *Client) UpdateSecrets(ctx context.Context, workspaceID string, secrets []SecretRecord) error {
	body := updateSecretsRequest{WorkspaceID: workspaceID, Secrets: secrets}
	return c.do(ctx, "update secrets", resty.MethodPatch, "/secrets", body, nil)
}

// DeleteSecrets removes records by id.
func (c *Client) DeleteSecrets(ctx context.Context, workspaceID string, secretIDs []string) error {
	body := deleteSecretsRequest{WorkspaceID: workspaceID, SecretIDs: secretIDs}
	return c.do(ctx, "delete secrets", resty.MethodDelete, "/secrets", body, nil)
}

// GetSnapshotCount returns the number of history entries for the project.
func (c *Client) GetSnapshotCount(ctx context.Context, workspaceID string) (int, error) {
	var result snapshotCountResponse
	path := fmt.Sprintf("/projects/%s/snapshots/count", workspaceID)
	if err := c.do(ctx, "get snapshot count", resty.MethodGet, path, nil, &result); err != nil {
		return 0, err
	}
	return result.Count, nil
}

// GetSnapshot fetches one immutable history entry.
func (c *Client) GetSnapshot(ctx context.Context, workspaceID string, version int) (*Snapshot, error) {
	var result Snapshot
	path := fmt.Sprintf("/projects/%s/snapshots/%d", workspaceID, version)

	resp, err := c.doAuthed(ctx, "get snapshot", resty.MethodGet, path, nil, &result)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, koruerrors.ErrSnapshotNotFound
	}
	if err := c.checkStatus("get snapshot", resp); err != nil {
		return nil, err
	}
	return &result, nil
}

// NotifyRollback records that the project was rolled back to a version, for
// history provenance. The actual restore runs through the normal write path.
func (c *Client) NotifyRollback(ctx context.Context, workspaceID string, version int) error {
	path := fmt.Sprintf("/projects/%s/rollback", workspaceID)
	return c.do(ctx, "notify rollback", resty.MethodPost, path, rollbackRequest{Version: version}, nil)
}

// GetMembers lists the workspace members with their public keys.
func (c *Client) GetMembers(ctx context.Context, workspaceID string) ([]ProjectMember, error) {
	var result membersResponse
	path := fmt.Sprintf("/projects/%s/members", workspaceID)
	if err := c.do(ctx, "get members", resty.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result.Members, nil
}

// LoginOne starts the SRP exchange: sends the client public ephemeral and
// receives the salt and server public ephemeral.
func (c *Client) LoginOne(ctx context.Context, email, clientPublicKey string) (*LoginOneResponse, error) {
	var result LoginOneResponse
	body := loginOneRequest{Email: email, ClientPublicKey: clientPublicKey}
	if err := c.doUnauthenticated(ctx, "login", resty.MethodPost, "/auth/login1", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// LoginTwo completes the SRP exchange: sends the client proof and receives
// the session token and encrypted private-key envelope.
func (c *Client) LoginTwo(ctx context.Context, email, clientProof string) (*LoginTwoResponse, error) {
	var result LoginTwoResponse
	body := loginTwoRequest{Email: email, ClientProof: clientProof}
	if err := c.doUnauthenticated(ctx, "login", resty.MethodPost, "/auth/login2", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RefreshSession exchanges a refresh token for a fresh token pair.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (token, newRefreshToken string, err error) {
	var result refreshResponse
	body := refreshRequest{RefreshToken: refreshToken}
	if err := c.doUnauthenticated(ctx, "refresh session", resty.MethodPost, "/auth/refresh", body, &result); err != nil {
		return "", "", err
	}
	return result.Token, result.RefreshToken, nil
}

// ChangePassword submits the new verifier and re-wrapped private-key
// envelope in one request. The server applies both or neither.
func (c *Client) ChangePassword(ctx context.Context, clientProof, salt, verifier, encryptedPrivateKey, iv, tag string) error {
	body := changePasswordRequest{
		ClientProof:         clientProof,
		Salt:                salt,
		Verifier:            verifier,
		EncryptedPrivateKey: encryptedPrivateKey,
		IV:                  iv,
		Tag:                 tag,
	}
	return c.do(ctx, "change password", resty.MethodPost, "/auth/password", body, nil)
}
