package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/odyssey-hr/odyssey-hr/internal/auth"
	"github.com/odyssey-hr/odyssey-hr/internal/employees"
	"github.com/odyssey-hr/odyssey-hr/internal/platform/httpx"
	"github.com/odyssey-hr/odyssey-hr/internal/uiaccess"
)

// ErrNotLoggedIn is returned when a command needs a cached session.
var ErrNotLoggedIn = errors.New("not logged in: run 'hrctl login' first")

// APIError is a problem response returned by the server.
type APIError struct {
	Status int
	Title  string
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (%d): %s", e.Title, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s (%d)", e.Title, e.Status)
}

// Client talks to the HR API on behalf of the cached session.
type Client struct {
	baseURL string
	http    *http.Client
	session *uiaccess.SessionContext
}

// NewClient builds a Client. httpClient may be nil.
func NewClient(baseURL string, httpClient *http.Client, session *uiaccess.SessionContext) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient, session: session}
}

// Login exchanges credentials for a session and caches it.
func (c *Client) Login(ctx context.Context, email, password string) (auth.Result, error) {
	var out auth.Result
	if err := c.do(ctx, http.MethodPost, "/auth/login", auth.LoginInput{Email: email, Password: password}, &out, false); err != nil {
		return auth.Result{}, err
	}
	return out, c.session.Refresh(out.AccessToken)
}

// Register creates an account and caches the returned session.
func (c *Client) Register(ctx context.Context, input auth.RegisterInput) (auth.Result, error) {
	var out auth.Result
	if err := c.do(ctx, http.MethodPost, "/auth/register", input, &out, false); err != nil {
		return auth.Result{}, err
	}
	return out, c.session.Refresh(out.AccessToken)
}

// Logout notifies the server and always drops the local session.
func (c *Client) Logout(ctx context.Context) (auth.Ack, error) {
	var out auth.Ack
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, &out, true)
	if clearErr := c.session.Clear(); clearErr != nil {
		return out, errors.Join(err, clearErr)
	}
	return out, err
}

// Me fetches the caller's claim, permissions and navigation from the server.
func (c *Client) Me(ctx context.Context) (auth.Me, error) {
	var out auth.Me
	return out, c.do(ctx, http.MethodGet, "/auth/me", nil, &out, true)
}

// EmployeeQuery narrows an employee listing.
type EmployeeQuery struct {
	Page       int
	PerPage    int
	Department string
	Search     string
}

// Employees lists employee profiles.
func (c *Client) Employees(ctx context.Context, q EmployeeQuery) (employees.Page, error) {
	params := url.Values{}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		params.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if q.Department != "" {
		params.Set("department", q.Department)
	}
	if q.Search != "" {
		params.Set("q", q.Search)
	}
	path := "/employees"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	var out employees.Page
	return out, c.do(ctx, http.MethodGet, path, nil, &out, true)
}

// do performs one request. Authenticated calls clear the session on any 401.
func (c *Client) do(ctx context.Context, method, path string, in, out any, authed bool) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		token := c.session.Token()
		if token == "" {
			return ErrNotLoggedIn
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := decodeProblem(resp)
		if authed && resp.StatusCode == http.StatusUnauthorized {
			if clearErr := c.session.Clear(); clearErr != nil {
				return errors.Join(apiErr, clearErr)
			}
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeProblem(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode, Title: http.StatusText(resp.StatusCode)}
	var problem httpx.ProblemDetail
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&problem); err == nil {
		if problem.Title != "" {
			apiErr.Title = problem.Title
		}
		apiErr.Detail = problem.Detail
	}
	return apiErr
}
