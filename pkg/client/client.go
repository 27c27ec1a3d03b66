// Package client is a Go client for the learning task API. It covers the
// non-UI responsibilities of the browser client: typed calls for every
// endpoint, bearer token attachment, and a persisted local session.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TeacherRef is a student's resolved teacher.
type TeacherRef struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
}

// UserProfile is a user's public profile.
type UserProfile struct {
	ID        uint64      `json:"id"`
	Email     string      `json:"email"`
	Role      string      `json:"role"`
	TeacherID *uint64     `json:"teacherId"`
	Teacher   *TeacherRef `json:"teacher"`
}

// UserRef is the minimal user shape returned by the picker endpoints.
type UserRef struct {
	ID    uint64 `json:"_id"`
	Email string `json:"email"`
}

// Task mirrors a task on the wire.
type Task struct {
	ID          uint64     `json:"id"`
	UserID      uint64     `json:"userId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate"`
	Progress    string     `json:"progress"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// SignupRequest is the payload for Signup.
type SignupRequest struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	Role      string  `json:"role"`
	TeacherID *uint64 `json:"teacherId,omitempty"`
}

// CreateTaskRequest is the payload for CreateTask.
type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Progress    string     `json:"progress,omitempty"`
	StudentID   *uint64    `json:"studentId,omitempty"`
}

// UpdateTaskRequest carries a partial update; nil fields are left out of
// the request body.
type UpdateTaskRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Progress    *string    `json:"progress,omitempty"`
}

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

// Client calls the API and keeps the local session current.
type Client struct {
	baseURL string
	http    *http.Client
	store   *SessionStore
	session *Session
}

// New creates a Client. If store is non-nil, any previously saved session
// is loaded so the client starts authenticated.
func New(baseURL string, store *SessionStore) (*Client, error) {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		store:   store,
	}

	if store != nil {
		session, err := store.Load()
		if err != nil {
			return nil, err
		}
		c.session = session
	}

	return c, nil
}

// Session returns the current session, or nil when logged out.
func (c *Client) Session() *Session {
	return c.session
}

// Signup registers a new account. It does not log in.
func (c *Client) Signup(ctx context.Context, req SignupRequest) error {
	return c.do(ctx, http.MethodPost, "/auth/signup", req, nil)
}

// Login authenticates, stores the session and returns it.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	payload := map[string]string{
		"email":    email,
		"password": password,
	}

	var res struct {
		Token string      `json:"token"`
		User  UserProfile `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/login", payload, &res); err != nil {
		return nil, err
	}

	session := &Session{User: res.User, Token: res.Token}
	c.session = session

	if c.store != nil {
		if err := c.store.Save(session); err != nil {
			return nil, err
		}
	}

	return session, nil
}

// Logout drops the session locally. Tokens are stateless so there is
// nothing to revoke server-side.
func (c *Client) Logout() error {
	c.session = nil
	if c.store != nil {
		return c.store.Clear()
	}
	return nil
}

// Me fetches the authenticated user's profile.
func (c *Client) Me(ctx context.Context) (*UserProfile, error) {
	var res struct {
		User UserProfile `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &res); err != nil {
		return nil, err
	}
	return &res.User, nil
}

// Teachers lists all teachers, for the signup picker.
func (c *Client) Teachers(ctx context.Context) ([]UserRef, error) {
	var res struct {
		Data []UserRef `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/teachers-list", nil, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

// Students lists the calling teacher's students.
func (c *Client) Students(ctx context.Context) ([]UserRef, error) {
	var res struct {
		Data []UserRef `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/students-of-teacher", nil, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

// Tasks lists the tasks visible to the current user.
func (c *Client) Tasks(ctx context.Context) ([]Task, error) {
	var res struct {
		Data []Task `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &res); err != nil {
		return nil, err
	}
	return res.Data, nil
}

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) (*Task, error) {
	var res struct {
		Data Task `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/tasks", req, &res); err != nil {
		return nil, err
	}
	return &res.Data, nil
}

// UpdateTask applies a partial update to a task.
func (c *Client) UpdateTask(ctx context.Context, taskID uint64, req UpdateTaskRequest) (*Task, error) {
	var res struct {
		Data Task `json:"data"`
	}
	path := fmt.Sprintf("/tasks/%d", taskID)
	if err := c.do(ctx, http.MethodPut, path, req, &res); err != nil {
		return nil, err
	}
	return &res.Data, nil
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, taskID uint64) error {
	path := fmt.Sprintf("/tasks/%d", taskID)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// do sends a request, attaching the bearer token when a session exists,
// and decodes the response into out. Non-2xx responses surface the
// envelope's message as an APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != nil && c.session.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.session.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: "Something went wrong"}
		var envelope struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(data, &envelope); err == nil && envelope.Message != "" {
			apiErr.Message = envelope.Message
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
