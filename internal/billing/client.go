package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"studyon/internal/logger"
	"studyon/internal/metrics"
)

// Client talks to the external billing service: course catalog and pricing,
// purchases, transaction history, registration and token handling.
//
// Every operation performs exactly one HTTP call. Failures come back as one
// of two kinds: *UnavailableError when the exchange did not complete, and
// *RejectedError when the service answered with a non-2xx status. Callers
// match with errors.As and never retry here.
type Client struct {
	baseURL    string
	apiVersion string
	httpClient *http.Client
}

func New(baseURL, apiVersion string) *Client {
	return NewWithHTTPClient(baseURL, apiVersion, &http.Client{})
}

func NewWithHTTPClient(baseURL, apiVersion string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiVersion: strings.Trim(apiVersion, "/"),
		httpClient: httpClient,
	}
}

// ListCourses returns the catalog in the order the billing service sent it.
func (c *Client) ListCourses(ctx context.Context) ([]CourseInfo, error) {
	var courses []CourseInfo
	if err := c.do(ctx, "list_courses", http.MethodGet, "/courses", "", nil, &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func (c *Client) GetCourse(ctx context.Context, code string) (*CourseInfo, error) {
	var course CourseInfo
	path := "/courses/" + url.PathEscape(code)
	if err := c.do(ctx, "get_course", http.MethodGet, path, "", nil, &course); err != nil {
		return nil, err
	}
	return &course, nil
}

func (c *Client) CreateCourse(ctx context.Context, token string, course CourseInfo) (*Ack, error) {
	var ack Ack
	if err := c.do(ctx, "create_course", http.MethodPost, "/courses/new", token, course, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// UpdateCourse edits the course currently known as code. The new code, type
// and price travel in the body.
func (c *Client) UpdateCourse(ctx context.Context, token, code string, course CourseInfo) (*Ack, error) {
	var ack Ack
	path := "/courses/" + url.PathEscape(code) + "/edit"
	if err := c.do(ctx, "update_course", http.MethodPost, path, token, course, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// PayCourse charges the current user for the course. The billing service
// rejects with 404 for unknown codes and 406 when the balance is short.
func (c *Client) PayCourse(ctx context.Context, token, code string) (*PurchaseResult, error) {
	var result PurchaseResult
	path := "/courses/" + url.PathEscape(code) + "/pay"
	if err := c.do(ctx, "pay_course", http.MethodPost, path, token, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Transactions(ctx context.Context, token string, filter TransactionFilter) ([]Transaction, error) {
	query := url.Values{}
	if filter.Type != "" {
		query.Set("type", filter.Type)
	}
	if filter.CourseCode != "" {
		query.Set("course_code", filter.CourseCode)
	}
	if filter.SkipExpired {
		query.Set("skip_expired", "1")
	}

	path := "/transactions/filter"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var transactions []Transaction
	if err := c.do(ctx, "transactions", http.MethodGet, path, token, nil, &transactions); err != nil {
		return nil, err
	}
	return transactions, nil
}

func (c *Client) CurrentUser(ctx context.Context, token string) (*UserAccount, error) {
	var account UserAccount
	if err := c.do(ctx, "current_user", http.MethodGet, "/users/current", token, nil, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (c *Client) Register(ctx context.Context, username, password string) (*UserAccount, error) {
	req := UserAccount{Username: username, Password: password}
	var account UserAccount
	if err := c.do(ctx, "register", http.MethodPost, "/register", "", req, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (c *Client) Authenticate(ctx context.Context, username, password string) (*UserAccount, error) {
	req := UserAccount{Username: username, Password: password}
	var account UserAccount
	if err := c.do(ctx, "authenticate", http.MethodPost, "/auth", "", req, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	req := TokenPair{RefreshToken: refreshToken}
	var pair TokenPair
	if err := c.do(ctx, "refresh_token", http.MethodPost, "/token/refresh", "", req, &pair); err != nil {
		return nil, err
	}
	return &pair, nil
}

// do runs the uniform request protocol: JSON body, version-prefixed path,
// bearer header when a token is supplied, {200, 201} as the only success
// statuses.
func (c *Client) do(ctx context.Context, operation, method, path, token string, reqBody, out interface{}) error {
	start := time.Now()
	err := c.roundTrip(ctx, method, path, token, reqBody, out)

	outcome := "success"
	var rejected *RejectedError
	var unavailable *UnavailableError
	switch {
	case errors.As(err, &rejected):
		outcome = "rejected"
	case errors.As(err, &unavailable):
		outcome = "unavailable"
		logger.Error("billing service unreachable",
			"operation", operation,
			"cause", unavailable.Cause(),
		)
	}
	metrics.RecordBillingRequest(operation, outcome, time.Since(start).Seconds())

	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path, token string, reqBody, out interface{}) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	endpoint := fmt.Sprintf("%s/%s%s", c.baseURL, c.apiVersion, path)
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &UnavailableError{cause: err}
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return &UnavailableError{cause: err}
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return decodeFailure(resp.StatusCode, content)
	}

	if out != nil {
		if err := json.Unmarshal(content, out); err != nil {
			// The service broke its own contract; treat it as a failed
			// exchange rather than surfacing garbage to the caller.
			return &UnavailableError{cause: fmt.Errorf("failed to decode response: %w", err)}
		}
	}

	return nil
}

func decodeFailure(httpStatus int, content []byte) *RejectedError {
	var failure apiFailure
	if err := json.Unmarshal(content, &failure); err != nil || failure.Code == 0 {
		failure.Code = httpStatus
	}
	if failure.Message == "" {
		failure.Message = http.StatusText(httpStatus)
	}
	return &RejectedError{
		Status:      failure.Code,
		Message:     failure.Message,
		FieldErrors: failure.Errors,
	}
}
