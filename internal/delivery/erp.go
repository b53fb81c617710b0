package delivery

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

	"github.com/sirupsen/logrus"

	"coupon-issuance-service/internal/phone"
)

// ERPSession holds the authenticated session handle for the ERP API. The
// token is cached for the process lifetime; Invalidate is the explicit
// refresh hook — currently the only expiry policy is a restart.
type ERPSession struct {
	mu    sync.RWMutex
	token string
}

func (s *ERPSession) get() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *ERPSession) set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Invalidate clears the cached session so the next call re-authenticates.
func (s *ERPSession) Invalidate() {
	s.set("")
}

// ERPClient talks to the ERP's REST API: contacts, notes, message
// templates and composers.
type ERPClient struct {
	baseURL     string
	username    string
	password    string
	campaignTag string
	httpClient  *http.Client
	logger      *logrus.Entry
	session     *ERPSession
}

// ERPContact represents a contact record in the ERP
type ERPContact struct {
	ID    int    `json:"id,omitempty"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// ERPNote represents an audit note attached to a contact
type ERPNote struct {
	ID   int    `json:"id,omitempty"`
	Text string `json:"text"`
}

// ERPTemplate represents a stored message template
type ERPTemplate struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// NewERPClient creates a client for the ERP-mediated delivery variant.
func NewERPClient(baseURL, username, password, campaignTag string, timeout time.Duration, logger *logrus.Logger) *ERPClient {
	return &ERPClient{
		baseURL:     baseURL,
		username:    username,
		password:    password,
		campaignTag: campaignTag,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger.WithField("component", "delivery.erp"),
		session: &ERPSession{},
	}
}

// Session exposes the cached session handle, primarily for the refresh
// hook and for tests.
func (c *ERPClient) Session() *ERPSession {
	return c.session
}

// CampaignTag returns the fixed campaign identifier embedded in contact
// display names.
func (c *ERPClient) CampaignTag() string {
	return c.campaignTag
}

// ensureSession returns a valid session token, authenticating on first
// use. Concurrent first-callers may authenticate redundantly; last write
// wins.
func (c *ERPClient) ensureSession(ctx context.Context) (string, error) {
	if token := c.session.get(); token != "" {
		return token, nil
	}

	body, err := json.Marshal(map[string]string{
		"username": c.username,
		"password": c.password,
	})
	if err != nil {
		return "", err
	}

	respBody, err := c.doRequest(ctx, http.MethodPost, "/auth/login", "", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("ERP authentication failed: %w", err)
	}

	var result struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to parse ERP login response: %w", err)
	}
	if result.SessionID == "" {
		return "", fmt.Errorf("ERP login returned empty session")
	}

	c.session.set(result.SessionID)
	c.logger.Info("Authenticated ERP session")
	return result.SessionID, nil
}

// doRequest performs an HTTP request against the ERP API
func (c *ERPClient) doRequest(ctx context.Context, method, endpoint, token string, body io.Reader) ([]byte, error) {
	url := fmt.Sprintf("%s/api%s", c.baseURL, endpoint)
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("X-Session-ID", token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		c.logger.WithFields(logrus.Fields{
			"status":   resp.StatusCode,
			"endpoint": endpoint,
			"response": string(respBody),
		}).Error("ERP API error")
		return nil, fmt.Errorf("ERP API error: status %d", resp.StatusCode)
	}

	return respBody, nil
}

// CreateContact creates a contact tagged with the campaign identifier in
// its composite display name and returns the new contact id.
func (c *ERPClient) CreateContact(ctx context.Context, customerName, phoneLocal, branch string) (int, error) {
	token, err := c.ensureSession(ctx)
	if err != nil {
		return 0, err
	}

	contact := ERPContact{
		Name:  fmt.Sprintf("%s | %s | %s", customerName, c.campaignTag, branch),
		Phone: phone.International(phoneLocal),
	}
	body, err := json.Marshal(contact)
	if err != nil {
		return 0, err
	}

	respBody, err := c.doRequest(ctx, http.MethodPost, "/contacts/new", token, bytes.NewBuffer(body))
	if err != nil {
		return 0, err
	}

	var result struct {
		Contact struct {
			ID int `json:"id"`
		} `json:"contact"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return 0, fmt.Errorf("failed to parse contact response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"contactId": result.Contact.ID,
		"branch":    branch,
	}).Info("Created ERP contact")

	return result.Contact.ID, nil
}

// AddNote posts an audit note attributing the contact to the issuing
// staff member. The note body is the attribution channel the staff
// breakdown parses later.
func (c *ERPClient) AddNote(ctx context.Context, contactID int, text string) error {
	token, err := c.ensureSession(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(ERPNote{Text: text})
	if err != nil {
		return err
	}

	_, err = c.doRequest(ctx, http.MethodPost, fmt.Sprintf("/contacts/%d/notes/new", contactID), token, bytes.NewBuffer(body))
	return err
}

// SendTemplate looks up the named message template, opens a composer for
// the contact and submits it.
func (c *ERPClient) SendTemplate(ctx context.Context, contactID int, templateName string, variables map[string]string) error {
	token, err := c.ensureSession(ctx)
	if err != nil {
		return err
	}

	query := url.Values{"name": {templateName}}
	respBody, err := c.doRequest(ctx, http.MethodGet, "/templates?"+query.Encode(), token, nil)
	if err != nil {
		return err
	}

	var templates struct {
		Templates []ERPTemplate `json:"templates"`
	}
	if err := json.Unmarshal(respBody, &templates); err != nil {
		return fmt.Errorf("failed to parse templates response: %w", err)
	}
	if len(templates.Templates) == 0 {
		return fmt.Errorf("message template %q not found", templateName)
	}
	templateID := templates.Templates[0].ID

	body, err := json.Marshal(map[string]interface{}{
		"contact_id": contactID,
		"variables":  variables,
	})
	if err != nil {
		return err
	}

	respBody, err = c.doRequest(ctx, http.MethodPost, fmt.Sprintf("/templates/%d/composers/new", templateID), token, bytes.NewBuffer(body))
	if err != nil {
		return err
	}

	var composer struct {
		Composer struct {
			ID int `json:"id"`
		} `json:"composer"`
	}
	if err := json.Unmarshal(respBody, &composer); err != nil {
		return fmt.Errorf("failed to parse composer response: %w", err)
	}

	_, err = c.doRequest(ctx, http.MethodPost, fmt.Sprintf("/composers/%d/submit", composer.Composer.ID), token, nil)
	return err
}

// CountContacts counts contacts whose display name matches the search
// term. Used with the campaign tag to scope totals to this campaign.
func (c *ERPClient) CountContacts(ctx context.Context, search string) (int64, error) {
	token, err := c.ensureSession(ctx)
	if err != nil {
		return 0, err
	}

	query := url.Values{"search": {search}}
	respBody, err := c.doRequest(ctx, http.MethodGet, "/contacts/count?"+query.Encode(), token, nil)
	if err != nil {
		return 0, err
	}

	var result struct {
		Total int64 `json:"total"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return 0, fmt.Errorf("failed to parse count response: %w", err)
	}
	return result.Total, nil
}

// ListNotes fetches all notes whose body matches the search term.
func (c *ERPClient) ListNotes(ctx context.Context, search string) ([]ERPNote, error) {
	token, err := c.ensureSession(ctx)
	if err != nil {
		return nil, err
	}

	query := url.Values{"search": {search}}
	respBody, err := c.doRequest(ctx, http.MethodGet, "/notes?"+query.Encode(), token, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Notes []ERPNote `json:"notes"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse notes response: %w", err)
	}
	return result.Notes, nil
}

// ListBranches fetches the branch labels known to the ERP.
func (c *ERPClient) ListBranches(ctx context.Context) ([]string, error) {
	token, err := c.ensureSession(ctx)
	if err != nil {
		return nil, err
	}

	respBody, err := c.doRequest(ctx, http.MethodGet, "/branches", token, nil)
	if err != nil {
		return nil, err
	}

	var result struct {
		Branches []string `json:"branches"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse branches response: %w", err)
	}
	return result.Branches, nil
}
