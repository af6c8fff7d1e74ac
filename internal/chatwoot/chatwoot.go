package chatwoot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/strataops/strata-triage/model/enum"
	"github.com/sirupsen/logrus"
)

type AccountDetails struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ConversationDetails is the ticket view the agent needs: status, priority
// and labels, enough to decide whether a reply may still be posted.
type ConversationDetails struct {
	ID       uint     `json:"id"`
	InboxID  uint     `json:"inbox_id"`
	Status   string   `json:"status"`
	Priority string   `json:"priority"`
	Labels   []string `json:"labels"`
}

type ConversationMessagesResponse struct {
	Payload []Message `json:"payload"`
}

type Message struct {
	ID          uint   `json:"id"`
	Content     string `json:"content"`
	MessageType int    `json:"message_type"` // 0: incoming, 1: outgoing
	CreatedAt   int64  `json:"created_at"`
	Sender      Sender `json:"sender"`
	Private     bool   `json:"private"`
}

const (
	MessageDirectionIncoming = 0
	MessageDirectionOutgoing = 1
	SenderContact            = "contact"
)

type Sender struct {
	ID   uint   `json:"id"`
	Type string `json:"type"` // "contact", "agent"
}

// Service is the ticketing-platform surface the core consumes. Everything
// else about the platform is its own concern.
type Service interface {
	GetAccountDetails() (*AccountDetails, error)
	// GetTicket fetches current status, priority and labels for a ticket.
	GetTicket(conversationID uint) (*ConversationDetails, error)
	// PostReply sends a customer-visible message on the ticket.
	PostReply(conversationID uint, body string) error
	// CreatePrivateNote leaves an internal-only note (drafts, audit trails).
	CreatePrivateNote(conversationID uint, content string) error
	// UpdateStatus switches the ticket status and optionally replaces labels.
	UpdateStatus(conversationID uint, status enum.ConversationStatus, labels ...string) error
	ToggleTypingStatus(conversationID uint, status string) error
	GetConversationMessages(accountID, conversationID uint) ([]Message, error)
}

type Client struct {
	BaseURL       string
	AccountID     int
	AgentApiToken string
	BotApiToken   string
	HttpClient    *http.Client
	Logger        *logrus.Logger
}

func NewClient(baseURL string, accountID int, agentApiToken, botApiToken string, logger *logrus.Logger) Service {
	return &Client{
		BaseURL:       baseURL,
		AccountID:     accountID,
		AgentApiToken: agentApiToken,
		BotApiToken:   botApiToken,
		HttpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		Logger: logger,
	}
}

type tokenType int

const (
	agentToken tokenType = iota
	botToken
)

func (c *Client) sendRequest(method, path string, token tokenType, requestBody, responsePayload interface{}) error {
	url := fmt.Sprintf("%s%s", c.BaseURL, path)

	var bodyReader io.Reader
	if requestBody != nil {
		jsonData, err := json.Marshal(requestBody)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	if token == agentToken {
		req.Header.Set("api_access_token", c.AgentApiToken)
	} else {
		req.Header.Set("api_access_token", c.BotApiToken)
	}

	resp, err := c.HttpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API returned status %d, path %s, body: %s", resp.StatusCode, path, string(bodyBytes))
	}

	if responsePayload != nil {
		if err := json.NewDecoder(resp.Body).Decode(responsePayload); err != nil {
			return fmt.Errorf("decode JSON response: %w", err)
		}
	}

	return nil
}

func (c *Client) GetAccountDetails() (*AccountDetails, error) {
	path := fmt.Sprintf("/api/v1/accounts/%d", c.AccountID)
	var accountDetails AccountDetails
	if err := c.sendRequest("GET", path, agentToken, nil, &accountDetails); err != nil {
		return nil, err
	}
	return &accountDetails, nil
}

func (c *Client) GetTicket(conversationID uint) (*ConversationDetails, error) {
	path := fmt.Sprintf("/api/v1/accounts/%d/conversations/%d", c.AccountID, conversationID)
	var details ConversationDetails
	if err := c.sendRequest("GET", path, agentToken, nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

type createMessageRequest struct {
	Content     string `json:"content"`
	MessageType string `json:"message_type"`
	Private     bool   `json:"private"`
	ContentType string `json:"content_type,omitempty"`
}

func (c *Client) PostReply(conversationID uint, body string) error {
	path := fmt.Sprintf("/api/v1/accounts/%d/conversations/%d/messages", c.AccountID, conversationID)
	payload := createMessageRequest{
		Content:     body,
		MessageType: string(enum.MessageTypeOutgoing),
		Private:     false,
		ContentType: "text",
	}
	return c.sendRequest("POST", path, botToken, payload, nil)
}

func (c *Client) CreatePrivateNote(conversationID uint, content string) error {
	path := fmt.Sprintf("/api/v1/accounts/%d/conversations/%d/messages", c.AccountID, conversationID)
	payload := createMessageRequest{
		Content:     content,
		MessageType: string(enum.MessageTypeOutgoing),
		Private:     true,
	}
	return c.sendRequest("POST", path, botToken, payload, nil)
}

type toggleStatusRequest struct {
	Status enum.ConversationStatus `json:"status"`
}

type labelsRequest struct {
	Labels []string `json:"labels"`
}

func (c *Client) UpdateStatus(conversationID uint, status enum.ConversationStatus, labels ...string) error {
	path := fmt.Sprintf("/api/v1/accounts/%d/conversations/%d/toggle_status", c.AccountID, conversationID)
	if err := c.sendRequest("POST", path, botToken, toggleStatusRequest{Status: status}, nil); err != nil {
		return err
	}

	if len(labels) == 0 {
		return nil
	}
	labelPath := fmt.Sprintf("/api/v1/accounts/%d/conversations/%d/labels", c.AccountID, conversationID)
	return c.sendRequest("POST", labelPath, agentToken, labelsRequest{Labels: labels}, nil)
}

type toggleTypingRequest struct {
	TypingStatus string `json:"typing_status"` // "on" or "off"
}

func (c *Client) ToggleTypingStatus(conversationID uint, status string) error {
	if status != "on" && status != "off" {
		return fmt.Errorf("invalid typing status: %s", status)
	}
	path := fmt.Sprintf("/api/v1/accounts/%d/conversations/%d/toggle_typing_status", c.AccountID, conversationID)
	return c.sendRequest("POST", path, agentToken, toggleTypingRequest{TypingStatus: status}, nil)
}

func (c *Client) GetConversationMessages(accountID, conversationID uint) ([]Message, error) {
	path := fmt.Sprintf("/api/v1/accounts/%d/conversations/%d/messages", accountID, conversationID)
	var response ConversationMessagesResponse
	if err := c.sendRequest("GET", path, agentToken, nil, &response); err != nil {
		return nil, err
	}
	return response.Payload, nil
}
