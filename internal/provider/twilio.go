// internal/provider/twilio.go
package provider

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.twilio.com/2010-04-01"

// TwilioProvider sends WhatsApp messages through Twilio's content template
// API. Variables are passed through; rendering happens on the provider side.
type TwilioProvider struct {
	AccountSID          string
	AuthToken           string
	FromNumber          string // whatsapp:+...
	MessagingServiceSID string // takes precedence over FromNumber when set
	BaseURL             string
	HTTPClient          *http.Client
}

func NewTwilioProvider(accountSID, authToken, fromNumber, messagingServiceSID string) *TwilioProvider {
	return &TwilioProvider{
		AccountSID:          accountSID,
		AuthToken:           authToken,
		FromNumber:          fromNumber,
		MessagingServiceSID: messagingServiceSID,
		BaseURL:             defaultBaseURL,
		HTTPClient:          &http.Client{Timeout: 30 * time.Second},
	}
}

type twilioMessageResponse struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (p *TwilioProvider) Send(destination, templateSID string, variables map[string]string) (*SendResult, error) {
	vars, err := json.Marshal(variables)
	if err != nil {
		return nil, &Error{Detail: "encoding content variables: " + err.Error()}
	}

	form := url.Values{}
	form.Set("To", destination)
	form.Set("ContentSid", templateSID)
	form.Set("ContentVariables", string(vars))
	if p.MessagingServiceSID != "" {
		form.Set("MessagingServiceSid", p.MessagingServiceSID)
	} else {
		form.Set("From", p.FromNumber)
	}

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", p.BaseURL, p.AccountSID)
	req, err := http.NewRequest(http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &Error{Detail: err.Error()}
	}
	req.SetBasicAuth(p.AccountSID, p.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return nil, &Error{Detail: err.Error()}
	}
	defer resp.Body.Close()

	var body twilioMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &Error{Detail: fmt.Sprintf("decoding response (HTTP %d): %v", resp.StatusCode, err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := body.Message
		if detail == "" {
			detail = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return nil, &Error{Code: body.Code, Detail: detail}
	}

	return &SendResult{MessageSID: body.SID, Status: body.Status}, nil
}

var _ MessageProvider = (*TwilioProvider)(nil)
