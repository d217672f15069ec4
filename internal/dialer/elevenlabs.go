package dialer

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
)

// ElevenLabsConfig carries credentials and call settings for the ElevenLabs
// ConvAI batch-calling API.
type ElevenLabsConfig struct {
	BaseURL string
	APIKey  string

	// AgentID is the conversational agent placing the calls.
	AgentID string
	// PhoneNumberID is the provider-side outbound number to dial from.
	PhoneNumberID string

	HTTPTimeout time.Duration
}

// Misconfigured reports whether required provider settings are missing.
func (c ElevenLabsConfig) Misconfigured() bool {
	return c.APIKey == "" || c.AgentID == "" || c.PhoneNumberID == ""
}

// ElevenLabsDialer adapts the ElevenLabs ConvAI batch-calling API to BatchDialer.
//
// Correlation: the lead id is carried through each recipient's
// conversation_initiation_client_data dynamic variables and echoed back on
// status reads.
type ElevenLabsDialer struct {
	cfg  ElevenLabsConfig
	http *http.Client
}

func NewElevenLabsDialer(cfg ElevenLabsConfig) *ElevenLabsDialer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.elevenlabs.io"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ElevenLabsDialer{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
}

func (d *ElevenLabsDialer) Name() string { return "elevenlabs" }

func (d *ElevenLabsDialer) HealthCheck(ctx context.Context) error {
	if d.cfg.Misconfigured() {
		return errors.New("dialer: elevenlabs credentials missing")
	}
	return nil
}

const leadIDVariable = "lead_id"

type elSubmitRequest struct {
	CallName           string              `json:"call_name"`
	AgentID            string              `json:"agent_id"`
	AgentPhoneNumberID string              `json:"agent_phone_number_id"`
	Recipients         []elSubmitRecipient `json:"recipients"`
}

type elSubmitRecipient struct {
	PhoneNumber          string          `json:"phone_number"`
	ConversationInitData *elConvInitData `json:"conversation_initiation_client_data,omitempty"`
}

type elConvInitData struct {
	DynamicVariables map[string]string `json:"dynamic_variables"`
}

type elBatchResponse struct {
	ID         string             `json:"id"`
	Status     string             `json:"status"`
	Recipients []elBatchRecipient `json:"recipients"`
}

type elBatchRecipient struct {
	ID                   string          `json:"id"`
	PhoneNumber          string          `json:"phone_number"`
	Status               string          `json:"status"`
	ConversationID       string          `json:"conversation_id"`
	CallDurationSecs     *int            `json:"call_duration_secs,omitempty"`
	ConversationInitData *elConvInitData `json:"conversation_initiation_client_data,omitempty"`
}

type elConversationResponse struct {
	Status   string `json:"status"`
	Metadata struct {
		CallDurationSecs *int `json:"call_duration_secs,omitempty"`
	} `json:"metadata"`
	Transcript []struct {
		Role    string `json:"role"`
		Message string `json:"message"`
	} `json:"transcript"`
}

func (d *ElevenLabsDialer) SubmitBatch(ctx context.Context, req SubmitBatchRequest) (SubmitBatchResult, error) {
	if d.cfg.Misconfigured() {
		return SubmitBatchResult{}, errors.New("dialer: elevenlabs credentials missing")
	}
	if len(req.Recipients) == 0 {
		return SubmitBatchResult{}, errors.New("dialer: no recipients")
	}

	body := elSubmitRequest{
		CallName:           req.JobName,
		AgentID:            d.cfg.AgentID,
		AgentPhoneNumberID: d.cfg.PhoneNumberID,
		Recipients:         make([]elSubmitRecipient, 0, len(req.Recipients)),
	}
	for _, r := range req.Recipients {
		body.Recipients = append(body.Recipients, elSubmitRecipient{
			PhoneNumber: r.Phone,
			ConversationInitData: &elConvInitData{
				DynamicVariables: map[string]string{leadIDVariable: r.LeadID},
			},
		})
	}

	var out elBatchResponse
	if err := d.do(ctx, http.MethodPost, "/v1/convai/batch-calling/submit", body, &out); err != nil {
		return SubmitBatchResult{}, err
	}
	if out.ID == "" {
		return SubmitBatchResult{}, errors.New("dialer: provider returned no batch id")
	}
	return SubmitBatchResult{JobID: out.ID}, nil
}

func (d *ElevenLabsDialer) GetBatchStatus(ctx context.Context, jobID string) (BatchSnapshot, error) {
	if jobID == "" {
		return BatchSnapshot{}, errors.New("dialer: job id required")
	}

	var out elBatchResponse
	path := "/v1/convai/batch-calling/" + url.PathEscape(jobID)
	if err := d.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return BatchSnapshot{}, err
	}

	snap := BatchSnapshot{
		JobID:      jobID,
		State:      NormalizeBatchState(out.Status),
		Recipients: make([]RecipientStatus, 0, len(out.Recipients)),
	}
	for _, r := range out.Recipients {
		rs := RecipientStatus{
			Phone:          r.PhoneNumber,
			Outcome:        NormalizeOutcome(r.Status),
			ConversationID: r.ConversationID,
		}
		if r.CallDurationSecs != nil {
			rs.DurationSeconds = *r.CallDurationSecs
			rs.HasDuration = true
		}
		if r.ConversationInitData != nil {
			rs.LeadID = r.ConversationInitData.DynamicVariables[leadIDVariable]
		}
		snap.Recipients = append(snap.Recipients, rs)
	}
	return snap, nil
}

func (d *ElevenLabsDialer) GetCallDetail(ctx context.Context, conversationID string) (CallDetail, error) {
	if conversationID == "" {
		return CallDetail{}, errors.New("dialer: conversation id required")
	}

	var out elConversationResponse
	path := "/v1/convai/conversations/" + url.PathEscape(conversationID)
	if err := d.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return CallDetail{}, err
	}

	detail := CallDetail{Outcome: NormalizeOutcome(out.Status)}
	if out.Metadata.CallDurationSecs != nil {
		detail.DurationSeconds = *out.Metadata.CallDurationSecs
		detail.HasDuration = true
	}
	if len(out.Transcript) > 0 {
		var b strings.Builder
		for _, turn := range out.Transcript {
			if turn.Message == "" {
				continue
			}
			b.WriteString(turn.Role)
			b.WriteString(": ")
			b.WriteString(turn.Message)
			b.WriteString("\n")
		}
		detail.Transcript = strings.TrimRight(b.String(), "\n")
	}
	return detail, nil
}

func (d *ElevenLabsDialer) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, d.cfg.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("xi-api-key", d.cfg.APIKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := d.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Limit the echoed body; provider errors can be large.
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("dialer: %s %s returned %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
