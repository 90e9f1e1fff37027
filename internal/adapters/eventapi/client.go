// Package eventapi submits completed drafts to the remote event API.
package eventapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	"ticketwizard/internal/domain"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 1 << 20

type client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewClient returns a submitter that posts events to baseURL + "/events".
// Each Submit makes exactly one request; nothing is retried.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) domain.EventSubmitter {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  httpClient,
		logger:  logger,
	}
}

func validationError(message string, err error) *domain.SubmissionError {
	return &domain.SubmissionError{Kind: domain.SubmissionValidation, Message: message, Err: err}
}

func (c *client) Submit(ctx context.Context, draft domain.EventDraft, authToken string) (*domain.EventDraft, error) {
	if draft.Image == nil {
		return nil, validationError("main image required", nil)
	}
	body, contentType, err := buildPayload(draft)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/events", body)
	if err != nil {
		return nil, &domain.SubmissionError{Kind: domain.SubmissionNetwork, Message: domain.GenericSubmissionMessage, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+authToken)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "event submission failed", "err", err)
		return nil, &domain.SubmissionError{Kind: domain.SubmissionNetwork, Message: domain.GenericSubmissionMessage, Err: fmt.Errorf("failed to reach event api: %w", err)}
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		created := adoptServerFields(draft, raw)
		if created.ID == "" {
			c.logger.WarnContext(ctx, "event api response carried no event id", "status", resp.StatusCode)
		}
		return created, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &domain.SubmissionError{
			Kind:       domain.SubmissionAuth,
			Message:    "Your session has expired. Please log in again.",
			StatusCode: resp.StatusCode,
		}
	default:
		message := serverMessage(raw)
		if message == "" {
			message = domain.GenericSubmissionMessage
		}
		c.logger.WarnContext(ctx, "event api rejected submission", "status", resp.StatusCode, "message", message)
		return nil, &domain.SubmissionError{
			Kind:       domain.SubmissionServer,
			Message:    message,
			StatusCode: resp.StatusCode,
		}
	}
}

// buildPayload renders the multipart form. The main image goes first under
// "gallery", followed by the gallery images.
func buildPayload(d domain.EventDraft) (io.Reader, string, error) {
	date, err := NormalizeDate(d.Date)
	if err != nil {
		return nil, "", validationError("Event date must be a valid date", err)
	}
	formattedTime, err := FormatTime(d.Time)
	if err != nil {
		return nil, "", validationError("Event time must be in HH:MM format", err)
	}

	tickets := d.TicketType
	if tickets == nil {
		tickets = []domain.TicketTypeDraft{}
	}
	ticketJSON, err := json.Marshal(tickets)
	if err != nil {
		return nil, "", validationError("Ticket types could not be encoded", err)
	}
	links := d.SocialMediaLinks
	if links == nil {
		links = &domain.SocialMediaLinks{}
	}
	linksJSON, err := json.Marshal(links)
	if err != nil {
		return nil, "", validationError("Social media links could not be encoded", err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	images := append([]*domain.FileHandle{d.Image}, d.Gallery...)
	for _, img := range images {
		if img == nil {
			continue
		}
		if err := writeFile(w, domain.MediaFieldGallery, img); err != nil {
			return nil, "", validationError("Images could not be attached", err)
		}
	}

	fields := []struct{ name, value string }{
		{"title", d.Title},
		{"description", d.Description},
		{"date", date},
		{"location", d.Location},
		{"ticketType", string(ticketJSON)},
		{"time", formattedTime},
		{"venue", d.Venue},
		{"isVirtual", strconv.FormatBool(d.IsVirtual)},
		{"socialMediaLinks", string(linksJSON)},
	}
	if d.HostName != "" {
		fields = append(fields, struct{ name, value string }{"hostName", d.HostName})
	}
	if d.IsVirtual && d.VirtualEventDetails != nil {
		vJSON, err := json.Marshal(d.VirtualEventDetails.Normalize())
		if err != nil {
			return nil, "", validationError("Virtual event details could not be encoded", err)
		}
		fields = append(fields, struct{ name, value string }{"virtualEventDetails", string(vJSON)})
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", validationError("Event could not be encoded", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", validationError("Event could not be encoded", err)
	}
	return &buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFile(w *multipart.Writer, field string, h *domain.FileHandle) error {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(h.Name)))
	contentType := h.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return err
	}
	_, err = part.Write(h.Data)
	return err
}

// serverEvent holds the fields of a created event that the server owns.
type serverEvent struct {
	ID        string `json:"id"`
	MongoID   string `json:"_id"`
	Slug      string `json:"slug"`
	UserID    string `json:"userId"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
	Currency  string `json:"currency"`
}

// adoptServerFields copies the server-owned fields of the response onto the
// submitted draft. The event may be the whole body or wrapped in "data" or
// "event". Undecodable bodies leave the draft as submitted.
func adoptServerFields(d domain.EventDraft, raw []byte) *domain.EventDraft {
	out := d
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return &out
	}
	body := raw
	for _, key := range []string{"data", "event"} {
		if inner, ok := envelope[key]; ok && len(inner) > 0 && inner[0] == '{' {
			body = inner
			break
		}
	}
	var ev serverEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return &out
	}
	out.ID = ev.ID
	if out.ID == "" {
		out.ID = ev.MongoID
	}
	out.Slug = ev.Slug
	out.UserID = ev.UserID
	out.CreatedAt = ev.CreatedAt
	out.UpdatedAt = ev.UpdatedAt
	out.Currency = ev.Currency
	return &out
}

// serverMessage extracts "message" or "error" (a string or an object with a
// message) from an error body.
func serverMessage(raw []byte) string {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	var s string
	if m, ok := body["message"]; ok && json.Unmarshal(m, &s) == nil && s != "" {
		return s
	}
	if e, ok := body["error"]; ok {
		if json.Unmarshal(e, &s) == nil && s != "" {
			return s
		}
		var obj struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(e, &obj) == nil {
			return obj.Message
		}
	}
	return ""
}
