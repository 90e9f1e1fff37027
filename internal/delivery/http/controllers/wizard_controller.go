package controllers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"ticketwizard/internal/delivery/http/helpers"
	"ticketwizard/internal/delivery/http/middleware"
	"ticketwizard/internal/domain"
	"ticketwizard/internal/media"
	"ticketwizard/internal/wizard"
)

// maxUploadBytes leaves room for multipart framing around the largest image.
const maxUploadBytes = media.MaxImageBytes + 64<<10

// WizardStateSuccessResponse is the success response envelope for wizard operations (200).
type WizardStateSuccessResponse struct {
	Data  *domain.WizardState `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// SubmitSuccessResponse is the success response envelope for POST /wizard/submit (201).
type SubmitSuccessResponse struct {
	Data  *domain.EventDraft `json:"data"`
	Error *helpers.APIError  `json:"error"`
}

// AddTicketTypeRequest is the request body for POST /wizard/tickets.
type AddTicketTypeRequest struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
	Details  string `json:"details"`
	Free     bool   `json:"free"`
}

// AddAttendeeRequest is the request body for POST /wizard/tickets/{index}/attendees.
type AddAttendeeRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Validate implements Validator.
func (a AddAttendeeRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(a.Email) == "" {
		errs = append(errs, "email is required")
	}
	return errs
}

type WizardController struct {
	Logger  *slog.Logger
	Service domain.WizardService
}

func NewWizardController(logger *slog.Logger, svc domain.WizardService) *WizardController {
	return &WizardController{
		Logger:  logger,
		Service: svc,
	}
}

func (c *WizardController) principal(w http.ResponseWriter, r *http.Request) (*domain.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
	}
	return p, ok
}

// writeError maps wizard, media and submission failures onto API errors.
func (c *WizardController) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *wizard.ValidationError
	if errors.As(err, &verr) {
		helpers.WriteAPIError(w, http.StatusBadRequest, &helpers.APIError{
			Code:    helpers.ErrCodeBadRequest,
			Message: verr.Reason,
			Field:   verr.Field,
			Step:    int(verr.Step),
		})
		return
	}
	var serr *domain.SubmissionError
	if errors.As(err, &serr) {
		switch serr.Kind {
		case domain.SubmissionValidation:
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, serr.Message)
		case domain.SubmissionAuth:
			helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeLoginRequired, serr.Message)
		case domain.SubmissionNetwork:
			c.Logger.WarnContext(r.Context(), "event api unreachable", "path", r.URL.Path, "err", err)
			helpers.WriteJSONError(w, http.StatusBadGateway, helpers.ErrCodeUpstreamUnavailable, serr.Message)
		default:
			helpers.WriteJSONError(w, http.StatusBadGateway, helpers.ErrCodeUpstream, serr.Message)
		}
		return
	}
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrAttendeeLimit), errors.Is(err, domain.ErrGalleryFull), errors.Is(err, domain.ErrSubmitInFlight):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, err.Error())
	case errors.Is(err, domain.ErrDisposed):
		helpers.WriteJSONError(w, http.StatusGone, helpers.ErrCodeGone, err.Error())
	case errors.Is(err, domain.ErrUnsupportedMedia):
		helpers.WriteJSONError(w, http.StatusUnsupportedMediaType, helpers.ErrCodeUnsupportedMedia, err.Error())
	case errors.Is(err, domain.ErrFileTooLarge):
		helpers.WriteJSONError(w, http.StatusRequestEntityTooLarge, helpers.ErrCodeTooLarge, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal error")
	}
}

func (c *WizardController) respond(w http.ResponseWriter, r *http.Request, state *domain.WizardState, err error) {
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, state)
}

// GetState godoc
// @Summary Get the wizard state
// @Description Returns the caller's current step and draft. A saved draft from an earlier session is restored on first access; notice tells the user to re-select images when needed.
// @Tags wizard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.WizardStateSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /wizard [get]
func (c *WizardController) GetState(w http.ResponseWriter, r *http.Request) {
	p, ok := c.principal(w, r)
	if !ok {
		return
	}
	state, err := c.Service.State(r.Context(), p)
	c.respond(w, r, state, err)
}

// ApplyPatch godoc
// @Summary Update draft fields
// @Description Shallow merge: every key present in the body replaces the draft's value; nested objects and ticketType are replaced wholesale.
// @Tags wizard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param patch body domain.DraftPatch true "Fields to replace"
// @Success 200 {object} controllers.WizardStateSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /wizard/draft [patch]
func (c *WizardController) ApplyPatch(w http.ResponseWriter, r *http.Request) {
	p, ok := c.principal(w, r)
	if !ok {
		return
	}
	var patch domain.DraftPatch
	if !helpers.DecodeAndValidate(w, r, &patch) {
		return
	}
	state, err := c.Service.Apply(r.Context(), p, patch)
	c.respond(w, r, state, err)
}

// Next godoc
// @Summary Advance to the next step
// @Description Validates the current step. On failure the step is unchanged and the first failed rule is reported.
// @Tags wizard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.WizardStateSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request, with field and step"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /wizard/next [post]
func (c *WizardController) Next(w http.ResponseWriter, r *http.Request) {
	p, ok := c.principal(w, r)
	if !ok {
		return
	}
	state, err := c.Service.Next(r.Context(), p)
	c.respond(w, r, state, err)
}

// Back godoc
// @Summary Go back one step
// @Tags wizard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.WizardStateSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /wizard/back [post]
func (c *WizardController) Back(w http.ResponseWriter, r *http.Request) {
	p, ok := c.principal(w, r)
	if !ok {
		return
	}
	state, err := c.Service.Back(r.Context(), p)
	c.respond(w, r, state, err)
}

// AddTicketType godoc
// @Summary Add a ticket type
// @Tags wizard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param ticket body AddTicketTypeRequest true "Ticket type"
// @Success 200 {object} controllers.WizardStateSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /wizard/tickets [post]
func (c *WizardController) AddTicketType(w http.ResponseWriter, r *http.Request) {
	p, ok := c.principal(w, r)
	if !ok {
		return
	}
	var req AddTicketTypeRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	ticket := domain.NewTicketType(req.Name, req.Price, req.Quantity, req.Free)
	ticket.Details = req.Details
	state, err := c.Service.AddTicketType(r.Context(), p, ticket)
	c.respond(w, r, state, err)
}

// RemoveTicketType godoc
// @Summary Remove a ticket type
// @Tags wizard
// @Produce json
// @Security BearerAuth
// @Param index path int true "Ticket type index"
// @Success 200 {object} controllers.WizardStateSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /wizard/tickets/{index} [delete]
func (c *WizardController) RemoveTicketType(w http.ResponseWriter, r *http.Request) {
	p, ok := c.principal(w, r)
	if !ok {
		return
	}
	index, ok := helpers.PathIndex(r, "index")
	if !ok {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid ticket index")
		return
	}
	state, err := c.Service.RemoveTicketType(r.Context(), p, index)
	c.respond(w, r, state, err)
}

// AddAttendee godoc
// @Summary Pre-register an attendee on a ticket type
// @Description Rejected with 409 once the ticket's quantity is reached.
// @Tags wizard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param index path int true "Ticket type index"
// @Param attendee body AddAttendeeRequest true "Attendee"
// @Success 200 {object} controllers.WizardStateSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /wizard/tickets/{index}/attendees [post]
func (c *WizardController) AddAttendee(w http.ResponseWriter, r *http.Request) {
	p, ok := c.principal(w, r)
	if !ok {
		return
	}
	index, ok := helpers.PathIndex(r, "index")
	if !ok {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid ticket index")
		return
	}
	var req AddAttendeeRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	state, err := c.Service.AddAttendee(r.Context(), p, index, domain.Attendee{Name: req.Name, Email: req.Email})
	c.respond(w, r, state, err)
}

// RemoveAttendee godoc
// @Summary Remove a pre-registered attendee
// @Tags wizard
// @Produce json
// @Security BearerAuth
// @Param index path int true "Ticket type index"
// @Param attendee path int true "Attendee index"
// @Success 200 {object} controllers.WizardStateSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /wizard/tickets/{index}/attendees/{attendee} [delete]
func (c *WizardController) RemoveAttendee(w http.ResponseWriter, r *http.Request) {
	p, ok := c.principal(w, r)
	if !ok {
		return
	}
	index, ok := helpers.PathIndex(r, "index")
	if !ok {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid ticket index")
		return
	}
	attendee, ok := helpers.PathIndex(r, "attendee")
	if !ok {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid attendee index")
		return
	}
	state, err := c.Service.RemoveAttendee(r.Context(), p, index, attendee)
	c.respond(w, r, state, err)
}

// readUpload returns the name and bytes of the multipart "file" field.
func readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			helpers.WriteJSONError(w, http.StatusRequestEntityTooLarge, helpers.ErrCodeTooLarge, "image exceeds the maximum size")
			return "", nil, false
		}
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "multipart field \"file\" is required")
		return "", nil, false
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "could not read upload")
		return "", nil, false
	}
	return header.Filename, data, true
}

// SetImage godoc
// @Summary Select the main event image
// @Description Images must be image/* and at most 5 MiB. Images live in memory only and are never persisted with the draft.
// @Tags wizard
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Image"
// @Success 200 {object} controllers.WizardStateSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 413 {object} helpers.APIResponse "error.code: too_large"
// @Failure 415 {object} helpers.APIResponse "error.code: unsupported_media"
// @Router /wizard/image [put]
func (c *WizardController) SetImage(w http.ResponseWriter, r *http.Request) {
	p, ok := c.principal(w, r)
	if !ok {
		return
	}
	name, data, ok := readUpload(w, r)
	if !ok {
		return
	}
	state, err := c.Service.SetImage(r.Context(), p, name, data)
	c.respond(w, r, state, err)
}

// AddGalleryImage godoc
// @Summary Add a gallery image
// @Description The gallery holds at most 5 images.
// @Tags wizard
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Image"
// @Success 200 {object} controllers.WizardStateSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (gallery full)"
// @Failure 413 {object} helpers.APIResponse "error.code: too_large"
// @Failure 415 {object} helpers.APIResponse "error.code: unsupported_media"
// @Router /wizard/gallery [post]
func (c *WizardController) AddGalleryImage(w http.ResponseWriter, r *http.Request) {
	p, ok := c.principal(w, r)
	if !ok {
		return
	}
	name, data, ok := readUpload(w, r)
	if !ok {
		return
	}
	state, err := c.Service.AddGalleryImage(r.Context(), p, name, data)
	c.respond(w, r, state, err)
}

// RemoveGalleryImage godoc
// @Summary Remove a gallery image
// @Tags wizard
// @Produce json
// @Security BearerAuth
// @Param index path int true "Gallery index"
// @Success 200 {object} controllers.WizardStateSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /wizard/gallery/{index} [delete]
func (c *WizardController) RemoveGalleryImage(w http.ResponseWriter, r *http.Request) {
	p, ok := c.principal(w, r)
	if !ok {
		return
	}
	index, ok := helpers.PathIndex(r, "index")
	if !ok {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid gallery index")
		return
	}
	state, err := c.Service.RemoveGalleryImage(r.Context(), p, index)
	c.respond(w, r, state, err)
}

// Submit godoc
// @Summary Create the event
// @Description Validates every step and sends the draft to the event API once. 401 with login_required means the API rejected the session and the user must log in again; upstream errors carry the API's message verbatim.
// @Tags wizard
// @Produce json
// @Security BearerAuth
// @Success 201 {object} controllers.SubmitSuccessResponse "data contains the created event"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized or login_required"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (submission in flight)"
// @Failure 502 {object} helpers.APIResponse "error.code: upstream_error or upstream_unavailable"
// @Router /wizard/submit [post]
func (c *WizardController) Submit(w http.ResponseWriter, r *http.Request) {
	p, ok := c.principal(w, r)
	if !ok {
		return
	}
	event, err := c.Service.Submit(r.Context(), p)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// Abandon godoc
// @Summary Discard the draft
// @Description Clears the saved draft and cancels any submission in flight.
// @Tags wizard
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /wizard [delete]
func (c *WizardController) Abandon(w http.ResponseWriter, r *http.Request) {
	p, ok := c.principal(w, r)
	if !ok {
		return
	}
	if err := c.Service.Abandon(r.Context(), p); err != nil {
		c.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
