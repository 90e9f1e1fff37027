package wizard

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"ticketwizard/internal/domain"
)

// Step is a stage of the wizard. Steps are visited in order.
type Step int

const (
	StepBasicInfo Step = iota + 1
	StepTicketSetup
	StepTicketDetails
	StepFinalDetails
)

// FirstStep and LastStep bound the wizard.
const (
	FirstStep = StepBasicInfo
	LastStep  = StepFinalDetails
)

func (s Step) String() string {
	switch s {
	case StepBasicInfo:
		return "basic info"
	case StepTicketSetup:
		return "ticket setup"
	case StepTicketDetails:
		return "ticket details"
	case StepFinalDetails:
		return "final details"
	}
	return fmt.Sprintf("step %d", int(s))
}

// ValidationError reports the first rule a step failed.
type ValidationError struct {
	Step   Step
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// emailRegex matches local@domain with at least one dot in the domain and no whitespace.
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Prices and quantities are plain digits so the remote API reads the same
// number the wizard validated.
var (
	priceRegex    = regexp.MustCompile(`^\d+(\.\d+)?$`)
	quantityRegex = regexp.MustCompile(`^\d+$`)
)

// Validate runs the validator of step against d.
func Validate(step Step, d domain.EventDraft) error {
	switch step {
	case StepBasicInfo:
		return ValidateBasicInfo(d)
	case StepTicketSetup:
		return ValidateTicketSetup(d)
	case StepTicketDetails:
		return ValidateTicketDetails(d)
	case StepFinalDetails:
		return ValidateFinalDetails(d)
	}
	return fmt.Errorf("unknown step %d: %w", int(step), domain.ErrInvalidInput)
}

// ValidateAll runs every step validator in order and returns the first failure.
func ValidateAll(d domain.EventDraft) error {
	for s := FirstStep; s <= LastStep; s++ {
		if err := Validate(s, d); err != nil {
			return err
		}
	}
	return nil
}

func fail(step Step, field, reason string) error {
	return &ValidationError{Step: step, Field: field, Reason: reason}
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// ValidateBasicInfo checks title, description, main image, schedule and where
// the event takes place.
func ValidateBasicInfo(d domain.EventDraft) error {
	const step = StepBasicInfo
	if blank(d.Title) {
		return fail(step, "title", "Event title is required")
	}
	if blank(d.Description) {
		return fail(step, "description", "Event description is required")
	}
	if d.Image == nil {
		return fail(step, "image", "Event image is required")
	}
	if blank(d.Date) {
		return fail(step, "date", "Event date is required")
	}
	if _, err := ParseDate(d.Date); err != nil {
		return fail(step, "date", "Event date must be a valid date (YYYY-MM-DD)")
	}
	if blank(d.Time) {
		return fail(step, "time", "Event time is required")
	}
	if _, err := time.Parse("15:04", strings.TrimSpace(d.Time)); err != nil {
		return fail(step, "time", "Event time must be in HH:MM format")
	}
	if d.IsVirtual {
		return validateVirtual(d.VirtualEventDetails)
	}
	if blank(d.Venue) {
		return fail(step, "venue", "Venue is required for in-person events")
	}
	if blank(d.Location) {
		return fail(step, "location", "Location is required for in-person events")
	}
	return nil
}

func validateVirtual(v *domain.VirtualEventDetails) error {
	const step = StepBasicInfo
	if v == nil || v.Platform == "" {
		return fail(step, "virtualEventDetails.platform", "Please select a virtual event platform")
	}
	if !v.Platform.Valid() {
		return fail(step, "virtualEventDetails.platform", fmt.Sprintf("Unsupported virtual event platform %q", v.Platform))
	}
	switch v.Platform {
	case domain.PlatformZoom:
		if blank(v.MeetingID) {
			return fail(step, "virtualEventDetails.meetingId", "Zoom meeting ID is required")
		}
		if v.RequiresPassword && blank(v.Passcode) {
			return fail(step, "virtualEventDetails.passcode", "Zoom passcode is required when a password is enabled")
		}
	case domain.PlatformGoogleMeet, domain.PlatformWhereby:
		if blank(v.MeetingURL) {
			return fail(step, "virtualEventDetails.meetingUrl", "Meeting URL is required")
		}
	case domain.PlatformCustom:
		if blank(v.MeetingURL) {
			return fail(step, "virtualEventDetails.meetingUrl", "Meeting URL is required")
		}
		if v.RequiresPassword && blank(v.VirtualPassword) {
			return fail(step, "virtualEventDetails.virtualPassword", "Meeting password is required when a password is enabled")
		}
	}
	return nil
}

// ValidateTicketSetup checks that at least one ticket type exists and that
// each has a name, a usable price and a positive quantity. A price of zero is
// only accepted on tickets flagged free.
func ValidateTicketSetup(d domain.EventDraft) error {
	const step = StepTicketSetup
	if len(d.TicketType) == 0 {
		return fail(step, "ticketType", "At least one ticket type is required")
	}
	for i, t := range d.TicketType {
		field := fmt.Sprintf("ticketType[%d]", i)
		label := fmt.Sprintf("Ticket type %d", i+1)
		if blank(t.Name) {
			return fail(step, field+".name", label+": name is required")
		}
		price, err := ParsePrice(t.Price)
		if err != nil {
			return fail(step, field+".price", label+": price must be a valid non-negative number")
		}
		quantity, err := ParseQuantity(t.Quantity)
		if err != nil {
			return fail(step, field+".quantity", label+": quantity must be a valid non-negative whole number")
		}
		if t.Free && price != 0 {
			return fail(step, field+".price", label+": free tickets cannot have a price")
		}
		if !t.Free && price <= 0 {
			return fail(step, field+".price", label+": price must be greater than 0")
		}
		if quantity <= 0 {
			return fail(step, field+".quantity", label+": quantity must be greater than 0")
		}
		if len(t.Attendees) > quantity {
			return fail(step, field+".attendees", fmt.Sprintf("%s: %d attendees exceed the quantity of %d", label, len(t.Attendees), quantity))
		}
	}
	return nil
}

// ValidateTicketDetails checks the email of every pre-registered attendee.
func ValidateTicketDetails(d domain.EventDraft) error {
	const step = StepTicketDetails
	for i, t := range d.TicketType {
		for j, a := range t.Attendees {
			if !emailRegex.MatchString(a.Email) {
				return fail(step, fmt.Sprintf("ticketType[%d].attendees[%d].email", i, j),
					fmt.Sprintf("Invalid email for attendee %d of %q", j+1, t.Name))
			}
		}
	}
	return nil
}

// ValidateFinalDetails never blocks. Gallery limits are enforced when images
// are selected.
func ValidateFinalDetails(domain.EventDraft) error {
	return nil
}

// ParsePrice parses a plain decimal price such as "10" or "12.50". Empty
// input counts as zero. Signs, exponents, hex and digit separators are
// rejected.
func ParsePrice(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if !priceRegex.MatchString(s) {
		return 0, fmt.Errorf("price %q: %w", s, domain.ErrInvalidInput)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, fmt.Errorf("price %q: %w", s, domain.ErrInvalidInput)
	}
	return v, nil
}

// ParseQuantity parses a whole, non-negative ticket quantity.
func ParseQuantity(s string) (int, error) {
	s = strings.TrimSpace(s)
	if !quantityRegex.MatchString(s) {
		return 0, fmt.Errorf("quantity %q: %w", s, domain.ErrInvalidInput)
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("quantity %q: %w", s, domain.ErrInvalidInput)
	}
	return v, nil
}

// ParseDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
