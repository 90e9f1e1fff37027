package domain

// Attendee is a pre-registered holder of a ticket.
type Attendee struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// TicketTypeDraft is a priced category of admission. Price is a decimal string
// and Quantity an integer string, as typed by the organiser. Sold is owned by
// the server; the wizard always starts it at "0".
// swagger:model TicketTypeDraft
type TicketTypeDraft struct {
	Name      string     `json:"name"`
	Price     string     `json:"price"`
	Quantity  string     `json:"quantity"`
	Sold      string     `json:"sold"`
	Details   string     `json:"details,omitempty"`
	Attendees []Attendee `json:"attendees,omitempty"`
	Free      bool       `json:"free,omitempty"`
}

// NewTicketType returns a ticket type with Sold initialised. Free tickets get a
// zero price regardless of the price passed in.
func NewTicketType(name, price, quantity string, free bool) TicketTypeDraft {
	if free {
		price = "0.00"
	}
	return TicketTypeDraft{
		Name:     name,
		Price:    price,
		Quantity: quantity,
		Sold:     "0",
		Free:     free,
	}
}

// Clone returns a deep copy of t so the attendee list can be changed without
// touching t.
func (t TicketTypeDraft) Clone() TicketTypeDraft {
	out := t
	if t.Attendees != nil {
		out.Attendees = append([]Attendee(nil), t.Attendees...)
	}
	return out
}

// CloneTicketTypes deep-copies a ticket type list.
func CloneTicketTypes(in []TicketTypeDraft) []TicketTypeDraft {
	if in == nil {
		return nil
	}
	out := make([]TicketTypeDraft, len(in))
	for i, t := range in {
		out[i] = t.Clone()
	}
	return out
}
