package domain

import "encoding/json"

// Field is an optional patch value. Set is true when the key was present in
// the patch, including an explicit JSON null.
type Field[T any] struct {
	Set   bool
	Value T
}

// Some returns a Field set to v.
func Some[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

// UnmarshalJSON marks the field as set. A null leaves Value at its zero value.
func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.Set = true
	if string(b) == "null" {
		var zero T
		f.Value = zero
		return nil
	}
	return json.Unmarshal(b, &f.Value)
}

// MarshalJSON encodes the value, or null when unset.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Set {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// DraftPatch is a partial update of an EventDraft. Each set field replaces the
// draft's value for that key wholesale. Server-owned fields are not patchable.
// swagger:model DraftPatch
type DraftPatch struct {
	Title               Field[string]               `json:"title"`
	Description         Field[string]               `json:"description"`
	Date                Field[string]               `json:"date"`
	Time                Field[string]               `json:"time"`
	Venue               Field[string]               `json:"venue"`
	Location            Field[string]               `json:"location"`
	HostName            Field[string]               `json:"hostName"`
	Image               Field[*FileHandle]          `json:"-"`
	Gallery             Field[[]*FileHandle]        `json:"-"`
	IsVirtual           Field[bool]                 `json:"isVirtual"`
	VirtualEventDetails Field[*VirtualEventDetails] `json:"virtualEventDetails"`
	TicketType          Field[[]TicketTypeDraft]    `json:"ticketType"`
	SocialMediaLinks    Field[*SocialMediaLinks]    `json:"socialMediaLinks"`
}

// PatchFrom returns a patch that sets every authored field of d. Restoring a
// saved draft applies such a patch to an empty draft.
func PatchFrom(d EventDraft) DraftPatch {
	return DraftPatch{
		Title:               Some(d.Title),
		Description:         Some(d.Description),
		Date:                Some(d.Date),
		Time:                Some(d.Time),
		Venue:               Some(d.Venue),
		Location:            Some(d.Location),
		HostName:            Some(d.HostName),
		IsVirtual:           Some(d.IsVirtual),
		VirtualEventDetails: Some(d.VirtualEventDetails),
		TicketType:          Some(d.TicketType),
		SocialMediaLinks:    Some(d.SocialMediaLinks),
	}
}
