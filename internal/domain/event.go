package domain

// EventDraft is the possibly incomplete event record authored by the creation wizard.
// Identity and provenance fields are only ever populated by the server.
// swagger:model EventDraft
type EventDraft struct {
	ID   string `json:"id,omitempty"`
	Slug string `json:"slug,omitempty"`

	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Venue       string `json:"venue"`
	Location    string `json:"location"`
	HostName    string `json:"hostName"`

	Image   *FileHandle   `json:"image"`
	Gallery []*FileHandle `json:"gallery"`

	IsVirtual           bool                 `json:"isVirtual"`
	VirtualEventDetails *VirtualEventDetails `json:"virtualEventDetails,omitempty"`

	TicketType       []TicketTypeDraft `json:"ticketType"`
	SocialMediaLinks *SocialMediaLinks `json:"socialMediaLinks,omitempty"`

	// ImageMarkers is only set on drafts restored from storage. It names the
	// images that were attached before the draft was persisted.
	ImageMarkers []ImageMarker `json:"imageMarkers,omitempty"`

	UserID    string `json:"userId,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
	Currency  string `json:"currency,omitempty"`
}

// MaxGalleryImages is the number of gallery images an event may carry.
const MaxGalleryImages = 5

// FileHandle refers to an image selected by the user. Data is held in memory
// only and never serialized.
// swagger:model FileHandle
type FileHandle struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Hash        string `json:"hash"`
	Data        []byte `json:"-"`
}

// Media field names used in image markers and in the multipart payload.
const (
	MediaFieldImage   = "image"
	MediaFieldGallery = "gallery"
)

// ImageMarker records which image occupied a media field when a draft was
// persisted, so the user can be asked to select it again.
type ImageMarker struct {
	Field string `json:"field"`
	Name  string `json:"name"`
	Hash  string `json:"hash"`
}

// Marker returns the persisted stand-in for h in the given draft field.
func (h *FileHandle) Marker(field string) ImageMarker {
	return ImageMarker{Field: field, Name: h.Name, Hash: h.Hash}
}

// SocialMediaLinks are optional promotion links for an event.
type SocialMediaLinks struct {
	Instagram string `json:"instagram,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
}

// Stripped returns a copy of d with binary fields removed and a marker recorded
// for each image that was attached. The copy is safe to persist. Markers from an
// earlier restore survive for fields that have not been re-selected yet.
func (d EventDraft) Stripped() EventDraft {
	out := d
	out.ImageMarkers = nil
	if d.Image != nil {
		out.ImageMarkers = append(out.ImageMarkers, d.Image.Marker(MediaFieldImage))
	} else {
		out.ImageMarkers = append(out.ImageMarkers, d.markers(MediaFieldImage)...)
	}
	if len(d.Gallery) > 0 {
		for _, g := range d.Gallery {
			if g != nil {
				out.ImageMarkers = append(out.ImageMarkers, g.Marker(MediaFieldGallery))
			}
		}
	} else {
		out.ImageMarkers = append(out.ImageMarkers, d.markers(MediaFieldGallery)...)
	}
	out.Image = nil
	out.Gallery = []*FileHandle{}
	return out
}

func (d EventDraft) markers(field string) []ImageMarker {
	var out []ImageMarker
	for _, m := range d.ImageMarkers {
		if m.Field == field {
			out = append(out, m)
		}
	}
	return out
}
