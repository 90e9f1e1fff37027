package domain

// Platform identifies the service hosting a virtual event.
type Platform string

const (
	PlatformGoogleMeet Platform = "google-meet"
	PlatformZoom       Platform = "zoom"
	PlatformWhereby    Platform = "whereby"
	PlatformCustom     Platform = "custom"
)

// Valid reports whether p is one of the supported platforms.
func (p Platform) Valid() bool {
	switch p {
	case PlatformGoogleMeet, PlatformZoom, PlatformWhereby, PlatformCustom:
		return true
	}
	return false
}

// VirtualEventDetails holds the meeting data of a virtual event. Which fields
// are meaningful depends on Platform; see Normalize.
// swagger:model VirtualEventDetails
type VirtualEventDetails struct {
	Platform          Platform `json:"platform"`
	MeetingURL        string   `json:"meetingUrl,omitempty"`
	MeetingID         string   `json:"meetingId,omitempty"`
	Passcode          string   `json:"passcode,omitempty"`
	VirtualPassword   string   `json:"virtualPassword,omitempty"`
	RequiresPassword  bool     `json:"requiresPassword,omitempty"`
	EnableWaitingRoom bool     `json:"enableWaitingRoom,omitempty"`
	LockRoom          bool     `json:"lockRoom,omitempty"`
}

// Normalize returns a copy of v keeping only the fields its platform uses.
func (v VirtualEventDetails) Normalize() VirtualEventDetails {
	out := VirtualEventDetails{Platform: v.Platform, MeetingURL: v.MeetingURL}
	switch v.Platform {
	case PlatformZoom:
		out.MeetingID = v.MeetingID
		out.Passcode = v.Passcode
		out.RequiresPassword = v.RequiresPassword
		out.EnableWaitingRoom = v.EnableWaitingRoom
	case PlatformWhereby:
		out.VirtualPassword = v.VirtualPassword
		out.RequiresPassword = v.RequiresPassword
		out.LockRoom = v.LockRoom
		out.EnableWaitingRoom = v.EnableWaitingRoom
	case PlatformCustom:
		out.VirtualPassword = v.VirtualPassword
		out.RequiresPassword = v.RequiresPassword
	}
	return out
}
