// Package wizard holds the event creation wizard: the draft reducer, the step
// validators, the draft store and the controller that sequences them.
package wizard

import "ticketwizard/internal/domain"

// Merge returns current with every key set in patch replaced. Keys absent from
// patch keep their current value. Nested values are replaced, never merged, and
// no validation happens here.
func Merge(current domain.EventDraft, patch domain.DraftPatch) domain.EventDraft {
	next := current
	if patch.Title.Set {
		next.Title = patch.Title.Value
	}
	if patch.Description.Set {
		next.Description = patch.Description.Value
	}
	if patch.Date.Set {
		next.Date = patch.Date.Value
	}
	if patch.Time.Set {
		next.Time = patch.Time.Value
	}
	if patch.Venue.Set {
		next.Venue = patch.Venue.Value
	}
	if patch.Location.Set {
		next.Location = patch.Location.Value
	}
	if patch.HostName.Set {
		next.HostName = patch.HostName.Value
	}
	if patch.Image.Set {
		next.Image = patch.Image.Value
	}
	if patch.Gallery.Set {
		next.Gallery = patch.Gallery.Value
	}
	if patch.IsVirtual.Set {
		next.IsVirtual = patch.IsVirtual.Value
	}
	if patch.VirtualEventDetails.Set {
		next.VirtualEventDetails = patch.VirtualEventDetails.Value
	}
	if patch.TicketType.Set {
		next.TicketType = patch.TicketType.Value
	}
	if patch.SocialMediaLinks.Set {
		next.SocialMediaLinks = patch.SocialMediaLinks.Value
	}
	return next
}
