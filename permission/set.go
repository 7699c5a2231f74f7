package permission

import "strings"

// Capability tags recognized by the back office. Roles bundle these;
// operations declare which of them they require.
const (
	// TagAdmin grants every capability.
	TagAdmin = "admin"
	// TagStaffManagement covers staff and role administration.
	TagStaffManagement = "staff_management"
	// TagContentManagement covers the site content collections.
	TagContentManagement = "content_management"
	// TagBookingManagement covers booking records.
	TagBookingManagement = "booking_management"
	// TagMediaManagement covers gallery, carousel, and video assets.
	TagMediaManagement = "media_management"
	// TagSettingsManagement covers site_settings rows.
	TagSettingsManagement = "settings_management"
)

// DefaultTags returns every capability tag the back office recognizes,
// in registration order.
func DefaultTags() []string {
	return []string{
		TagAdmin,
		TagStaffManagement,
		TagContentManagement,
		TagBookingManagement,
		TagMediaManagement,
		TagSettingsManagement,
	}
}

// PrivilegedTags is the fixed set that marks a session as an admin
// session at all. A permission set intersecting none of these is treated
// as unauthenticated for admin purposes even when the identity exists.
func PrivilegedTags() []string {
	return []string{TagAdmin, TagStaffManagement, TagContentManagement}
}

// Allows reports whether the held permission set satisfies the required
// capability set: true iff the intersection is non-empty. An empty held
// set never passes; an empty required set fails closed.
//
// Allows is deterministic and side-effect free so the HTTP guard and the
// engine can share it verbatim.
func Allows(held []string, required []string) bool {
	if len(held) == 0 || len(required) == 0 {
		return false
	}

	for _, want := range required {
		want = canonical(want)
		if want == "" {
			continue
		}
		for _, have := range held {
			if canonical(have) == want {
				return true
			}
		}
	}
	return false
}

// Normalize trims, lowercases, and deduplicates a tag list, preserving
// first-seen order. Empty entries are dropped.
func Normalize(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = canonical(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func canonical(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}
