package services

import (
	"strings"
)

const (
	// Suffix marking an email we invented because the auth provider did not
	// supply one; such rows are skipped by duplicate detection and their
	// email may be overwritten once a real one shows up.
	placeholderEmailSuffix = "@auth.placeholder"

	// Id shape prefixes. Provider-issued tokens arrive as "user_..." opaque
	// strings; locally synthesized ids are "email_..." so the two origins
	// stay distinguishable.
	providerIDPrefix    = "user_"
	synthesizedIDPrefix = "email_"

	// Keeps synthesized ids inside the VARCHAR(255) id column.
	synthesizedIDMaxLen = 200
)

// PlaceholderEmail derives the stand-in email for an identity that has not
// yet been linked to a real address.
func PlaceholderEmail(providerID string) string {
	return providerID + placeholderEmailSuffix
}

// IsPlaceholderEmail reports whether an email is a locally invented stand-in.
func IsPlaceholderEmail(email string) bool {
	return strings.HasSuffix(email, placeholderEmailSuffix)
}

// SynthesizeID derives a deterministic identity id from an email address,
// used to pre-provision a person before their first login. The mapping is
// lossy: distinct adversarial emails (e.g. "a.b@x" vs "a_b@x") can collide.
// A collision surfaces as a unique-constraint conflict on insert rather
// than silent sharing, because email itself stays unique.
func SynthesizeID(email string) string {
	s := strings.ToLower(email)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9',
			r == '@', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	out := b.String()
	out = strings.ReplaceAll(out, "@", "_at_")
	out = strings.ReplaceAll(out, ".", "_dot_")
	if len(out) > synthesizedIDMaxLen {
		out = out[:synthesizedIDMaxLen]
	}
	return synthesizedIDPrefix + out
}

func isProviderID(id string) bool {
	return strings.HasPrefix(id, providerIDPrefix)
}

func isSynthesizedID(id string) bool {
	return strings.HasPrefix(id, synthesizedIDPrefix)
}
