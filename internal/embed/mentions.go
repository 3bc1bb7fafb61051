package embed

import "regexp"

// MentionSetting is one category's allowance in a mention policy.
// MentionDefault defers to the platform's default for that category and is
// distinct from an explicit allow or deny.
type MentionSetting int

const (
	MentionDefault MentionSetting = iota
	MentionAllow
	MentionDeny
)

// MentionPolicy is the allow-list attached to an outgoing plain message.
type MentionPolicy struct {
	Everyone MentionSetting
	Roles    MentionSetting
	Users    MentionSetting
}

// broadcastMention matches tokens that would notify an entire destination.
var broadcastMention = regexp.MustCompile(`@(everyone|here)`)

// SuppressMentions derives the mention policy for a degraded text delivery.
// Unwrapped text re-exposes field values verbatim, so mention tokens that a
// rich embed would have rendered inert become live; the policy closes that
// hole while leaving deliberate broadcast mentions in raw caller content
// functional.
//
// With a caller-supplied policy: broadcast allowance is forcibly revoked
// unless the raw content itself carries a broadcast token, and an explicit
// allow on roles or users is downgraded to deny. Defaults pass through
// untouched. With no policy supplied, one is built: everything denied,
// except that broadcast stays at its default when the raw content carries a
// broadcast token.
func SuppressMentions(policy *MentionPolicy, content string) MentionPolicy {
	if policy != nil {
		out := *policy
		if content == "" || !broadcastMention.MatchString(content) {
			out.Everyone = MentionDeny
		}
		if out.Roles == MentionAllow {
			out.Roles = MentionDeny
		}
		if out.Users == MentionAllow {
			out.Users = MentionDeny
		}
		return out
	}
	if content != "" && broadcastMention.MatchString(content) {
		return MentionPolicy{Roles: MentionDeny, Users: MentionDeny}
	}
	return MentionPolicy{Everyone: MentionDeny, Roles: MentionDeny, Users: MentionDeny}
}
