package embed

import "testing"

// TestSuppressMentions_NoPolicyNoBroadcast checks the constructed deny-all policy
func TestSuppressMentions_NoPolicyNoBroadcast(t *testing.T) {
	got := SuppressMentions(nil, "hello")
	want := MentionPolicy{Everyone: MentionDeny, Roles: MentionDeny, Users: MentionDeny}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

// TestSuppressMentions_NoPolicyWithBroadcast checks broadcast stays at its default
func TestSuppressMentions_NoPolicyWithBroadcast(t *testing.T) {
	for _, content := range []string{"hello @everyone", "ping @here now"} {
		got := SuppressMentions(nil, content)
		want := MentionPolicy{Everyone: MentionDefault, Roles: MentionDeny, Users: MentionDeny}
		if got != want {
			t.Errorf("content %q: expected %+v, got %+v", content, want, got)
		}
	}
}

// TestSuppressMentions_ExplicitPolicy checks explicit allows are downgraded
func TestSuppressMentions_ExplicitPolicy(t *testing.T) {
	policy := &MentionPolicy{
		Everyone: MentionAllow,
		Roles:    MentionAllow,
		Users:    MentionDefault,
	}

	got := SuppressMentions(policy, "no broadcast token here")
	if got.Everyone != MentionDeny {
		t.Error("broadcast allowance should be revoked without a broadcast token")
	}
	if got.Roles != MentionDeny {
		t.Error("explicit role allowance should be downgraded to deny")
	}
	if got.Users != MentionDefault {
		t.Error("a default user setting should pass through untouched")
	}
	// Caller's policy is not mutated
	if policy.Everyone != MentionAllow {
		t.Error("input policy was mutated")
	}
}

// TestSuppressMentions_ExplicitPolicyWithBroadcast checks deliberate broadcasts survive
func TestSuppressMentions_ExplicitPolicyWithBroadcast(t *testing.T) {
	policy := &MentionPolicy{Everyone: MentionAllow}

	got := SuppressMentions(policy, "attention @everyone")
	if got.Everyone != MentionAllow {
		t.Error("broadcast allowance should survive when content carries the token")
	}
}

// TestSuppressMentions_EmptyContent checks missing content counts as no broadcast token
func TestSuppressMentions_EmptyContent(t *testing.T) {
	policy := &MentionPolicy{Everyone: MentionAllow}

	got := SuppressMentions(policy, "")
	if got.Everyone != MentionDeny {
		t.Error("broadcast allowance should be revoked when no content was supplied")
	}
}
