package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := New(KindSetup, "cannot bind callback port")
		want := "setup error: cannot bind callback port"
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
	})

	t.Run("with cause", func(t *testing.T) {
		cause := stderrors.New("address already in use")
		err := Wrap(KindSetup, "cannot bind callback port", cause)
		want := "setup error: cannot bind callback port: address already in use"
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
	})

	t.Run("formatted message", func(t *testing.T) {
		err := Newf(KindAPIInvariant, "media key %q has no media object", "3_123")
		want := `api_invariant error: media key "3_123" has no media object`
		if err.Error() != want {
			t.Errorf("Error() = %q, want %q", err.Error(), want)
		}
	})
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := Wrap(KindTransport, "page fetch failed", cause)

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match its cause with errors.Is")
	}
}

func TestIsKind(t *testing.T) {
	err := Wrap(KindTransport, "page fetch failed", stderrors.New("timeout"))

	if !IsKind(err, KindTransport) {
		t.Error("IsKind should match the error's kind")
	}
	if IsKind(err, KindLocalIO) {
		t.Error("IsKind must not match a different kind")
	}
	if IsKind(stderrors.New("plain"), KindTransport) {
		t.Error("IsKind must not match untagged errors")
	}
	if IsKind(nil, KindTransport) {
		t.Error("IsKind must not match nil")
	}
}

func TestIsKindThroughWrapping(t *testing.T) {
	inner := New(KindAuthIntegrity, "state mismatch")
	outer := fmt.Errorf("login failed: %w", inner)

	if !IsKind(outer, KindAuthIntegrity) {
		t.Error("IsKind should see through fmt.Errorf wrapping")
	}
	if KindOf(outer) != KindAuthIntegrity {
		t.Errorf("KindOf = %q, want %q", KindOf(outer), KindAuthIntegrity)
	}
}

func TestKindOfUntagged(t *testing.T) {
	if KindOf(stderrors.New("plain")) != "" {
		t.Error("KindOf should return the empty kind for untagged errors")
	}
	if KindOf(nil) != "" {
		t.Error("KindOf should return the empty kind for nil")
	}
}

func TestChain(t *testing.T) {
	root := stderrors.New("connection refused")
	mid := Wrap(KindTransport, "token request failed", root)
	top := Wrap(KindTokenExchange, "login could not complete", mid)

	chain := Chain(top)
	if len(chain) != 3 {
		t.Fatalf("Chain returned %d lines, want 3", len(chain))
	}
	if chain[0] != "token_exchange error: login could not complete" {
		t.Errorf("unexpected first line: %q", chain[0])
	}
	if chain[1] != "transport error: token request failed" {
		t.Errorf("unexpected second line: %q", chain[1])
	}
	if chain[2] != "connection refused" {
		t.Errorf("unexpected last line: %q", chain[2])
	}
}
