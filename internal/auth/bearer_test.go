package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/pressroom/pressroom/internal/model"
)

func TestExtractBearer(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		header string
		want   string
		wantOK bool
	}{
		{name: "valid", header: "Bearer abc.def.ghi", want: "abc.def.ghi", wantOK: true},
		{name: "empty", header: ""},
		{name: "no token", header: "Bearer "},
		{name: "lowercase scheme", header: "bearer abc"},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz"},
		{name: "extra segment", header: "Bearer abc def"},
		{name: "raw token", header: "abc.def.ghi"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, ok := ExtractBearer(tc.header)
			if ok != tc.wantOK || got != tc.want {
				t.Errorf("ExtractBearer(%q) = (%q, %v), want (%q, %v)", tc.header, got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

type stubVerifier struct {
	identity *model.Identity
	err      error
	calls    int
}

func (s *stubVerifier) Verify(string) (*model.Identity, error) {
	s.calls++
	return s.identity, s.err
}

func TestResolveOptional(t *testing.T) {
	t.Parallel()

	identity := &model.Identity{ID: "u1", Name: "U", Username: "u"}

	t.Run("valid token", func(t *testing.T) {
		v := &stubVerifier{identity: identity}
		if got := ResolveOptional("Bearer tok", v); got != identity {
			t.Errorf("expected identity, got %+v", got)
		}
	})

	t.Run("invalid token degrades to anonymous", func(t *testing.T) {
		v := &stubVerifier{err: ErrTokenExpired}
		if got := ResolveOptional("Bearer tok", v); got != nil {
			t.Errorf("expected nil identity, got %+v", got)
		}
	})

	t.Run("missing header skips verification", func(t *testing.T) {
		v := &stubVerifier{err: errors.New("should not be called")}
		if got := ResolveOptional("", v); got != nil {
			t.Errorf("expected nil identity, got %+v", got)
		}
		if v.calls != 0 {
			t.Errorf("expected no verification attempt, got %d", v.calls)
		}
	})
}

func TestIdentityContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if IdentityFromContext(ctx) != nil {
		t.Fatal("expected nil identity on empty context")
	}
	if UserIDFromContext(ctx) != "" {
		t.Fatal("expected empty user id on empty context")
	}

	identity := &model.Identity{ID: "u1"}
	ctx = ContextWithIdentity(ctx, identity)
	if IdentityFromContext(ctx) != identity {
		t.Fatal("expected identity from context")
	}
	if UserIDFromContext(ctx) != "u1" {
		t.Fatal("expected user id u1")
	}
}
