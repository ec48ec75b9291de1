package model

import (
	"errors"
	"testing"
)

func TestNoMatchWrapsSentinel(t *testing.T) {
	err := NoMatch("literal mismatch", nil, 42)
	if !errors.Is(err, ErrNoMatch) {
		t.Fatal("NoMatch() must satisfy errors.Is(err, ErrNoMatch)")
	}
	var nme *NoMatchError
	if !errors.As(err, &nme) {
		t.Fatal("NoMatch() must be an *NoMatchError")
	}
	if nme.Data != 42 {
		t.Fatalf("expected Data to be preserved, got %v", nme.Data)
	}
}

func TestCodeOfMapping(t *testing.T) {
	cases := []struct {
		err  error
		want ErrorCode
	}{
		{nil, ECNone},
		{ErrNoMatch, ECNoMatch},
		{NoMatch("x", nil, nil), ECNoMatch},
		{ErrUnbound, ECUnbound},
		{ErrKeyConflict, ECKeyConflict},
		{ErrStoreClosed, ECStore},
		{errors.New("something else"), ECUnknown},
	}
	for _, c := range cases {
		if got := CodeOf(c.err); got != c.want {
			t.Fatalf("CodeOf(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}

func TestOtherErrorsPropagateUnchanged(t *testing.T) {
	// ErrUnbound and ErrKeyConflict are not NoMatch and must never be
	// mistaken for it by errors.Is.
	if errors.Is(ErrUnbound, ErrNoMatch) {
		t.Fatal("ErrUnbound must not satisfy errors.Is(_, ErrNoMatch)")
	}
	if errors.Is(ErrKeyConflict, ErrNoMatch) {
		t.Fatal("ErrKeyConflict must not satisfy errors.Is(_, ErrNoMatch)")
	}
}
