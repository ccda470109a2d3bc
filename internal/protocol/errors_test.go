package protocol

import "testing"

func TestIsKnownCode(t *testing.T) {
	for _, c := range []string{"", ErrBadRequest, ErrNotFound, ErrMapInvalid, ErrInternal} {
		if !IsKnownCode(c) {
			t.Fatalf("expected known code: %q", c)
		}
	}
	for _, c := range []string{"E_NOT_DEFINED", "E_BUSY", "bad_request"} {
		if IsKnownCode(c) {
			t.Fatalf("expected unknown code rejected: %q", c)
		}
	}
}
