package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorPredicatesSeeThroughWrapping(t *testing.T) {
	base := NotFoundError{Resource: "trip"}
	wrapped := fmt.Errorf("delete: %w", base)
	if !IsNotFound(wrapped) {
		t.Fatalf("IsNotFound should match wrapped error")
	}
	if IsValidation(wrapped) {
		t.Fatalf("IsValidation should not match NotFoundError")
	}
	if wrapped.Error() != "delete: trip not found" {
		t.Fatalf("unexpected message %q", wrapped.Error())
	}
}

func TestPreconditionCarriesRedirect(t *testing.T) {
	cause := errors.New("no trip")
	err := fmt.Errorf("start: %w", PreconditionError{Msg: "select a trip", Redirect: "/my-trips", Err: cause})

	pe, ok := AsPrecondition(err)
	if !ok {
		t.Fatalf("expected precondition error")
	}
	if pe.Redirect != "/my-trips" {
		t.Fatalf("redirect = %q", pe.Redirect)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause should be reachable through Unwrap")
	}
}

func TestDefaultMessages(t *testing.T) {
	if (UnauthorizedError{}).Error() != "Not logged in" {
		t.Fatalf("unexpected unauthorized message")
	}
	if (ForbiddenError{Resource: "trip"}).Error() != "not authorized to access trip" {
		t.Fatalf("unexpected forbidden message")
	}
	if (UpstreamError{Service: "overpass"}).Error() != "overpass unavailable" {
		t.Fatalf("unexpected upstream message")
	}
	if !IsUpstream(fmt.Errorf("x: %w", UpstreamError{})) {
		t.Fatalf("IsUpstream should match")
	}
}
