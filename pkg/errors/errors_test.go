package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, publicMsg: "validation failed", detailsOK: true},
		{code: CodeUnauthorized, publicMsg: "authentication required"},
		{code: CodeNotFound, publicMsg: "resource not found"},
		{code: CodeInternal, publicMsg: "internal error", retryable: true},
		{code: CodeDependency, publicMsg: "remote service unavailable", retryable: true, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.PublicMessage != "internal error" {
		t.Fatalf("expected internal metadata, got %q", meta.PublicMessage)
	}
}

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status int
		code   Code
	}{
		{http.StatusUnauthorized, CodeUnauthorized},
		{http.StatusForbidden, CodeUnauthorized},
		{http.StatusNotFound, CodeNotFound},
		{http.StatusBadRequest, CodeValidation},
		{http.StatusInternalServerError, CodeDependency},
		{http.StatusBadGateway, CodeDependency},
	}
	for _, tt := range tests {
		if got := FromStatus(tt.status); got != tt.code {
			t.Fatalf("status %d expected %s got %s", tt.status, tt.code, got)
		}
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	detail := map[string]any{"field": "foo"}
	base.WithDetails(detail)
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeDependency, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeUnauthorized, "no entry")
	if got := As(err); got == nil || got.Code() != CodeUnauthorized {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(CodeUnauthorized, "invalid username or password")); got != "invalid username or password" {
		t.Fatalf("unexpected user message %q", got)
	}
	if got := UserMessage(stdErrors.New("plain")); got != "plain" {
		t.Fatalf("unexpected fallback message %q", got)
	}
	if UserMessage(nil) != "" {
		t.Fatalf("nil error should yield empty message")
	}
}

func TestUserMessageFallsBackToPublicMessage(t *testing.T) {
	if got := UserMessage(New(CodeDependency, "")); got != "remote service unavailable" {
		t.Fatalf("expected public message fallback, got %q", got)
	}
	if got := UserMessage(New(CodeUnauthorized, "")); got != "authentication required" {
		t.Fatalf("expected public message fallback, got %q", got)
	}
}

func TestDumpFlattensChain(t *testing.T) {
	cause := stdErrors.New("boom")
	err := Wrap(CodeDependency, cause, "fetching products")

	d := Dump(err)
	if d.Code != CodeDependency {
		t.Fatalf("unexpected code %s", d.Code)
	}
	if d.TopMessage != err.Error() {
		t.Fatalf("unexpected top message %q", d.TopMessage)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected two chain entries, got %d: %v", len(d.Chain), d.Chain)
	}

	if got := Dump(nil); got.TopMessage != "" || got.Chain != nil {
		t.Fatalf("nil error should yield empty dump, got %+v", got)
	}
}

func TestDumpGatesDetailsOnMetadata(t *testing.T) {
	allowed := New(CodeValidation, "bad payload").WithDetails(map[string]string{"price": "must be at least 0"})
	if d := Dump(allowed); d.Details == nil {
		t.Fatalf("validation details should be exposed")
	}

	// Unauthorized metadata disallows details, so the dump drops them.
	denied := New(CodeUnauthorized, "no entry").WithDetails("secret context")
	if d := Dump(denied); d.Details != nil {
		t.Fatalf("unauthorized details should be withheld, got %v", d.Details)
	}
}
