package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

// -----------------------------------------------------------------------------
// Severity Tests
// -----------------------------------------------------------------------------

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityDebug, "debug"},
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{SeverityCritical, "critical"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.severity.String(); got != tt.want {
				t.Errorf("Severity.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// ComponentError Tests
// -----------------------------------------------------------------------------

func TestComponentError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ComponentError
		want string
	}{
		{
			name: "basic error",
			err:  NewComponentError("mount failed", nil),
			want: "component error: mount failed",
		},
		{
			name: "with cause",
			err:  NewComponentError("mount failed", ErrMissingContainer),
			want: "component error: mount failed: missing container",
		},
		{
			name: "with component and hook",
			err:  NewComponentError("hook failed", nil).WithComponent("c1", "navigation").WithHook("afterMount"),
			want: "component error [component=navigation, id=c1, hook=afterMount]: hook failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestComponentError_Is(t *testing.T) {
	err := NewComponentError("x", ErrAlreadyDestroyed)

	if !Is(err, &ComponentError{}) {
		t.Error("Is(ComponentError{}) = false, want true")
	}
	if !Is(err, ErrAlreadyDestroyed) {
		t.Error("Is(ErrAlreadyDestroyed) = false, want true")
	}
	if Is(err, ErrMissingContainer) {
		t.Error("Is(ErrMissingContainer) = true, want false")
	}
	if IsRetryable(err) {
		t.Error("component errors should not be retryable")
	}
}

// -----------------------------------------------------------------------------
// ListenerError Tests
// -----------------------------------------------------------------------------

func TestListenerError(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := NewListenerError("page:change", "l7", cause)

	want := "listener error [event=page:change, listener=l7]: listener failed: boom"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Error("ListenerError should unwrap to its cause")
	}
	var le *ListenerError
	if !As(Wrap(err, "dispatch"), &le) || le.Event != "page:change" {
		t.Error("As should find the wrapped ListenerError")
	}
}

// -----------------------------------------------------------------------------
// APIError Tests
// -----------------------------------------------------------------------------

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{
			name: "basic error",
			err:  NewAPIError("request failed", nil),
			want: "api error: request failed",
		},
		{
			name: "with request and status",
			err:  NewAPIError("request failed", ErrHTTPStatus).WithRequest("GET", "http://x/users").WithStatus(404),
			want: "api error [method=GET, url=http://x/users, status=404]: request failed: unexpected HTTP status",
		},
		{
			name: "with attempts",
			err:  NewAPIError("request failed", nil).WithRequest("POST", "http://x").WithAttempts(3),
			want: "api error [method=POST, url=http://x, attempts=3]: request failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPIError_Retryable(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{0, false},
		{400, false},
		{404, false},
		{429, false},
		{500, true},
		{503, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			err := NewAPIError("x", nil).WithStatus(tt.status)
			if got := IsRetryable(err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAPIError_OriginalError(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	err := NewAPIError("request failed", cause).WithTimestamp(ts)

	if err.OriginalError() != cause {
		t.Errorf("OriginalError() = %v, want %v", err.OriginalError(), cause)
	}
	if !err.Timestamp.Equal(ts) {
		t.Errorf("Timestamp = %v, want %v", err.Timestamp, ts)
	}
	if !IsUserFacing(err) {
		t.Error("APIError should be user facing")
	}
	if err.Message() != "request failed" {
		t.Errorf("Message() = %q", err.Message())
	}
}

// -----------------------------------------------------------------------------
// ValidationError Tests
// -----------------------------------------------------------------------------

func TestValidationError(t *testing.T) {
	err := NewValidationError("must be positive").WithField("api.retries").WithValue(-1)

	want := "validation error [field=api.retries, value=-1]: must be positive"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !Is(err, ErrInvalidInput) {
		t.Error("ValidationError should match ErrInvalidInput")
	}
	if GetSeverity(err) != SeverityWarning {
		t.Errorf("GetSeverity() = %v, want warning", GetSeverity(err))
	}
}

// -----------------------------------------------------------------------------
// Classification Helper Tests
// -----------------------------------------------------------------------------

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("x"), false},
		{"timeout sentinel", Wrap(ErrTimeout, "waiting"), true},
		{"wrapped 502", fmt.Errorf("outer: %w", NewAPIError("x", nil).WithStatus(502)), true},
		{"forced non-retryable", NewAPIError("x", nil).WithStatus(502).WithRetryable(false), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetSeverity(t *testing.T) {
	if GetSeverity(nil) != SeverityDebug {
		t.Error("nil error should have debug severity")
	}
	if GetSeverity(errors.New("x")) != SeverityError {
		t.Error("unknown errors should default to error severity")
	}
	err := NewComponentError("x", nil).WithSeverity(SeverityCritical)
	if GetSeverity(err) != SeverityCritical {
		t.Errorf("GetSeverity() = %v, want critical", GetSeverity(err))
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "x") != nil {
		t.Error("Wrap(nil) should be nil")
	}
	if Wrapf(nil, "x %d", 1) != nil {
		t.Error("Wrapf(nil) should be nil")
	}
	err := Wrapf(ErrMissingContainer, "mount %s", "nav")
	if err.Error() != "mount nav: missing container" {
		t.Errorf("Wrapf() = %q", err.Error())
	}
	if !Is(err, ErrMissingContainer) {
		t.Error("Wrapf should preserve the chain")
	}
}
