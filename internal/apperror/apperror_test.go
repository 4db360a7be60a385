package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

type statusErr struct {
	status int
	msg    string
}

func (e statusErr) Error() string   { return e.msg }
func (e statusErr) StatusCode() int { return e.status }

func TestError_StatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want int
	}{
		{"unauthenticated", Unauthenticated("no token", nil), http.StatusUnauthorized},
		{"forbidden", Forbidden("nope"), http.StatusForbidden},
		{"configuration", InternalConfiguration("wired wrong"), http.StatusInternalServerError},
		{"upstream", Upstream("boom", errors.New("db down")), http.StatusInternalServerError},
		{"upstream with status", Upstream("missing", nil).WithStatus(http.StatusNotFound), http.StatusNotFound},
		{"not implemented", NotImplemented("later"), http.StatusNotImplemented},
		{"rate limited", RateLimited("slow down"), http.StatusTooManyRequests},
		{"not found", NotFound("no such employee"), http.StatusNotFound},
		{"conflict", Conflict("email taken", nil), http.StatusConflict},
		{"unknown kind", &Error{Kind: "other"}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.StatusCode())
		})
	}
}

func TestStatus(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, Status(errors.New("plain")))
	assert.Equal(t, http.StatusTeapot, Status(statusErr{status: http.StatusTeapot, msg: "tea"}))
	assert.Equal(t, http.StatusForbidden, Status(fmt.Errorf("wrapped: %w", Forbidden("no"))))
	assert.Equal(t, http.StatusInternalServerError, Status(statusErr{status: 200, msg: "ok?"}))
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "Internal Server Error", PublicMessage(errors.New("secret dsn leaked")))
	assert.Equal(t, "boom", PublicMessage(Upstream("boom", errors.New("secret detail"))))
	assert.Equal(t, "teapot", PublicMessage(statusErr{status: http.StatusTeapot, msg: "teapot"}))
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("cause")
	err := Upstream("wrapped", cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "wrapped: cause", err.Error())
}
