package apierrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

// APIErrorsSuite tests the client error primitives.
//
// Justification: every failure the gateway or session manager surfaces flows
// through this package, so invariants like "wrapped errors preserve the
// original code" and "errors.Is matches by code" must hold.
type APIErrorsSuite struct {
	suite.Suite
}

func TestAPIErrorsSuite(t *testing.T) {
	suite.Run(t, new(APIErrorsSuite))
}

func (s *APIErrorsSuite) TestErrorInterface() {
	s.Run("returns message when present", func() {
		err := &Error{Code: CodeRequest, Message: "Order not found"}
		s.Equal("Order not found", err.Error())
	})

	s.Run("returns code when message is empty", func() {
		err := &Error{Code: CodeSessionExpired}
		s.Equal("session_expired", err.Error())
	})
}

func (s *APIErrorsSuite) TestIsMatching() {
	s.Run("matches by code only", func() {
		err1 := &Error{Code: CodeRequest, Message: "first"}
		err2 := &Error{Code: CodeRequest, Message: "second"}
		s.True(err1.Is(err2))
	})

	s.Run("does not match different codes", func() {
		err1 := &Error{Code: CodeRequest}
		err2 := &Error{Code: CodeSessionExpired}
		s.False(err1.Is(err2))
	})

	s.Run("works with errors.Is through chain", func() {
		inner := &Error{Code: CodeSessionExpired, Message: "original"}
		wrapped := &Error{Code: CodeInternal, Message: "wrapped", Err: inner}
		target := &Error{Code: CodeSessionExpired}
		s.True(errors.Is(wrapped, target))
	})
}

func (s *APIErrorsSuite) TestWrap() {
	s.Run("preserves original code when wrapping a coded error", func() {
		original := New(CodeSessionExpired, "refresh rejected")
		wrapped := Wrap(original, CodeInternal, "gateway failure")

		var apiErr *Error
		s.Require().True(errors.As(wrapped, &apiErr))
		s.Equal(CodeSessionExpired, apiErr.Code)
		s.Equal("gateway failure", apiErr.Message)
	})

	s.Run("uses provided code when wrapping a plain error", func() {
		original := errors.New("connection reset")
		wrapped := Wrap(original, CodeRequest, "request failed")

		var apiErr *Error
		s.Require().True(errors.As(wrapped, &apiErr))
		s.Equal(CodeRequest, apiErr.Code)
		s.True(errors.Is(wrapped, original))
	})
}

func (s *APIErrorsSuite) TestHasCode() {
	s.Run("true for matching code", func() {
		s.True(HasCode(New(CodeTimeout, "timed out"), CodeTimeout))
	})

	s.Run("false for plain error", func() {
		s.False(HasCode(errors.New("boom"), CodeTimeout))
	})

	s.Run("false for nil", func() {
		s.False(HasCode(nil, CodeTimeout))
	})
}

func (s *APIErrorsSuite) TestMessage() {
	s.Run("uses the carried message", func() {
		s.Equal("Invalid email or password", Message(New(CodeBadCredentials, "Invalid email or password")))
	})

	s.Run("falls back to generic text for raw errors", func() {
		s.Equal("Something went wrong. Please try again.", Message(errors.New("dial tcp: i/o timeout")))
	})
}
