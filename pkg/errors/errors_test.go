package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeToHTTPStatus(t *testing.T) {
	cases := map[ErrorCode]int{
		CodeInvalidParam:        http.StatusBadRequest,
		CodePromptEmpty:         http.StatusBadRequest,
		CodeTokenExpired:        http.StatusUnauthorized,
		CodePermissionDenied:    http.StatusForbidden,
		CodeUpstreamRateLimited: http.StatusTooManyRequests,
		CodeModelLoading:        http.StatusServiceUnavailable,
		CodeImageProviderError:  http.StatusBadGateway,
		CodeDatabaseError:       http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, New(code, "x").HTTPStatus, "code %s", code)
	}
}

func TestWithDetailDoesNotMutatePredefined(t *testing.T) {
	e := ErrPromptEmpty.WithDetail("blank")
	assert.Equal(t, "blank", e.Detail)
	assert.Empty(t, ErrPromptEmpty.Detail)
}

func TestAsAppErrorUnwrapsChain(t *testing.T) {
	base := Wrap(stderrors.New("boom"), CodeOptimizerError, "optimizer down")
	wrapped := fmt.Errorf("calling optimizer: %w", base)

	assert.True(t, IsAppError(wrapped))
	got := AsAppError(wrapped)
	assert.Equal(t, CodeOptimizerError, got.Code)

	unknown := AsAppError(stderrors.New("plain"))
	assert.Equal(t, CodeUnknown, unknown.Code)
	assert.Equal(t, http.StatusInternalServerError, unknown.HTTPStatus)
}
