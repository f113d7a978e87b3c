package errors_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	svcErr "github.com/oggyb/picfeed/internal/errors"
)

func TestMap(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want svcErr.Kind
	}{
		{"not found", gorm.ErrRecordNotFound, svcErr.KindNotFound},
		{"wrapped not found", fmt.Errorf("lookup: %w", gorm.ErrRecordNotFound), svcErr.KindNotFound},
		{"duplicate", gorm.ErrDuplicatedKey, svcErr.KindConflict},
		{"deadline", context.DeadlineExceeded, svcErr.KindInternal},
		{"typed passthrough", svcErr.Forbidden("nope"), svcErr.KindForbidden},
		{"unknown", fmt.Errorf("boom"), svcErr.KindInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, svcErr.KindOf(svcErr.Map(tc.in)))
		})
	}
	assert.NoError(t, svcErr.Map(nil))
}

func TestInternalHidesCause(t *testing.T) {
	err := svcErr.Map(fmt.Errorf("dial tcp 10.0.0.1: refused"))
	assert.Equal(t, "internal server error", svcErr.Message(err))
	assert.ErrorContains(t, err.(*svcErr.Error).Err, "refused")
}

func TestHTTPStatusRoundTrip(t *testing.T) {
	for _, k := range []svcErr.Kind{
		svcErr.KindUnauthorized, svcErr.KindForbidden, svcErr.KindNotFound,
		svcErr.KindConflict, svcErr.KindValidation, svcErr.KindInternal,
	} {
		assert.Equal(t, k, svcErr.KindForStatus(svcErr.HTTPStatus(k)), k)
	}
	assert.Equal(t, http.StatusConflict, svcErr.HTTPStatus(svcErr.KindConflict))
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("like: %w", svcErr.AlreadyExists("already liked"))
	assert.True(t, svcErr.IsKind(err, svcErr.KindConflict))
	assert.False(t, svcErr.IsKind(err, svcErr.KindValidation))
	assert.False(t, svcErr.IsKind(nil, svcErr.KindInternal))
	assert.Equal(t, "already liked", svcErr.Message(err))
}
