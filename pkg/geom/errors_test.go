package geom

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Format(t *testing.T) {
	err := NewError(ErrCodeMalformedWKB, "bad header", nil)
	assert.Equal(t, "[MALFORMED_WKB] bad header", err.Error())

	wrapped := NewError(ErrCodeMalformedWKT, "invalid X coordinate", errors.New("boom"))
	assert.Equal(t, "[MALFORMED_WKT] invalid X coordinate: boom", wrapped.Error())
}

func TestError_Is(t *testing.T) {
	err := errorf(ErrCodeTypeMismatch, "expected %s", KindPoint)
	assert.True(t, errors.Is(err, ErrTypeMismatch))
	assert.False(t, errors.Is(err, ErrInvalidGeometry))

	outer := fmt.Errorf("scan: %w", err)
	assert.True(t, errors.Is(outer, ErrTypeMismatch))
	assert.Equal(t, ErrCodeTypeMismatch, GetErrorCode(outer))
}

func TestWrapError_KeepsInnerCode(t *testing.T) {
	inner := errorf(ErrCodeInvalidGeometry, "ring too short")
	err := wrapError(inner, ErrCodeMalformedWKB, "member %d", 2)
	assert.Equal(t, ErrCodeInvalidGeometry, err.Code)
	assert.ErrorIs(t, err, inner)

	plain := wrapError(errors.New("io"), ErrCodeMalformedWKB, "read")
	assert.Equal(t, ErrCodeMalformedWKB, plain.Code)
}

func TestGetErrorCode_Foreign(t *testing.T) {
	assert.Equal(t, ErrorCode(""), GetErrorCode(errors.New("other")))
	assert.False(t, IsErrorCode(nil, ErrCodeMalformedWKT))
}
