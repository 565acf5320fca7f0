package errs_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openpaas/tenantd/internal/errs"
)

func TestWrap(t *testing.T) {
	base := errors.New("base failure")
	ext := errors.New("underlying cause")

	t.Run("both errors stay matchable", func(t *testing.T) {
		err := errs.Wrap(base, ext)

		assert.ErrorIs(t, err, base)
		assert.ErrorIs(t, err, ext)
		assert.Equal(t, "base failure: underlying cause", err.Error())
	})

	t.Run("nil ext returns base", func(t *testing.T) {
		assert.Equal(t, base, errs.Wrap(base, nil))
	})
}

func TestWrapf(t *testing.T) {
	base := errors.New("base failure")

	err := errs.Wrapf(base, "extra detail")

	assert.ErrorIs(t, err, base)
	assert.Equal(t, "base failure: extra detail", err.Error())
}
