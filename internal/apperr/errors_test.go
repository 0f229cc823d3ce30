package apperr

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusOf(BadRequest("image is required")))
	assert.Equal(t, http.StatusConflict, StatusOf(errors.Wrap(Conflict("busy"), "submit")))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("boom")))
}

func TestWrapHidesCause(t *testing.T) {
	err := Wrap(errors.New("dial tcp: refused"), http.StatusBadGateway, "recognition unavailable")

	assert.Equal(t, "recognition unavailable", err.Message)
	assert.Contains(t, err.Error(), "dial tcp")
}
