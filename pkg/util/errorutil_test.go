package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestToDomainError(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))

	conflict := NewConflict("email taken", nil)
	wrapped := fmt.Errorf("register: %w", conflict)
	assert.Equal(t, "CONFLICT", ToDomainError(wrapped).Code)

	notFound := ToDomainError(fiber.ErrNotFound)
	assert.Equal(t, http.StatusNotFound, notFound.HTTPStatus)
	assert.Equal(t, "NOT_FOUND", notFound.Code)

	unprocessable := ToDomainError(fiber.NewError(http.StatusUnprocessableEntity, "bad body"))
	assert.Equal(t, "VALIDATION_FAILED", unprocessable.Code)
	assert.Equal(t, "bad body", unprocessable.Message)

	internal := ToDomainError(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, internal.HTTPStatus)
	assert.Equal(t, "internal server error", internal.Message)
	assert.EqualError(t, internal, "internal server error: boom")
}
