package auth

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/portal-gateway/internal/domain"
)

func TestUserDataRoundTrip(t *testing.T) {
	in := &domain.UserSummary{ID: "42", Name: "Júlia Souza, 2º ano", Email: "julia@escola.br", Role: "aluno"}

	encoded, err := EncodeUserData(in)
	require.NoError(t, err)
	assert.NotContains(t, encoded, `"`)
	assert.NotContains(t, encoded, ";")
	assert.NotContains(t, encoded, " ")

	out, err := ParseUserData(encoded)
	require.NoError(t, err)
	assert.Equal(t, in.Role, out.Role)
	assert.Equal(t, in.Name, out.Name)
	assert.Equal(t, in, out)
}

func TestParseUserDataAcceptsQueryEscapedCookies(t *testing.T) {
	raw := url.QueryEscape(`{"role":"teacher","name":"Prof"}`)

	out, err := ParseUserData(raw)
	require.NoError(t, err)
	assert.Equal(t, "teacher", out.Role)
	assert.Equal(t, "Prof", out.Name)
}

func TestParseUserDataRejectsGarbage(t *testing.T) {
	_, err := ParseUserData("")
	assert.ErrorIs(t, err, ErrEmptyUserData)

	_, err = ParseUserData("%7Bnot-json")
	assert.Error(t, err)

	_, err = ParseUserData("%zz")
	assert.Error(t, err)
}
