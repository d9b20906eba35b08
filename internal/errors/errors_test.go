package appErrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("op", "bad input"), http.StatusBadRequest},
		{"authorization", Authorization("op", "nope"), http.StatusUnauthorized},
		{"not found", NotFound("op", "gone"), http.StatusNotFound},
		{"campaign not found", NewCampaignNotFound(3), http.StatusNotFound},
		{"wrapped campaign not found", fmt.Errorf("load: %w", NewCampaignSlugNotFound("x")), http.StatusNotFound},
		{"chain", ChainInteraction("op", errors.New("rpc"), "read events"), http.StatusBadGateway},
		{"configuration", Configuration("op", "missing"), http.StatusInternalServerError},
		{"persistence", Persistence("op", errors.New("db"), "save"), http.StatusInternalServerError},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatus(tc.err))
		})
	}
}

func TestIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("wrap: %w", Validation("create", "Missing required fields"))
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, NewCampaignNotFound(1), ErrNotFound)

	cause := errors.New("connection reset")
	assert.ErrorIs(t, Persistence("update", cause, "save"), cause)
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "Campaign not found", PublicMessage(NewCampaignNotFound(7)))
	assert.Equal(t, "Missing required fields", PublicMessage(Validation("create", "Missing required fields")))
	assert.Equal(t, "Failed to save", PublicMessage(Persistence("create", errors.New("pq: secret detail"), "Failed to save")))
	assert.Equal(t, "internal server error", PublicMessage(errors.New("pq: secret detail")))
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "approve: Unauthorized", Authorization("approve", "Unauthorized").Error())
	assert.Equal(t, "save: db down", Persistence("save", errors.New("db down"), "").Error())
	assert.Equal(t, "x: read: eof", ChainInteraction("x", errors.New("eof"), "read").Error())
}
