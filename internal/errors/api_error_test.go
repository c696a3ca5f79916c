package errors

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus/companion/internal/timer"
)

func TestInvalidSettingsNamesField(t *testing.T) {
	err := timer.Config{FocusMinutes: 25, ShortBreakMinutes: 5, LongBreakMinutes: 15}.Validate()
	require.Error(t, err)

	apiErr := InvalidSettings(err)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "invalid_settings", apiErr.Code)
	assert.Equal(t, map[string]interface{}{"field": "longBreakInterval", "value": 0}, apiErr.Details)
}

func TestInternalDefaultsMessage(t *testing.T) {
	assert.Equal(t, "internal server error", Internal("").Message)
	assert.Equal(t, "unauthorized", Unauthorized("").Error())
}
