package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeConcurrencyConflict, http.StatusConflict},
		{ErrCodeLimitExceeded, http.StatusTooManyRequests},
		{ErrCodeSubscriptionBlocked, http.StatusForbidden},
		{ErrCodePlanConfigMissing, http.StatusServiceUnavailable},
		{ErrCodeUnknownAction, http.StatusBadRequest},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{"ERR_INVALID_DATE_RANGE", http.StatusBadRequest},
		{"ERR_MISSING_PRACTICE", http.StatusBadRequest},
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	tests := map[string]string{
		"NOT_FOUND":           ErrCodeNotFound,
		"UNAUTHORIZED":        ErrCodeUnauthorized,
		"FORBIDDEN":           ErrCodeForbidden,
		"PLAN_CONFIG_MISSING": ErrCodePlanConfigMissing,
		"LIMIT_EXCEEDED":      ErrCodeLimitExceeded,
		"INVALID_PLAN_CODE":   ErrCodeInvalidPlanCode,
		"VALIDATION_ERROR":    ErrCodeValidation,
		ErrCodeNotFound:       ErrCodeNotFound,
		"":                    ErrCodeUnknown,
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeErrorCode(in), in)
	}
}

func TestErrorCodesHaveStatus(t *testing.T) {
	for code, status := range ErrorCodeHTTPStatus {
		assert.GreaterOrEqual(t, status, 400, code)
		assert.Equal(t, "ERR_", code[:4], code)
	}
}

func TestLimitExceededResponse_JSON(t *testing.T) {
	resp := NewLimitExceededResponse("Plan limit reached", "req-1", LimitDetail{
		Key: "appointmentsPerMonth", Limit: 20, Usage: 20, Requested: 1,
	})

	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, false, body["success"])
	errInfo := body["error"].(map[string]any)
	assert.Equal(t, ErrCodeLimitExceeded, errInfo["code"])
	assert.Equal(t, "req-1", errInfo["request_id"])
	limit := errInfo["limit"].(map[string]any)
	assert.Equal(t, "appointmentsPerMonth", limit["key"])
	assert.EqualValues(t, 20, limit["limit"])
	assert.NotContains(t, errInfo, "details")
}

func TestValidationErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "req-2", []ValidationDetail{
		{Field: "code", Message: "This field is required"},
	})
	assert.False(t, resp.Success)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "code", resp.Error.Details[0].Field)
	assert.Nil(t, resp.Error.Limit)
}

func TestSuccessResponses(t *testing.T) {
	ok := NewSuccessResponse(map[string]int{"n": 1})
	assert.True(t, ok.Success)
	assert.Nil(t, ok.Error)
	assert.Nil(t, ok.Meta)

	list := NewListResponse([]string{"FREE", "STANDARD"}, 2)
	require.NotNil(t, list.Meta)
	assert.EqualValues(t, 2, list.Meta.Total)
}
