package common_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-register/internal/common"
)

func TestWriteErrorAppError(t *testing.T) {
	rec := httptest.NewRecorder()
	err := common.NewAppError("UNKNOWN_SKU", "unknown sku", http.StatusUnprocessableEntity, errors.New("boom")).
		WithDetails(map[string]any{"sku": "Z"})
	common.WriteError(rec, err)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body struct {
		Error common.ErrorBody `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "UNKNOWN_SKU", body.Error.Code)
	require.Equal(t, map[string]any{"sku": "Z"}, body.Error.Details)
	require.Equal(t, "boom", err.Error())
	require.True(t, common.IsAppError(err))
}

func TestWriteErrorPlainError(t *testing.T) {
	rec := httptest.NewRecorder()
	common.WriteError(rec, errors.New("hidden"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "hidden")
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{name: "peer", remote: "10.0.0.1:1234", want: "10.0.0.1"},
		{name: "bare peer", remote: "10.0.0.9", want: "10.0.0.9"},
		{name: "ipv6 peer", remote: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "real ip", remote: "10.0.0.1:1234", headers: map[string]string{"X-Real-IP": "10.0.0.2"}, want: "10.0.0.2"},
		{name: "forwarded first hop", remote: "10.0.0.1:1234", headers: map[string]string{"X-Forwarded-For": " 10.0.0.3 , 10.0.0.4", "X-Real-IP": "10.0.0.2"}, want: "10.0.0.3"},
		{name: "malformed forwarded", remote: "10.0.0.1:1234", headers: map[string]string{"X-Forwarded-For": "evil\nvalue", "X-Real-IP": "not-an-ip"}, want: "10.0.0.1"},
		{name: "nothing usable", remote: "pipe"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			require.Equal(t, tc.want, common.ClientIP(req))
		})
	}
	require.Empty(t, common.ClientIP(nil))
}
