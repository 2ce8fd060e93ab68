package request

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInt_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Int
	}{
		{name: "number", body: `{"days": 7}`, want: 7},
		{name: "string", body: `{"days": "15"}`, want: 15},
		{name: "garbage string", body: `{"days": "abc"}`, want: 0},
		{name: "empty string", body: `{"days": ""}`, want: 0},
		{name: "null", body: `{"days": null}`, want: 0},
		{name: "missing", body: `{}`, want: 0},
		{name: "float", body: `{"days": 1.5}`, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v struct {
				Days Int `json:"days"`
			}
			require.NoError(t, json.Unmarshal([]byte(tt.body), &v))
			assert.Equal(t, tt.want, v.Days)
		})
	}
}

func TestDecode_Form(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("action=assign_subscription&days=30"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var v struct {
		Action string `form:"action"`
		Days   Int    `form:"days"`
	}
	require.NoError(t, Decode(req, &v))
	assert.Equal(t, "assign_subscription", v.Action)
	assert.Equal(t, Int(30), v.Days)
}

func TestDecode_JSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"action":"approve"}`))
	req.Header.Set("Content-Type", "application/json")

	var v struct {
		Action string `json:"action"`
	}
	require.NoError(t, Decode(req, &v))
	assert.Equal(t, "approve", v.Action)

	bad := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	require.Error(t, Decode(bad, &v))
}

func TestPageAndQuery(t *testing.T) {
	tests := []struct {
		url      string
		wantPage int
		wantQ    string
	}{
		{url: "/?page=3&q=%20ann%20", wantPage: 3, wantQ: "ann"},
		{url: "/?page=0", wantPage: 1},
		{url: "/?page=x", wantPage: 1},
		{url: "/", wantPage: 1},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.url, nil)
		assert.Equal(t, tt.wantPage, Page(req), tt.url)
		assert.Equal(t, tt.wantQ, Query(req), tt.url)
	}
}
