package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func uploadFile(t *testing.T, router http.Handler, token, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/files/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestFileUploadAndFetch(t *testing.T) {
	router, _, cleanup := setupRouter(t)
	defer cleanup()

	resp := uploadFile(t, router, "", "gear.png", "not really a png")
	require.Equal(t, http.StatusUnauthorized, resp.Code)

	owner := authToken(t, "user-1")
	resp = uploadFile(t, router, owner, "gear.png", "not really a png")
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Data struct {
			URL  string `json:"url"`
			Key  string `json:"key"`
			Name string `json:"name"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, "gear.png", body.Data.Name)
	require.NotEmpty(t, body.Data.Key)
	require.Contains(t, body.Data.URL, body.Data.Key)

	fetch := httptest.NewRequest(http.MethodGet, "/api/v1/files/"+body.Data.Key, nil)
	fetched := httptest.NewRecorder()
	router.ServeHTTP(fetched, fetch)
	require.Equal(t, http.StatusOK, fetched.Code)
	require.Equal(t, "not really a png", fetched.Body.String())
}
