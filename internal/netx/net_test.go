package netx

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckResponse(t *testing.T) {
	t.Run("2xx is ok", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusCreated, Body: io.NopCloser(strings.NewReader(""))}
		assert.NoError(t, CheckResponse(resp))
	})

	t.Run("non-2xx -> StatusError", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusConflict, Body: io.NopCloser(strings.NewReader(" {\"error\":\"x\"}\n"))}
		err := CheckResponse(resp)
		var se *StatusError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusConflict, se.Code)
		assert.Equal(t, `{"error":"x"}`, se.Body)
		assert.Contains(t, err.Error(), "409 Conflict")
	})
}

func TestMultipartBody(t *testing.T) {
	body, ct, err := MultipartBody([]FilePart{
		{Name: "original", ContentType: "image/jpeg", Headers: map[string]string{"sha256_checksum": "abc"}, Data: []byte("O")},
		{Name: "thumbnail-small-cover", Data: []byte("T")},
	})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, "http://x", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", ct)

	mr, err := req.MultipartReader()
	require.NoError(t, err)

	p, err := mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "original", p.FormName())
	assert.Equal(t, "image/jpeg", p.Header.Get("Content-Type"))
	assert.Equal(t, "abc", p.Header.Get("sha256_checksum"))
	b, _ := io.ReadAll(p)
	assert.Equal(t, []byte("O"), b)

	p, err = mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "thumbnail-small-cover", p.FormName())
	assert.Equal(t, "application/octet-stream", p.Header.Get("Content-Type"))

	_, err = mr.NextPart()
	assert.ErrorIs(t, err, io.EOF)
}
