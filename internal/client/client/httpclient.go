package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/dmitrijs2005/photovault/internal/dto"
	"github.com/dmitrijs2005/photovault/internal/netx"
	"github.com/google/uuid"
)

type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewHTTPClient(baseURL, token string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+c.token)
	}
	return req, nil
}

// do sends req and maps failures; conflict is the sentinel used for 409.
func (c *HTTPClient) do(req *http.Request, conflict error) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%s %s: %w: %w", req.Method, req.URL.Path, ErrUnavailable, err)
	}

	if err := netx.CheckResponse(resp); err != nil {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, mapStatus(err, conflict))
	}
	return resp, nil
}

func mapStatus(err error, conflict error) error {
	var se *netx.StatusError
	if !errors.As(err, &se) {
		return err
	}

	var sentinel error
	switch {
	case se.Code == http.StatusUnauthorized, se.Code == http.StatusForbidden:
		sentinel = common.ErrUnauthorized
	case se.Code == http.StatusNotFound:
		sentinel = common.ErrNotFound
	case se.Code == http.StatusConflict && conflict != nil:
		sentinel = conflict
	case se.Code == http.StatusUnprocessableEntity:
		sentinel = common.ErrIntegrity
	case se.Code == http.StatusBadRequest, se.Code == http.StatusRequestEntityTooLarge:
		sentinel = common.ErrValidation
	case se.Code >= 500:
		sentinel = ErrUnavailable
	default:
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, in, out any, conflict error) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.do(req, conflict)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/ping", nil)
	if err != nil {
		return err
	}
	resp, err := c.do(req, nil)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

// ListMetadata returns the caller's Synced records; since is sent with
// second precision.
func (c *HTTPClient) ListMetadata(ctx context.Context, since *time.Time) ([]dto.FileMetadata, error) {
	path := "/files/metadata"
	if since != nil {
		path += "?" + url.Values{"from": {strconv.FormatInt(since.Unix(), 10)}}.Encode()
	}

	var out []dto.FileMetadata
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out, nil); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) PushMetadata(ctx context.Context, ownerID uuid.UUID, files []dto.FileMetadata) (int, error) {
	var out dto.PushMetadataResponse
	req := dto.FilesUploadRequest{OwnerID: ownerID, Files: files}
	if err := c.doJSON(ctx, http.MethodPost, "/files/metadata", req, &out, nil); err != nil {
		return 0, err
	}
	return out.Created, nil
}

func (c *HTTPClient) Upload(ctx context.Context, fileID uuid.UUID, parts []UploadPart) (*dto.UploadResponse, error) {
	fps := make([]netx.FilePart, 0, len(parts))
	for _, p := range parts {
		fps = append(fps, netx.FilePart{
			Name:        p.Name,
			ContentType: p.ContentType,
			Headers:     map[string]string{common.ChecksumHeaderName: p.Checksum},
			Data:        p.Data,
		})
	}
	body, contentType, err := netx.MultipartBody(fps)
	if err != nil {
		return nil, fmt.Errorf("encode parts: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/files/"+fileID.String()+"/data", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.do(req, common.ErrAlreadySynced)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out dto.UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	return &out, nil
}

func (c *HTTPClient) Download(ctx context.Context, fileID uuid.UUID, variant string) ([]byte, string, error) {
	path := "/files/" + fileID.String() + "/data"
	if variant != "" {
		path += "?" + url.Values{"variant": {variant}}.Encode()
	}

	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.do(req, nil)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// GetKeys returns the escrowed private key blob, or nil when none is stored.
func (c *HTTPClient) GetKeys(ctx context.Context) (*string, error) {
	var out dto.KeysResponse
	if err := c.doJSON(ctx, http.MethodGet, "/auth/keys", nil, &out, nil); err != nil {
		return nil, err
	}
	return out.Value, nil
}

func (c *HTTPClient) SaveKeys(ctx context.Context, privateKeyBlob, publicKeyPEM string) error {
	req := dto.SaveKeysRequest{PrivateKey: privateKeyBlob, PublicKey: publicKeyPEM}
	return c.doJSON(ctx, http.MethodPost, "/auth/keys", req, nil, common.ErrKeysExist)
}
