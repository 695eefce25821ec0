// Package client is the photovault API client used by the sync engine and
// the key service.
//
// HTTPClient speaks the server's JSON and multipart endpoints and maps
// response codes to the sentinel errors of package common, so callers match
// failures with errors.Is:
//
//   - 401, 403: common.ErrUnauthorized
//   - 404: common.ErrNotFound
//   - 409: common.ErrAlreadySynced on upload, common.ErrKeysExist on key save
//   - 422: common.ErrIntegrity
//   - 400, 413: common.ErrValidation
//   - 5xx and transport failures: ErrUnavailable
package client
