package common

const (
	// AuthorizationHeaderName carries the bearer token on every API request.
	AuthorizationHeaderName = "Authorization"

	// ChecksumHeaderName is the per-part multipart header holding the
	// transfer hash of the part bytes.
	ChecksumHeaderName = "sha256_checksum"

	// OriginalPartName names the multipart part and blob that hold the
	// original asset.
	OriginalPartName = "original"

	// ThumbnailPartPrefix prefixes the multipart part of a derived variant.
	ThumbnailPartPrefix = "thumbnail-"
)
