package api

import (
	"mime/multipart"

	"github.com/dmitrijs2005/photovault/internal/common"
	"github.com/dmitrijs2005/photovault/internal/server/services"
)

// multipartParts adapts a multipart body to services.PartReader.
type multipartParts struct {
	mr *multipart.Reader
}

func (m *multipartParts) NextPart() (*services.Part, error) {
	p, err := m.mr.NextPart()
	if err != nil {
		return nil, err
	}
	return &services.Part{
		Name:        p.FormName(),
		Checksum:    p.Header.Get(common.ChecksumHeaderName),
		ContentType: p.Header.Get("Content-Type"),
		Body:        p,
	}, nil
}
