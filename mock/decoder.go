package mock

import "github.com/fwojciec/siteask"

var _ siteask.UploadDecoder = (*UploadDecoder)(nil)

// UploadDecoder is a mock implementation of siteask.UploadDecoder.
type UploadDecoder struct {
	DecodeFn func(filename string, data []byte) (*siteask.DecodedUpload, error)
}

func (d *UploadDecoder) Decode(filename string, data []byte) (*siteask.DecodedUpload, error) {
	return d.DecodeFn(filename, data)
}
