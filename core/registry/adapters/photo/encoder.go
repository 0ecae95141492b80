// Copyright 2025 Nhat-Nguyen Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package photo

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"

	"registry/core/registry/domain"
)

// Encoder turns an uploaded image into a base64 data URI. It trusts nothing
// the transport declared: the byte count is enforced while reading and the
// MIME type is sniffed from the content.
type Encoder struct {
	maxBytes int64
}

type EncoderOption func(*Encoder)

// WithMaxBytes overrides the upload size cap.
func WithMaxBytes(n int64) EncoderOption {
	return func(e *Encoder) {
		if n > 0 {
			e.maxBytes = n
		}
	}
}

func NewEncoder(opts ...EncoderOption) *Encoder {
	e := &Encoder{maxBytes: domain.MaxPhotoBytes}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Encoder) Encode(ctx context.Context, upload *domain.PhotoUpload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// read one byte past the cap so oversize is detectable without
	// buffering an unbounded stream
	data, err := io.ReadAll(io.LimitReader(upload.Reader, e.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("photo: read %q: %w", upload.Filename, err)
	}
	if int64(len(data)) > e.maxBytes {
		return "", domain.ErrPhotoTooLarge
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	mime := http.DetectContentType(data)
	if !domain.AllowedPhotoTypes[mime] {
		return "", domain.ErrPhotoUnsupported
	}

	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
