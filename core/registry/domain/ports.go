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

package domain

import (
	"context"
	"errors"
)

// DocumentStore persists the whole registry as one document under one key.
//
// Save is best-effort from the application's point of view: a failed write
// leaves the in-memory state authoritative for the session, and the caller
// reports degraded durability instead of failing the operation.
//
// Load returning an empty Snapshot (no error) is the normal first-run case.
// Implementations must map an unreadable or tampered document to the empty
// Snapshot as well; a malformed document is never fatal.
type DocumentStore interface {
	Save(ctx context.Context, snap Snapshot) error
	Load(ctx context.Context) (Snapshot, error)
}

// PhotoEncoder turns an uploaded image into its textual data-URI form.
// Implementations must verify the actual bytes (size cap, sniffed MIME type)
// rather than trusting the upload's declared headers, and return
// ErrPhotoTooLarge or ErrPhotoUnsupported accordingly.
type PhotoEncoder interface {
	Encode(ctx context.Context, upload *PhotoUpload) (string, error)
}

// Sentinel results of PhotoEncoder.Encode; anything else is a read failure.
var (
	ErrPhotoTooLarge    = errors.New("photo exceeds the size limit")
	ErrPhotoUnsupported = errors.New("photo is not a JPEG or PNG image")
)
