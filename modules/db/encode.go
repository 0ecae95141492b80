// Copyright 2025 Nhat-Nguyen Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package db

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EncodeValue serializes a value for storage in a KV backend.
//
//   - string → raw bytes
//   - []byte → as-is
//   - fmt.Stringer → String()
//   - everything else → JSON
func EncodeValue(v any) ([]byte, error) {
	switch x := v.(type) {
	case nil:
		return nil, errors.New("kv: nil values are not allowed")
	case string:
		return []byte(x), nil
	case []byte:
		return x, nil
	case fmt.Stringer:
		return []byte(x.String()), nil
	default:
		return json.Marshal(v)
	}
}
