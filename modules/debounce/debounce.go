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
package debounce

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid successive submissions of a value: fn runs once,
// with the most recent value, after input has been quiet for the configured
// period. A submission arriving before the quiet period elapses resets the
// timer, so fn never observes a stale value.
//
// Submit, Cancel and Close are safe for concurrent use. fn runs on a timer
// goroutine and must synchronize its own state.
type Debouncer[T any] struct {
	quiet time.Duration
	fn    func(T)

	mu     sync.Mutex
	latest T
	gen    uint64
	timer  *time.Timer
	closed bool
}

// New builds a Debouncer invoking fn after quiet of inactivity.
func New[T any](quiet time.Duration, fn func(T)) *Debouncer[T] {
	if quiet <= 0 {
		quiet = 300 * time.Millisecond
	}
	return &Debouncer[T]{quiet: quiet, fn: fn}
}

// Submit records v as the latest value and (re)starts the quiet timer.
func (d *Debouncer[T]) Submit(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.latest = v
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, func() { d.fire(gen) })
}

// fire runs fn(latest) unless a newer submission or a cancellation has
// superseded gen in the meantime.
func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if d.closed || gen != d.gen {
		d.mu.Unlock()
		return
	}
	v := d.latest
	d.mu.Unlock()

	d.fn(v)
}

// Cancel drops any pending invocation without running it.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
	}
}

// Close cancels any pending invocation and rejects further submissions.
func (d *Debouncer[T]) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
	}
}
