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

package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"

	"registry/modules/middleware/problem"

	"golang.org/x/time/rate"
)

type Config struct {
	// RPS is the sustained request rate allowed per client.
	RPS float64 `env:"RPS" envDefault:"20"`

	// Burst is the instantaneous burst allowed per client.
	Burst int `env:"BURST" envDefault:"40"`

	Disabled bool `env:"DISABLED"`
}

// clientLimiter pairs a token bucket with its last-seen time so idle
// entries can be evicted.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Middleware returns a per-remote-IP token bucket limiter. Exceeding the
// budget renders a 429 problem document.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	if cfg.Disabled || cfg.RPS <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.RPS)
	}

	var (
		mu      sync.Mutex
		clients = make(map[string]*clientLimiter)
	)

	limiterFor := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		now := time.Now()
		if cl, ok := clients[key]; ok {
			cl.lastSeen = now
			return cl.limiter
		}

		// Opportunistic eviction keeps the map from growing unbounded.
		for k, cl := range clients {
			if now.Sub(cl.lastSeen) > 10*time.Minute {
				delete(clients, k)
			}
		}

		cl := &clientLimiter{
			limiter:  rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
			lastSeen: now,
		}
		clients[key] = cl
		return cl.limiter
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				key = r.RemoteAddr
			}

			if !limiterFor(key).Allow() {
				problem.Write(w, problem.TooManyRequests("rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
