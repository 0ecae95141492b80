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
package redis

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/rueidishook"
)

var _ rueidishook.Hook = (*slogHook)(nil)

// slogHook logs every command name (never arguments, which may carry payload
// data) together with its duration and outcome at debug level.
type slogHook struct {
	log *slog.Logger
}

func withCommandLogging(cli rueidis.Client, log *slog.Logger) rueidis.Client {
	return rueidishook.WithHook(cli, &slogHook{log: log})
}

func (h *slogHook) log1(ctx context.Context, cmd rueidis.Completed, start time.Time, err error) {
	name := ""
	if c := cmd.Commands(); len(c) > 0 {
		name = c[0]
	}
	h.log.DebugContext(ctx, "redis command",
		slog.String("command", name),
		slog.Duration("took", time.Since(start)),
		slog.Any("error", err),
	)
}

func (h *slogHook) Do(client rueidis.Client, ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	start := time.Now()
	resp := client.Do(ctx, cmd)
	h.log1(ctx, cmd, start, resp.Error())
	return resp
}

func (h *slogHook) DoMulti(client rueidis.Client, ctx context.Context, multi ...rueidis.Completed) []rueidis.RedisResult {
	start := time.Now()
	resps := client.DoMulti(ctx, multi...)
	h.log.DebugContext(ctx, "redis pipeline",
		slog.Int("commands", len(multi)),
		slog.Duration("took", time.Since(start)),
	)
	return resps
}

func (h *slogHook) DoCache(client rueidis.Client, ctx context.Context, cmd rueidis.Cacheable, ttl time.Duration) rueidis.RedisResult {
	return client.DoCache(ctx, cmd, ttl)
}

func (h *slogHook) DoMultiCache(client rueidis.Client, ctx context.Context, multi ...rueidis.CacheableTTL) []rueidis.RedisResult {
	return client.DoMultiCache(ctx, multi...)
}

func (h *slogHook) Receive(client rueidis.Client, ctx context.Context, subscribe rueidis.Completed, fn func(msg rueidis.PubSubMessage)) error {
	return client.Receive(ctx, subscribe, fn)
}

func (h *slogHook) DoStream(client rueidis.Client, ctx context.Context, cmd rueidis.Completed) rueidis.RedisResultStream {
	return client.DoStream(ctx, cmd)
}

func (h *slogHook) DoMultiStream(client rueidis.Client, ctx context.Context, multi ...rueidis.Completed) rueidis.MultiRedisResultStream {
	return client.DoMultiStream(ctx, multi...)
}
