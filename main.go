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

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"registry/modules/appconfig"
	"registry/modules/clock"
	"registry/modules/db"
	"registry/modules/db/localfile"
	"registry/modules/db/memory"
	"registry/modules/db/redis"
	hmac_sign "registry/modules/hmac"
	"registry/modules/logging"
	"registry/modules/middleware"
	"registry/modules/middleware/problem"
	"registry/modules/middleware/ratelimit"
	"registry/modules/server"
	"registry/modules/telemetry"

	"registry/core/registry/adapters/persistence"
	"registry/core/registry/adapters/photo"
	"registry/core/registry/adapters/rest"
	"registry/core/registry/domain"

	"github.com/joho/godotenv"
)

func main() {
	exitCode := 0
	defer func() {
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	}()

	// cancel the context when these signals occur
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)
	defer cancel()

	// optional .env for local development; real deployments set the
	// environment directly
	_ = godotenv.Load()

	// manual dependency injection, no need to over-engineer with DI
	// frameworks like Fx or Wire
	appConfig, err := appconfig.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	slog.SetDefault(logging.New(appConfig.Logging))

	clk := clock.RealClock{}

	// --- infrastructure ---

	otelShutdown, err := telemetry.Init(ctx, appConfig.Otel)
	if err != nil {
		slog.ErrorContext(ctx, "telemetry not properly configured", slog.Any("error", err))
		exitCode = 1
		return
	}
	defer func() {
		if err := otelShutdown(ctx); err != nil {
			slog.ErrorContext(ctx, "telemetry shutdown error", slog.Any("error", err))
		}
	}()

	var kv db.KV
	switch appConfig.Storage.Backend {
	case appconfig.BackendRedis:
		redisClient, err := redis.NewRueidisClient(ctx, appConfig.Redis)
		if err != nil {
			slog.ErrorContext(ctx, "redis not properly setup", slog.Any("error", err))
			exitCode = 1
			return
		}
		defer redisClient.Close()
		kv = redis.NewRedisKV(redisClient)
	case appconfig.BackendMemory:
		slog.WarnContext(ctx, "memory backend selected, the registry will not survive a restart")
		kv = memory.NewMemoryKV()
	default:
		fileKV, err := localfile.NewFileKV(appConfig.Storage.File)
		if err != nil {
			slog.ErrorContext(ctx, "localfile storage setup error", slog.Any("error", err))
			exitCode = 1
			return
		}
		kv = fileKV
	}

	registryMetrics, err := telemetry.NewRegistryMetrics(appConfig.Otel.ServiceName)
	if err != nil {
		slog.WarnContext(ctx, "failed to initialize registry metrics, continuing without", slog.Any("error", err))
		registryMetrics = nil
	}

	storeOpts := []persistence.StoreOption{
		persistence.WithStoreMetrics(registryMetrics),
	}
	if appConfig.Seal.Secret != "" {
		signer, err := hmac_sign.NewHMACSigner([]byte(appConfig.Seal.Secret))
		if err != nil {
			slog.ErrorContext(ctx, "seal signer setup error", slog.Any("error", err))
			exitCode = 1
			return
		}
		storeOpts = append(storeOpts, persistence.WithSigner(signer))
	}
	store := persistence.NewStore(kv, appConfig.Storage.Key, storeOpts...)

	// --- application layer ---

	app := domain.NewApp(store, photo.NewEncoder(), clk,
		domain.WithMetrics(registryMetrics))
	defer app.Close()

	if err := app.Bootstrap(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to load the registry document", slog.Any("error", err))
		exitCode = 1
		return
	}

	httpMetrics, err := telemetry.NewHTTPMetrics(appConfig.Otel.ServiceName)
	if err != nil {
		slog.WarnContext(ctx, "failed to initialize HTTP metrics, continuing without metrics", slog.Any("error", err))
		httpMetrics = nil
	}

	registrySvc := rest.NewRegistryService(app)

	srv, err := server.New(
		appConfig.Host, appConfig.Port,
		server.WithWriteTimeout(10*time.Second),
		server.WithReadTimeout(10*time.Second),
		server.WithServices(registrySvc),
		server.WithGlobalMiddlewares(
			middleware.Telemetry(httpMetrics),
			ratelimit.Middleware(appConfig.RateLimit),
			middleware.Recovery(func(w http.ResponseWriter, r *http.Request, _ any) {
				problem.Write(w, problem.Internal("unhandled error"))
			}),
		),
	)
	if err != nil {
		slog.ErrorContext(ctx, "init server error", slog.Any("error", err))
		exitCode = 1
		return
	}

	if err := srv.Run(ctx); err != nil {
		slog.ErrorContext(ctx, "running server error", slog.Any("error", err))
		exitCode = 1
		return
	}
}
