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

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// RegistryMetrics instruments the profile registry itself: live record count,
// document save failures, and photos dropped by the persistence compression
// policy.
type RegistryMetrics struct {
	profileCount  metric.Int64UpDownCounter
	saveFailures  metric.Int64Counter
	droppedPhotos metric.Int64Counter
}

// NewRegistryMetrics creates a RegistryMetrics instance for a given service name.
func NewRegistryMetrics(serviceName string) (*RegistryMetrics, error) {
	meter := otel.Meter(serviceName)

	profileCount, err := meter.Int64UpDownCounter(
		"registry_profiles",
		metric.WithDescription("Number of live profile records"),
		metric.WithUnit("{profile}"),
	)
	if err != nil {
		return nil, err
	}

	saveFailures, err := meter.Int64Counter(
		"registry_save_failures_total",
		metric.WithDescription("Document persistence writes that failed"),
		metric.WithUnit("{write}"),
	)
	if err != nil {
		return nil, err
	}

	droppedPhotos, err := meter.Int64Counter(
		"registry_dropped_photos_total",
		metric.WithDescription("Photos omitted from the persisted document by the compression policy"),
		metric.WithUnit("{photo}"),
	)
	if err != nil {
		return nil, err
	}

	return &RegistryMetrics{
		profileCount:  profileCount,
		saveFailures:  saveFailures,
		droppedPhotos: droppedPhotos,
	}, nil
}

// ProfileCreated / ProfileDeleted adjust the live record gauge. Both are
// nil-safe so call sites don't have to guard for disabled metrics.
func (m *RegistryMetrics) ProfileCreated(ctx context.Context) {
	if m == nil {
		return
	}
	m.profileCount.Add(ctx, 1)
}

func (m *RegistryMetrics) ProfileDeleted(ctx context.Context) {
	if m == nil {
		return
	}
	m.profileCount.Add(ctx, -1)
}

func (m *RegistryMetrics) SaveFailed(ctx context.Context) {
	if m == nil {
		return
	}
	m.saveFailures.Add(ctx, 1)
}

func (m *RegistryMetrics) PhotoDropped(ctx context.Context) {
	if m == nil {
		return
	}
	m.droppedPhotos.Add(ctx, 1)
}
