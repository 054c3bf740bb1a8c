// Package services – AdmissionControl
//
// This file implements the disk-space admission gate that runs before an
// attachment is accepted. It is a host-level health guard: the filesystem
// must keep MinFreeBytes available regardless of the upload's own size
// (which the transport caps separately). Free space is probed on every call.
package services

import (
	"context"
	"fmt"

	"github.com/runxiyu/ykps-sjdb/internal/domain"
	"github.com/runxiyu/ykps-sjdb/internal/sysutil"
)

// SpaceProbe reports the free bytes available on the filesystem holding dir.
type SpaceProbe func(dir string) (uint64, error)

// AdmissionControl rejects work when the area's filesystem is low on space.
type AdmissionControl struct {
	// Area labels the guarded directory in errors and metrics.
	Area string
	// Dir is the directory whose filesystem is probed.
	Dir string
	// MinFreeBytes is the headroom that must remain. Zero disables the gate.
	MinFreeBytes uint64
	// Probe defaults to sysutil.FreeBytes.
	Probe SpaceProbe
}

// NewAdmissionControl returns a gate over dir backed by the live filesystem.
func NewAdmissionControl(area, dir string, minFree uint64) *AdmissionControl {
	return &AdmissionControl{Area: area, Dir: dir, MinFreeBytes: minFree, Probe: sysutil.FreeBytes}
}

// CheckCapacity returns *domain.InsufficientStorageError when free space is
// below MinFreeBytes. Probe failures are internal errors.
func (a *AdmissionControl) CheckCapacity(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a.MinFreeBytes == 0 {
		return nil
	}
	probe := a.Probe
	if probe == nil {
		probe = sysutil.FreeBytes
	}
	free, err := probe(a.Dir)
	if err != nil {
		return &domain.InternalError{Err: fmt.Errorf("probe free space of %s: %w", a.Area, err)}
	}
	storageFreeBytes.WithLabelValues(a.Area).Set(float64(free))
	if free < a.MinFreeBytes {
		return &domain.InsufficientStorageError{Area: a.Area, Free: free, Required: a.MinFreeBytes}
	}
	return nil
}
