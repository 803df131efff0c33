// Package diag collects the disk footprint of the repository and the health
// of the build backend, for the diagnostics command.
package diag

import (
	"context"
	"fmt"
	"os"

	"github.com/docker/go-units"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/MahdiBaghbani/containers-sub001/internal/builder"
	"github.com/MahdiBaghbani/containers-sub001/internal/ctxlog"
	"github.com/MahdiBaghbani/containers-sub001/internal/fsutil"
)

// DirStat is the recursive size of one directory.
type DirStat struct {
	Path  string
	Files int
	Bytes int64
}

// HumanSize renders the byte count for people.
func (d DirStat) HumanSize() string {
	return units.HumanSize(float64(d.Bytes))
}

// VolumeStat describes the filesystem volume holding the services
// directory.
type VolumeStat struct {
	Path        string
	TotalBytes  uint64
	FreeBytes   uint64
	UsedPercent float64
}

func (v VolumeStat) HumanTotal() string { return units.HumanSize(float64(v.TotalBytes)) }
func (v VolumeStat) HumanFree() string  { return units.HumanSize(float64(v.FreeBytes)) }

// Report is one diagnostics snapshot.
type Report struct {
	ServicesDir  DirStat
	CacheDir     *DirStat
	Volume       VolumeStat
	BuilderOK    bool
	BuilderError string
}

// Collect walks the configured directories, samples the volume, and pings
// the build backend. cacheDir may be empty.
func Collect(ctx context.Context, servicesDir, cacheDir string, b builder.Builder) (*Report, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Collecting diagnostics.", "services_dir", servicesDir, "cache_dir", cacheDir)

	report := &Report{}

	if _, err := os.Stat(servicesDir); err != nil {
		return nil, fmt.Errorf("services dir: %w", err)
	}
	files, bytes, err := fsutil.DirSize(servicesDir)
	if err != nil {
		return nil, fmt.Errorf("sizing services dir: %w", err)
	}
	report.ServicesDir = DirStat{Path: servicesDir, Files: files, Bytes: bytes}

	if cacheDir != "" {
		files, bytes, err := fsutil.DirSize(cacheDir)
		if err != nil {
			return nil, fmt.Errorf("sizing cache dir: %w", err)
		}
		report.CacheDir = &DirStat{Path: cacheDir, Files: files, Bytes: bytes}
	}

	usage, err := disk.UsageWithContext(ctx, servicesDir)
	if err != nil {
		return nil, fmt.Errorf("reading volume usage: %w", err)
	}
	report.Volume = VolumeStat{
		Path:        usage.Path,
		TotalBytes:  usage.Total,
		FreeBytes:   usage.Free,
		UsedPercent: usage.UsedPercent,
	}

	report.BuilderOK = true
	if pinger, ok := b.(builder.Pinger); ok {
		if err := pinger.Ping(ctx); err != nil {
			report.BuilderOK = false
			report.BuilderError = err.Error()
		}
	}
	return report, nil
}
