package metrics

import (
	// Std
	"context"
	"time"

	// Mapconfig
	"github.com/momentum-xyz/mapconfig/internal/config"
	"github.com/momentum-xyz/mapconfig/internal/logger"

	// Third-Party
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influx_api "github.com/influxdata/influxdb-client-go/v2/api"
	influx_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/pkg/errors"
)

const (
	loadMeasurement = "world_settings_load"
	writeTimeout    = 5 * time.Second
)

var log = logger.L().With("package", "metrics")

// LoadStats describes one load of the worlds document.
type LoadStats struct {
	Source   string
	Loaded   int
	Failed   int
	Duration time.Duration
}

type Reporter interface {
	ReportLoad(stats LoadStats)
	Close()
}

// NewReporter returns an influx backed reporter, or a no-op one when influx
// is not configured.
func NewReporter(cfg *config.Influx, node string) Reporter {
	if !cfg.Enabled() {
		return nop{}
	}
	client := influxdb2.NewClient(cfg.URL, cfg.TOKEN)
	return &influxReporter{
		client: client,
		write:  client.WriteAPIBlocking(cfg.ORG, cfg.BUCKET),
		node:   node,
	}
}

type influxReporter struct {
	client influxdb2.Client
	write  influx_api.WriteAPIBlocking
	node   string
}

func LoadPoint(node string, stats LoadStats, ts time.Time) *influx_write.Point {
	return influxdb2.NewPoint(
		loadMeasurement,
		map[string]string{"node": node, "source": stats.Source},
		map[string]interface{}{
			"loaded":      stats.Loaded,
			"failed":      stats.Failed,
			"duration_ms": stats.Duration.Milliseconds(),
		},
		ts,
	)
}

func (r *influxReporter) ReportLoad(stats LoadStats) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := r.write.WritePoint(ctx, LoadPoint(r.node, stats, time.Now())); err != nil {
		log.Warn(errors.WithMessage(err, "metrics: failed to write load point"))
	}
}

func (r *influxReporter) Close() {
	r.client.Close()
}

type nop struct{}

func (nop) ReportLoad(LoadStats) {}
func (nop) Close()               {}
