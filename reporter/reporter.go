// Package reporter implements the optional flush-summary sink SUPPLEMENTED
// FEATURES add on top of the runtime library: when TREC_REPORT_BROKERS is
// set, cmd/trec-run aggregates the snapshot files an instrumented run left
// under TREC_PERF_DIR and publishes one summary message per run to Kafka.
// It is grounded on the teacher's wrapper/serve.go (a sarama producer
// relaying JSON messages) and wrap/wrap.go's System/metrics() (host CPU
// and memory usage sampled around a child process's lifetime), generalized
// from Auklet's managed backend to a user-supplied broker list.
package reporter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Shopify/sarama"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/maoif/trec/runtimelib"
)

// HostMetrics samples system-wide resource usage, mirroring wrap.go's
// System type.
type HostMetrics struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemPercent float64 `json:"mem_percent"`
}

func sampleHostMetrics() HostMetrics {
	var m HostMetrics
	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		m.CPUPercent = pct[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		m.MemPercent = vm.UsedPercent
	}
	return m
}

// FunctionSummary is one probed ID's aggregate across a run's snapshot
// files: its total observation count and the mean bucket index of those
// observations, summed across every process that flushed to
// TREC_PERF_DIR (a forking workload produces one snapshot file per
// process). Per-bucket counts are not carried.
type FunctionSummary struct {
	ID           uint64  `json:"id"`
	Observations int64   `json:"observations"`
	MeanBucket   float64 `json:"mean_bucket"`
}

// Summary is the one message cmd/trec-run publishes per completed run.
type Summary struct {
	UUID      string            `json:"uuid"`
	Timestamp time.Time         `json:"timestamp"`
	Mode      byte              `json:"mode"`
	Host      HostMetrics       `json:"host_metrics"`
	Functions []FunctionSummary `json:"functions"`
}

// Collect aggregates every trec_perf_*.bin snapshot file under dir into
// one Summary, sampling host metrics at call time. ts is supplied by the
// caller so tests get a deterministic timestamp.
func Collect(dir string, ts time.Time) (*Summary, error) {
	if err := ensureDir(dir); err != nil {
		return nil, err
	}

	matches, err := filepath.Glob(filepath.Join(dir, "trec_perf_*.bin"))
	if err != nil {
		return nil, errors.Wrap(err, "glob snapshot files")
	}

	totals := make(map[uint64]int64)
	counts := make(map[uint64]int64)
	var mode byte

	for _, path := range matches {
		header, rows, err := runtimelib.ReadSnapshot(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read snapshot %s", path)
		}
		mode = header.Mode
		for id, row := range rows {
			for bucket, n := range row {
				if n == 0 {
					continue
				}
				totals[id] += int64(bucket) * n
				counts[id] += n
			}
		}
	}

	s := &Summary{
		UUID:      uuid.NewString(),
		Timestamp: ts,
		Mode:      mode,
		Host:      sampleHostMetrics(),
	}
	for id, count := range counts {
		mean := 0.0
		if count > 0 {
			mean = float64(totals[id]) / float64(count)
		}
		s.Functions = append(s.Functions, FunctionSummary{ID: id, Observations: count, MeanBucket: mean})
	}
	return s, nil
}

// Publish sends s as a single JSON message to the Kafka cluster reached
// through brokers, on the fixed topic "trec.summary". It mirrors wrapper/serve.go's
// sarama.AsyncProducer usage, but synchronously: cmd/trec-run publishes
// at most one message per run, so there is no throughput to batch.
func Publish(brokers []string, s *Summary) error {
	body, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "marshal summary")
	}

	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.ClientID = "trec-run"

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return errors.Wrap(err, "connect to kafka brokers")
	}
	defer producer.Close()

	_, _, err = producer.SendMessage(&sarama.ProducerMessage{
		Topic: "trec.summary",
		Value: sarama.ByteEncoder(body),
	})
	if err != nil {
		return errors.Wrap(err, "publish summary")
	}
	return nil
}

// BrokersFromEnv splits a comma-separated broker list the way
// config.EnvReportBrokers is documented to carry it, returning nil (not
// an empty slice) when raw is empty so callers can treat that as
// "reporting disabled" with a plain nil check.
func BrokersFromEnv(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

func ensureDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return errors.Wrap(err, "stat perf dir")
	}
	if !info.IsDir() {
		return errors.Errorf("%s is not a directory", dir)
	}
	return nil
}
