package logger

import (
	"context"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

type sourceStat struct {
	messages int64
	bytes    int64
}

var (
	errorsFetch    int64
	errorsSnapshot int64
	warnsFetch     int64
	warnsSnapshot  int64
	pageReads      int64
	snapshotWrites int64
	uploads        int64
	sources        sync.Map // map[string]*sourceStat
)

func recordWarn(component string) {
	if strings.Contains(component, "registry") || strings.Contains(component, "metadata") || strings.Contains(component, "pricing") {
		atomic.AddInt64(&warnsFetch, 1)
	} else if strings.Contains(component, "snapshot") {
		atomic.AddInt64(&warnsSnapshot, 1)
	}
}

func recordError(component string) {
	if strings.Contains(component, "registry") || strings.Contains(component, "metadata") || strings.Contains(component, "pricing") {
		atomic.AddInt64(&errorsFetch, 1)
	} else if strings.Contains(component, "snapshot") {
		atomic.AddInt64(&errorsSnapshot, 1)
	}
}

func IncrementPageRead(size int) {
	atomic.AddInt64(&pageReads, 1)
	recordSource("registry_pages", size)
}

func IncrementSnapshotWrite(size int64) {
	atomic.AddInt64(&snapshotWrites, 1)
	recordSource("snapshot_store", int(size))
}

func IncrementUpload(size int64) {
	atomic.AddInt64(&uploads, 1)
	recordSource("s3_upload", int(size))
}

func RecordSourceMessage(name string, size int) {
	recordSource(name, size)
}

func recordSource(name string, size int) {
	v, _ := sources.LoadOrStore(name, &sourceStat{})
	ss := v.(*sourceStat)
	atomic.AddInt64(&ss.messages, 1)
	atomic.AddInt64(&ss.bytes, int64(size))
}

func startReport(ctx context.Context, log *Log, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-ticker.C:
				logReport(ctx, log)
			}
		}
	}()
}

// StartReport begins periodic logging of pipeline counters.
// It exposes the internal startReport function for use by other packages.
func StartReport(ctx context.Context, log *Log, interval time.Duration) {
	startReport(ctx, log, interval)
}

func logReport(ctx context.Context, log *Log) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	sourceData := map[string]map[string]int64{}
	sources.Range(func(k, v any) bool {
		name := k.(string)
		ss := v.(*sourceStat)
		sourceData[name] = map[string]int64{
			"messages": atomic.LoadInt64(&ss.messages),
			"bytes":    atomic.LoadInt64(&ss.bytes),
		}
		return true
	})

	fields := Fields{
		"errors_fetch":    atomic.LoadInt64(&errorsFetch),
		"errors_snapshot": atomic.LoadInt64(&errorsSnapshot),
		"warns_fetch":     atomic.LoadInt64(&warnsFetch),
		"warns_snapshot":  atomic.LoadInt64(&warnsSnapshot),
		"page_reads":      atomic.LoadInt64(&pageReads),
		"snapshot_writes": atomic.LoadInt64(&snapshotWrites),
		"uploads":         atomic.LoadInt64(&uploads),
		"goroutines":      runtime.NumGoroutine(),
		"heap_mb":         int64(ms.HeapAlloc) / 1024 / 1024,
		"sources":         sourceData,
	}

	log.WithComponent("report").WithFields(fields).Info("runtime report")

	var data []cwtypes.MetricDatum
	data = append(data,
		cwtypes.MetricDatum{MetricName: aws.String("ErrorsFetch"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["errors_fetch"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("ErrorsSnapshot"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["errors_snapshot"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("WarnsFetch"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["warns_fetch"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("WarnsSnapshot"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["warns_snapshot"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("PagesRead"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["page_reads"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("SnapshotWrites"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["snapshot_writes"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("Uploads"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(fields["uploads"].(int64)))},
		cwtypes.MetricDatum{MetricName: aws.String("HeapMB"), Unit: cwtypes.StandardUnitMegabytes, Value: aws.Float64(float64(ms.HeapAlloc) / 1024 / 1024)},
		cwtypes.MetricDatum{MetricName: aws.String("Goroutines"), Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(runtime.NumGoroutine()))},
	)

	for name, stats := range sourceData {
		data = append(data,
			cwtypes.MetricDatum{
				MetricName: aws.String("SourceMessages"),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{{Name: aws.String("Source"), Value: aws.String(name)}},
				Value:      aws.Float64(float64(stats["messages"])),
			},
			cwtypes.MetricDatum{
				MetricName: aws.String("SourceBytes"),
				Unit:       cwtypes.StandardUnitBytes,
				Dimensions: []cwtypes.Dimension{{Name: aws.String("Source"), Value: aws.String(name)}},
				Value:      aws.Float64(float64(stats["bytes"])),
			},
		)
	}

	publishMetrics(ctx, data)
}
