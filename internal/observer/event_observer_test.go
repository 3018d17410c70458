package observer

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anime-shed/waste-inspector-go/internal/metrics"
)

type recordingObserver struct {
	name   string
	mu     sync.Mutex
	events []DetectionEvent
}

func (r *recordingObserver) OnEvent(_ context.Context, e DetectionEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingObserver) GetObserverName() string { return r.name }

type panickingObserver struct{}

func (panickingObserver) OnEvent(context.Context, DetectionEvent) { panic("boom") }
func (panickingObserver) GetObserverName() string                 { return "panicky" }

func TestEventPublisher_Notify(t *testing.T) {
	p := NewEventPublisher()
	rec := &recordingObserver{name: "rec"}
	p.Subscribe(rec)
	p.Subscribe(panickingObserver{})

	ctx, cancel := context.WithCancel(context.Background())
	p.NotifyObservers(ctx, DetectionEvent{EventType: DetectionStarted, ImageID: "bin.jpg"})
	cancel()
	p.Wait()

	require.Len(t, rec.events, 1)
	assert.Equal(t, "bin.jpg", rec.events[0].ImageID)
	assert.False(t, rec.events[0].Timestamp.IsZero())
}

func TestEventPublisher_Unsubscribe(t *testing.T) {
	p := NewEventPublisher()
	rec := &recordingObserver{name: "rec"}
	p.Subscribe(rec)
	p.Unsubscribe(rec)

	p.NotifyObservers(context.Background(), DetectionEvent{EventType: DetectionStarted})
	p.Wait()

	assert.Empty(t, rec.events)
}

func TestMetricsObserver(t *testing.T) {
	metrics.DetectionsTotal.Reset()
	metrics.ErrorsTotal.Reset()
	metrics.ObjectsDetected.Reset()

	o := NewMetricsObserver()
	ctx := context.Background()

	o.OnEvent(ctx, DetectionEvent{EventType: DetectionStarted, Task: "segmentation"})
	o.OnEvent(ctx, DetectionEvent{
		EventType:  DetectionCompleted,
		Task:       "segmentation",
		Duration:   2 * time.Second,
		Success:    true,
		Categories: map[string]int{"Plastic": 2},
	})
	o.OnEvent(ctx, DetectionEvent{EventType: DetectionStarted, Task: "detection"})
	o.OnEvent(ctx, DetectionEvent{
		EventType: DetectionFailed,
		Task:      "detection",
		Stage:     "inference",
		ErrorType: "network",
	})

	snapshot := o.GetMetrics()
	assert.Equal(t, int64(2), snapshot["total_detections"])
	assert.Equal(t, int64(1), snapshot["successful_detections"])
	assert.Equal(t, int64(1), snapshot["failed_detections"])
	assert.Equal(t, "2s", snapshot["avg_processing_time"])

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.DetectionsTotal.WithLabelValues("segmentation", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.ErrorsTotal.WithLabelValues("inference", "network")))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.ObjectsDetected.WithLabelValues("Plastic")))
}

func TestLoggingObserver_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.DebugLevel)

	o := NewLoggingObserver(logger)
	o.OnEvent(context.Background(), DetectionEvent{
		EventType:    DetectionFailed,
		ImageID:      "bin.jpg",
		ErrorType:    "category_index",
		ErrorMessage: "class index 40 outside catalog of 37 categories",
	})
	o.OnEvent(context.Background(), DetectionEvent{
		EventType:    DetectionFailed,
		ErrorType:    "image_decode",
		ErrorMessage: "cannot decode",
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first, second map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "error", first["level"])
	assert.Equal(t, "bin.jpg", first["image_id"])
	assert.Equal(t, "warning", second["level"])
}
