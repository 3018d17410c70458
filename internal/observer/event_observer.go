package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/anime-shed/waste-inspector-go/internal/metrics"
)

// DetectionEvent describes one step of a detect action
type DetectionEvent struct {
	EventType    EventType              `json:"event_type"`
	Timestamp    time.Time              `json:"timestamp"`
	ImageID      string                 `json:"image_id"`
	Task         string                 `json:"task"`
	Duration     time.Duration          `json:"duration"`
	Success      bool                   `json:"success"`
	ErrorType    string                 `json:"error_type,omitempty"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	Stage        string                 `json:"stage,omitempty"`
	Categories   map[string]int         `json:"categories,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of detection event
type EventType string

const (
	// DetectionStarted when a detect action begins
	DetectionStarted EventType = "detection_started"
	// DetectionCompleted when a detect action finishes successfully
	DetectionCompleted EventType = "detection_completed"
	// DetectionFailed when a detect action fails
	DetectionFailed EventType = "detection_failed"
	// ImageLoaded when the source image is decoded
	ImageLoaded EventType = "image_loaded"
	// InferenceCompleted when the backend returns
	InferenceCompleted EventType = "inference_completed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event DetectionEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event DetectionEvent)
}

// LoggingObserver logs detection events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles detection events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event DetectionEvent) {
	fields := logrus.Fields{
		"event_type": event.EventType,
		"image_id":   event.ImageID,
		"task":       event.Task,
		"duration":   event.Duration,
		"success":    event.Success,
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
		fields["error_type"] = event.ErrorType
		fields["stage"] = event.Stage
	}
	if len(event.Categories) > 0 {
		fields["categories"] = event.Categories
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case DetectionStarted:
		entry.Info("Detection started")
	case DetectionCompleted:
		entry.Info("Detection completed")
	case DetectionFailed:
		// a catalog mismatch means the deployment is broken, not the input
		if event.ErrorType == "category_index" {
			entry.Error("Model predicted a class outside the catalog")
			return
		}
		entry.Warn("Detection failed")
	case ImageLoaded, InferenceCompleted:
		entry.Debug("Detection step finished")
	default:
		entry.Info("Detection event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver feeds detection events into Prometheus and keeps a
// snapshot for the health endpoint
type MetricsObserver struct {
	mu                   sync.RWMutex
	totalDetections      int64
	successfulDetections int64
	failedDetections     int64
	totalProcessingTime  time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

// OnEvent handles detection events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event DetectionEvent) {
	switch event.EventType {
	case DetectionCompleted:
		metrics.RecordDetection(event.Task, true, event.Duration)
		metrics.RecordObjects(event.Categories)
	case DetectionFailed:
		metrics.RecordDetection(event.Task, false, event.Duration)
		metrics.RecordError(event.Stage, event.ErrorType)
	case InferenceCompleted:
		metrics.RecordInference(event.Task, event.Duration)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case DetectionStarted:
		o.totalDetections++
	case DetectionCompleted:
		o.successfulDetections++
		o.totalProcessingTime += event.Duration
	case DetectionFailed:
		o.failedDetections++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current counters
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgProcessingTime := time.Duration(0)
	if o.successfulDetections > 0 {
		avgProcessingTime = o.totalProcessingTime / time.Duration(o.successfulDetections)
	}

	return map[string]interface{}{
		"total_detections":      o.totalDetections,
		"successful_detections": o.successfulDetections,
		"failed_detections":     o.failedDetections,
		"avg_processing_time":   avgProcessingTime.String(),
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
	wg        sync.WaitGroup
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event concurrently
func (p *EventPublisher) NotifyObservers(ctx context.Context, event DetectionEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	// observers outlive the request, so they must not see its cancellation
	ctx = context.WithoutCancel(ctx)

	for _, observer := range observers {
		p.wg.Add(1)
		go func(obs Observer) {
			defer p.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}

// Wait blocks until every in-flight notification has been handled
func (p *EventPublisher) Wait() {
	p.wg.Wait()
}
