package watch

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/haasonsaas/nexus-memcore/internal/debounce"
	"github.com/haasonsaas/nexus-memcore/internal/observability"
)

// DefaultChangeStreamDebounce is the coalescing window for change events.
const DefaultChangeStreamDebounce = 1000 * time.Millisecond

// ChangeStreamWatcher watches the chunks collection for insert/update/
// replace/delete and invokes OnDirty (debounced) with the affected set
// collapsed to a single notification. It closes itself quietly, rather than
// erroring, the first time it sees a "not a replica set" signal: standalone
// deployments fall back to the filesystem watcher alone.
type ChangeStreamWatcher struct {
	Collection *mongo.Collection
	Debounce   time.Duration
	OnDirty    func()
	Logger     *observability.Logger

	mu      sync.Mutex
	stream  *mongo.ChangeStream
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	deb     *debounce.Debouncer[string]
	closed  bool
}

// Start opens the change stream and begins watching in the background.
// Returning a non-nil error here means the caller should not retry; a
// standalone topology is reported via a quiet no-op instead of an error,
// since it's an expected deployment shape, not a failure.
func (w *ChangeStreamWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.stream != nil || w.closed {
		w.mu.Unlock()
		return nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "operationType", Value: bson.D{{Key: "$in", Value: bson.A{"insert", "update", "replace", "delete"}}}},
		}}},
	}
	streamOpts := options.ChangeStream().
		SetFullDocument(options.UpdateLookup)

	stream, err := w.Collection.Watch(ctx, pipeline, streamOpts)
	if err != nil {
		w.mu.Unlock()
		if isNotReplicaSet(err) {
			w.logf("info", "syncengine: change streams unavailable, falling back to filesystem watch only", "error", err)
			return nil
		}
		return err
	}

	debounceMs := w.Debounce
	if debounceMs <= 0 {
		debounceMs = DefaultChangeStreamDebounce
	}
	w.deb = debounce.NewDebouncer[string](
		debounce.WithDebounceDuration[string](debounceMs),
		debounce.WithOnFlush[string](func(_ []*string) error {
			if w.OnDirty != nil {
				w.OnDirty()
			}
			return nil
		}),
	)

	watchCtx, cancel := context.WithCancel(ctx)
	w.stream = stream
	w.cancel = cancel
	w.mu.Unlock()

	w.wg.Add(1)
	go w.loop(watchCtx)
	return nil
}

// Close stops the change stream. Idempotent.
func (w *ChangeStreamWatcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	stream := w.stream
	w.stream = nil
	deb := w.deb
	w.mu.Unlock()

	if deb != nil {
		deb.Stop()
	}
	var err error
	if stream != nil {
		err = stream.Close(context.Background())
	}
	w.wg.Wait()
	return err
}

func (w *ChangeStreamWatcher) loop(ctx context.Context) {
	defer w.wg.Done()
	w.mu.Lock()
	stream := w.stream
	deb := w.deb
	w.mu.Unlock()
	if stream == nil {
		return
	}

	for stream.Next(ctx) {
		var event struct {
			OperationType string `bson:"operationType"`
			DocumentKey   struct {
				ID string `bson:"_id"`
			} `bson:"documentKey"`
			FullDocument struct {
				Path string `bson:"path"`
			} `bson:"fullDocument"`
		}
		if err := stream.Decode(&event); err != nil {
			w.logf("warn", "syncengine: change stream decode failed", "error", err)
			continue
		}

		path := event.FullDocument.Path
		if path == "" {
			path = pathFromChunkID(event.DocumentKey.ID)
		}
		if path == "" {
			continue
		}
		if deb != nil {
			deb.Enqueue(&path)
		}
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		w.logf("warn", "syncengine: change stream closed with error", "error", err)
	}
}

// pathFromChunkID recovers the source path from a "{path}:{startLine}:
// {endLine}" composite chunk id, used on delete events where fullDocument
// is unavailable.
func pathFromChunkID(id string) string {
	last := strings.LastIndex(id, ":")
	if last < 0 {
		return ""
	}
	prev := strings.LastIndex(id[:last], ":")
	if prev < 0 {
		return ""
	}
	return id[:prev]
}

func isNotReplicaSet(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "replica set") || strings.Contains(msg, "replicaset") {
		return true
	}
	var cmdErr mongo.CommandError
	if ce, ok := err.(mongo.CommandError); ok {
		cmdErr = ce
		return cmdErr.Code == 40573 // NotARetryableWriteError-adjacent / change streams require replica set
	}
	return false
}

func (w *ChangeStreamWatcher) logf(level, msg string, args ...any) {
	if w.Logger == nil {
		return
	}
	ctx := context.Background()
	switch level {
	case "warn":
		w.Logger.Warn(ctx, msg, args...)
	default:
		w.Logger.Info(ctx, msg, args...)
	}
}
