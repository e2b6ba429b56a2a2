package observability

import (
	"context"
	"testing"
	"time"
)

type recordingOperationHooks struct {
	NoopOperationHooks
	enqueued  []string
	completed int
}

func (r *recordingOperationHooks) OnEnqueue(_ context.Context, opType, _ string) {
	r.enqueued = append(r.enqueued, opType)
}

func (r *recordingOperationHooks) OnComplete(context.Context, string, string, int, time.Duration, error) {
	r.completed++
}

type recordingCacheHooks struct {
	NoopCacheHooks
	hits   int
	misses int
	sets   []int
}

func (r *recordingCacheHooks) OnCacheHit(context.Context, string)  { r.hits++ }
func (r *recordingCacheHooks) OnCacheMiss(context.Context, string) { r.misses++ }
func (r *recordingCacheHooks) OnCacheSet(_ context.Context, _ string, size int) {
	r.sets = append(r.sets, size)
}

func TestDefaultsAreNoop(t *testing.T) {
	Reset()

	if _, ok := Operation().(NoopOperationHooks); !ok {
		t.Errorf("Operation() = %T, want NoopOperationHooks", Operation())
	}
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Errorf("Pipeline() = %T, want NoopPipelineHooks", Pipeline())
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Errorf("Cache() = %T, want NoopCacheHooks", Cache())
	}
}

func TestSetAndDispatch(t *testing.T) {
	t.Cleanup(Reset)

	ops := &recordingOperationHooks{}
	SetOperationHooks(ops)

	ctx := context.Background()
	Operation().OnEnqueue(ctx, "collapse", "op-1")
	Operation().OnEnqueue(ctx, "pipeline", "op-2")
	Operation().OnComplete(ctx, "collapse", "op-1", 1, time.Millisecond, nil)

	if len(ops.enqueued) != 2 || ops.enqueued[0] != "collapse" {
		t.Errorf("enqueued = %v, want [collapse pipeline]", ops.enqueued)
	}
	if ops.completed != 1 {
		t.Errorf("completed = %d, want 1", ops.completed)
	}
}

func TestCacheHooksDispatch(t *testing.T) {
	t.Cleanup(Reset)

	ch := &recordingCacheHooks{}
	SetCacheHooks(ch)

	ctx := context.Background()
	Cache().OnCacheMiss(ctx, "layout")
	Cache().OnCacheSet(ctx, "layout", 128)
	Cache().OnCacheHit(ctx, "layout")

	if ch.hits != 1 || ch.misses != 1 {
		t.Errorf("hits = %d, misses = %d, want 1 each", ch.hits, ch.misses)
	}
	if len(ch.sets) != 1 || ch.sets[0] != 128 {
		t.Errorf("sets = %v, want [128]", ch.sets)
	}
}

func TestSetNilKeepsCurrent(t *testing.T) {
	t.Cleanup(Reset)

	ops := &recordingOperationHooks{}
	SetOperationHooks(ops)
	SetOperationHooks(nil)

	if Operation() != ops {
		t.Errorf("Operation() = %T, want the previously registered hooks", Operation())
	}
}

func TestResetRestoresNoop(t *testing.T) {
	SetOperationHooks(&recordingOperationHooks{})
	SetPipelineHooks(NoopPipelineHooks{})
	SetCacheHooks(&recordingCacheHooks{})

	Reset()

	if _, ok := Operation().(NoopOperationHooks); !ok {
		t.Errorf("Operation() = %T after Reset, want NoopOperationHooks", Operation())
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Errorf("Cache() = %T after Reset, want NoopCacheHooks", Cache())
	}
}
