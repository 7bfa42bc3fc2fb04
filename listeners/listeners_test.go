package listeners_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/tailored-agentic-units/rtcallbacks/callbacks"
	"github.com/tailored-agentic-units/rtcallbacks/listeners"
	"github.com/tailored-agentic-units/rtcallbacks/observability"
	"github.com/tailored-agentic-units/rtcallbacks/vm"
)

type recorder struct {
	mu     sync.Mutex
	events []observability.Event
}

func (r *recorder) OnEvent(ctx context.Context, e observability.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func TestTracer_ImplementsEveryCategory(t *testing.T) {
	reg := callbacks.New()
	assert.Equal(t, callbacks.Categories(), reg.AddAll(listeners.NewTracer(nil)))
}

func TestTracer_ForwardsEvents(t *testing.T) {
	rec := &recorder{}
	reg := callbacks.New()
	reg.AddAll(listeners.NewTracer(rec).WithLevel(observability.LevelInfo))

	thread := vm.NewThread("main")
	def := callbacks.Definition{Dex: &vm.DexFile{Location: "base.dex"}, Def: &vm.ClassDef{}}

	reg.NextRuntimePhase(vm.PhaseStart)
	reg.ThreadStart(thread)
	got := reg.ClassPreDefine("LFoo;", nil, nil, def)
	reg.DdmPublishChunk(7, []byte("abc"))
	assert.False(t, reg.HaveLocalsChanged())
	assert.False(t, reg.IsDebuggerConfigured())
	assert.Equal(t, vm.NativeCode(0x40), reg.RegisterNativeMethod(&vm.Method{Name: "m"}, 0x40))

	assert.Equal(t, def, got)
	require.Len(t, rec.events, 7)

	assert.Equal(t, listeners.EventPhase, rec.events[0].Type)
	assert.Equal(t, "start", rec.events[0].Data["phase"])
	assert.Equal(t, observability.LevelInfo, rec.events[0].Level)

	assert.Equal(t, listeners.EventThreadStart, rec.events[1].Type)
	assert.Equal(t, "main", rec.events[1].Data["thread"])
	assert.Equal(t, thread.ID, rec.events[1].Data["thread_id"])

	assert.Equal(t, listeners.EventClassPreDefine, rec.events[2].Type)
	assert.Equal(t, "boot", rec.events[2].Data["loader"])
	assert.Equal(t, "base.dex", rec.events[2].Data["dex"])

	assert.Equal(t, listeners.EventDdmChunk, rec.events[3].Type)
	assert.Equal(t, 3, rec.events[3].Data["bytes"])

	assert.Equal(t, listeners.EventLocalsQueried, rec.events[4].Type)
	assert.Equal(t, listeners.EventDebuggerQueried, rec.events[5].Type)
	assert.Equal(t, listeners.EventNativeRegistered, rec.events[6].Type)
}

func TestCounter_Counts(t *testing.T) {
	reg := callbacks.New()
	c := listeners.NewCounter()
	reg.AddAll(c)

	reg.SigQuit()
	reg.SigQuit()
	reg.ThreadParkStart(false, 10)
	reg.ClassLoad(&vm.Class{Descriptor: "LBar;"})
	reg.StopDebuggerUnchecked()

	assert.Equal(t, uint64(2), c.Count(listeners.CountSigQuit))
	assert.Equal(t, uint64(1), c.Count(listeners.CountParkStart))
	assert.Equal(t, uint64(1), c.Count(listeners.CountClassLoad))
	assert.Equal(t, uint64(1), c.Count(listeners.CountDebugStop))
	assert.Zero(t, c.Count("unknown"))
	assert.Equal(t, uint64(5), c.Total())

	counts := c.Counts()
	assert.Len(t, counts, 22)
	assert.Equal(t, uint64(2), counts[listeners.CountSigQuit])
}

func TestCounter_ConcurrentDispatch(t *testing.T) {
	reg := callbacks.New()
	c := listeners.NewCounter()
	reg.AddMonitorListener(c)
	reg.AddThreadLifecycleListener(c)

	const workers, rounds = 8, 100
	var g errgroup.Group
	for range workers {
		g.Go(func() error {
			for range rounds {
				reg.MonitorContendedLocking(&vm.Monitor{})
				reg.ThreadStart(&vm.Thread{})
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, uint64(workers*rounds), c.Count(listeners.CountLocking))
	assert.Equal(t, uint64(workers*rounds), c.Count(listeners.CountThreadStart))
}

func TestFlag_ShortCircuit(t *testing.T) {
	reg := callbacks.New()
	counter := listeners.NewCounter()
	flag := listeners.NewFlag(true, false)

	reg.AddMethodInspectionListener(flag)
	reg.AddMethodInspectionListener(counter)
	reg.AddDebuggerControlListener(flag)
	reg.AddDebuggerControlListener(counter)

	assert.True(t, reg.HaveLocalsChanged())
	assert.Zero(t, counter.Count(listeners.CountLocalsQuery))

	assert.False(t, reg.IsDebuggerConfigured())
	assert.Equal(t, uint64(1), counter.Count(listeners.CountDebugQuery))

	flag.SetConfigured(true)
	flag.SetLocalsChanged(false)
	assert.True(t, reg.IsDebuggerConfigured())
	assert.False(t, reg.HaveLocalsChanged())
	assert.Equal(t, uint64(1), counter.Count(listeners.CountDebugQuery))
	assert.Equal(t, uint64(1), counter.Count(listeners.CountLocalsQuery))
}

func TestFlag_DebuggerRunning(t *testing.T) {
	reg := callbacks.New()
	flag := listeners.NewFlag(false, true)
	reg.AddDebuggerControlListener(flag)

	assert.False(t, flag.Running())
	reg.StartDebugger()
	assert.True(t, flag.Running())
	reg.StopDebuggerUnchecked()
	assert.False(t, flag.Running())
}
