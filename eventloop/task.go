package eventloop

// TaskKind distinguishes the two queue disciplines.
type TaskKind int

const (
	// TaskMacro is a coarse-grained unit of work: a host completion, a
	// timer callback, or anything submitted via [Loop.ScheduleMacro].
	TaskMacro TaskKind = iota

	// TaskMicro is a fine-grained unit of work that must fully drain
	// before the next macrotask runs.
	TaskMicro
)

func (k TaskKind) String() string {
	switch k {
	case TaskMacro:
		return "macro"
	case TaskMicro:
		return "micro"
	default:
		return "unknown"
	}
}

// Task is a scheduled unit of work. Tasks are immutable once enqueued;
// ordering within a queue is strict FIFO by sequence number.
type Task struct {
	ID       uint64
	Kind     TaskKind
	Runnable func()
	seq      uint64
}

// delayedTask is a macrotask waiting for its due tick.
type delayedTask struct {
	due  uint64
	task Task
}

// timerHeap is a min-heap of delayed macrotasks ordered by due tick, then
// by scheduling sequence for equal ticks.
type timerHeap []delayedTask

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].due != h[j].due {
		return h[i].due < h[j].due
	}
	return h[i].task.seq < h[j].task.seq
}

func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *timerHeap) Push(x any) {
	*h = append(*h, x.(delayedTask))
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
