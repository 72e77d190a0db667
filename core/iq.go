package core

import "github.com/sarchlab/ooopipe/insts"

// fetchedInstr is one instruction sitting in the instruction queue,
// decoded but not yet renamed.
type fetchedInstr struct {
	instr  insts.Instruction
	pc     uint64
	branch *BranchRecord // non-nil iff instr is a branch; set by the frontend's predictor
	uid    string
}

// InstructionQueue is the FIFO holding instructions between fetch and
// rename/dispatch. It is a plain ring buffer sized by config
// (instr_queue_capacity), following the arena-plus-index shape used for
// every other in-flight table.
type InstructionQueue struct {
	buf        []fetchedInstr
	head, tail uint64 // monotonic counters, mod len(buf)
}

// NewInstructionQueue allocates a queue with the given capacity.
func NewInstructionQueue(capacity int) *InstructionQueue {
	return &InstructionQueue{buf: make([]fetchedInstr, capacity)}
}

// Len returns the number of instructions currently queued.
func (q *InstructionQueue) Len() int { return int(q.tail - q.head) }

// Full reports whether the queue has no room for another instruction.
func (q *InstructionQueue) Full() bool { return q.Len() == len(q.buf) }

// Empty reports whether the queue holds no instructions.
func (q *InstructionQueue) Empty() bool { return q.head == q.tail }

// Push enqueues an instruction. The caller must check Full first.
func (q *InstructionQueue) Push(in insts.Instruction, pc uint64, branch *BranchRecord, uid string) {
	q.buf[q.tail%uint64(len(q.buf))] = fetchedInstr{instr: in, pc: pc, branch: branch, uid: uid}
	q.tail++
}

// Peek returns the n-th queued instruction (0 is the oldest) without
// removing it.
func (q *InstructionQueue) Peek(n int) (fetchedInstr, bool) {
	if n >= q.Len() {
		return fetchedInstr{}, false
	}
	return q.buf[(q.head+uint64(n))%uint64(len(q.buf))], true
}

// Pop removes and returns the oldest queued instruction.
func (q *InstructionQueue) Pop() (fetchedInstr, bool) {
	if q.Empty() {
		return fetchedInstr{}, false
	}
	v := q.buf[q.head%uint64(len(q.buf))]
	q.head++
	return v, true
}

// Flush discards every queued instruction. Called on misprediction
// recovery: anything still sitting in the instruction queue is on the
// wrong path by construction.
func (q *InstructionQueue) Flush() {
	q.head = 0
	q.tail = 0
}
