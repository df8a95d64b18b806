package conversation

import (
	"context"
	"strings"
	"sync"
)

type slotState int

const (
	slotPending slotState = iota
	slotSynthesizing
	slotReady
	slotFlushed
	slotFailed
)

// synthSlot is a reservation for one unit of speakable output within a turn.
type synthSlot struct {
	state slotState

	displayText string
	actions     *Actions

	handle   AudioHandle
	hasAudio bool
	released bool

	// skipSend suppresses the flush payload for slots skipped by
	// cancellation (a failed synthesis still sends its caption).
	skipSend bool

	err error
}

// Sequencer decouples synthesis latency, which varies per unit and completes
// out of order, from delivery order, which is strictly increasing by slot
// index. One Sequencer serves exactly one turn.
//
// Only the flush step is ordered: any number of slots may be synthesizing
// concurrently, and a gap at nextToFlush never stalls the synthesis of later
// slots. Completion wakes waiters through a condition variable rather than
// polling.
type Sequencer struct {
	synth SpeechSynthesizer
	sink  OutputSink

	mu          sync.Mutex
	cond        *sync.Cond
	slots       []*synthSlot
	nextToFlush int
	cancelled   bool
}

func newSequencer(synth SpeechSynthesizer, sink OutputSink) *Sequencer {
	q := &Sequencer{synth: synth, sink: sink}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Submit reserves the slot at index and starts synthesizing synthesisText
// without blocking the caller. Empty or whitespace-only text becomes an
// immediately ready silent slot and never reaches the synthesizer.
func (q *Sequencer) Submit(ctx context.Context, index int, synthesisText, displayText string, actions *Actions) {
	q.mu.Lock()
	defer q.mu.Unlock()

	slot := q.ensureSlot(index)
	slot.displayText = displayText
	slot.actions = actions

	if q.cancelled {
		slot.state = slotFailed
		slot.skipSend = true
		q.flushLocked()
		return
	}

	if strings.TrimSpace(synthesisText) == "" {
		slot.state = slotReady
		q.flushLocked()
		return
	}

	slot.state = slotSynthesizing
	go func() {
		handle, err := q.synth.Synthesize(ctx, synthesisText)
		q.complete(index, handle, err)
	}()
}

// SubmitAudio reserves the slot at index for pre-rendered audio, so it is
// ordered together with synthesized slots.
func (q *Sequencer) SubmitAudio(index int, handle AudioHandle, displayText string, actions *Actions) {
	q.mu.Lock()
	defer q.mu.Unlock()

	slot := q.ensureSlot(index)
	slot.displayText = displayText
	slot.actions = actions
	slot.handle = handle
	slot.hasAudio = true

	if q.cancelled {
		slot.state = slotFailed
		slot.skipSend = true
		q.releaseLocked(slot)
		q.flushLocked()
		return
	}

	slot.state = slotReady
	q.flushLocked()
}

// Cancel marks every unflushed slot failed-and-skipped and releases any
// audio that already completed, so Drain cannot deadlock on work that will
// never be delivered. Synthesis already in flight finishes on its own; its
// result is released on completion.
func (q *Sequencer) Cancel() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.cancelled = true
	for i := q.nextToFlush; i < len(q.slots); i++ {
		slot := q.slots[i]
		if slot == nil {
			continue
		}

		switch slot.state {
		case slotPending, slotSynthesizing:
			slot.state = slotFailed
			slot.skipSend = true
		case slotReady:
			q.releaseLocked(slot)
			slot.state = slotFailed
			slot.skipSend = true
		}
	}
	q.flushLocked()
}

// Drain blocks until every submitted slot has been flushed or skipped.
func (q *Sequencer) Drain() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.nextToFlush < len(q.slots) {
		q.cond.Wait()
	}
}

func (q *Sequencer) ensureSlot(index int) *synthSlot {
	for len(q.slots) <= index {
		q.slots = append(q.slots, nil)
	}
	if q.slots[index] == nil {
		q.slots[index] = &synthSlot{state: slotPending}
	}
	return q.slots[index]
}

func (q *Sequencer) complete(index int, handle AudioHandle, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	slot := q.slots[index]
	if slot.state != slotSynthesizing {
		// Cancelled while synthesizing; the slot was already skipped, so
		// the fresh audio just needs to be returned.
		if err == nil {
			if releaseErr := q.synth.Release(handle); releaseErr != nil {
				logger.Warn("failed to release audio for cancelled slot", "slot", index, "error", releaseErr)
			}
		}
		return
	}

	if err != nil {
		slot.state = slotFailed
		slot.err = &TtsError{Err: err}
		logger.Warn("synthesis failed, slot will be flushed silent", "slot", index, "error", err)
	} else {
		slot.handle = handle
		slot.hasAudio = true
		slot.state = slotReady
	}

	q.flushLocked()
}

// flushLocked delivers every contiguous completed slot starting at
// nextToFlush, in slot order. It never flushes past a gap. Callers must hold
// q.mu.
func (q *Sequencer) flushLocked() {
	for q.nextToFlush < len(q.slots) {
		slot := q.slots[q.nextToFlush]
		if slot == nil || (slot.state != slotReady && slot.state != slotFailed) {
			break
		}

		if !slot.skipSend {
			var audioRef *string
			if slot.state == slotReady && slot.hasAudio {
				ref := string(slot.handle)
				audioRef = &ref
			}
			if err := q.sink.Send(newAudioMessage(audioRef, slot.displayText, slot.actions)); err != nil {
				logger.Warn("failed to send audio payload", "slot", q.nextToFlush, "error", err)
			}
		}

		if slot.state == slotReady {
			q.releaseLocked(slot)
			slot.state = slotFlushed
		}
		q.nextToFlush++
	}

	q.cond.Broadcast()
}

func (q *Sequencer) releaseLocked(slot *synthSlot) {
	if !slot.hasAudio || slot.released {
		return
	}

	slot.released = true
	if err := q.synth.Release(slot.handle); err != nil {
		logger.Warn("failed to release audio", "error", err)
	}
}
