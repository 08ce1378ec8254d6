package learner

import "sync"

// saver runs writes one at a time. While a write is in flight, newer
// payloads replace each other so only the latest is written next.
type saver struct {
	mu      sync.Mutex
	pending []byte
	has     bool
	busy    bool
	idle    chan struct{} // closed while nothing is queued or running
}

func (sv *saver) init() {
	sv.idle = make(chan struct{})
	close(sv.idle)
}

func (sv *saver) enqueue(data []byte, write func([]byte)) {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	sv.pending = data
	sv.has = true
	if sv.busy {
		return
	}
	sv.busy = true
	sv.idle = make(chan struct{})
	go sv.loop(write)
}

func (sv *saver) loop(write func([]byte)) {
	for {
		sv.mu.Lock()
		if !sv.has {
			sv.busy = false
			close(sv.idle)
			sv.mu.Unlock()
			return
		}
		data := sv.pending
		sv.pending = nil
		sv.has = false
		sv.mu.Unlock()

		write(data)
	}
}

func (sv *saver) idleCh() <-chan struct{} {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	return sv.idle
}
