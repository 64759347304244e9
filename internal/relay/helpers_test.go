package relay

import (
	"errors"
	"sync"
)

type fakeListener struct {
	id   string
	open bool
	busy bool
	err  error
	got  [][]byte
}

func newFakeListener(id string) *fakeListener {
	return &fakeListener{id: id, open: true}
}

func (f *fakeListener) ID() string   { return f.id }
func (f *fakeListener) IsOpen() bool { return f.open }

func (f *fakeListener) TrySend(chunk []byte) error {
	if f.err != nil {
		return f.err
	}
	if !f.open {
		return ErrListenerClosed
	}
	if f.busy {
		return ErrListenerBusy
	}
	f.got = append(f.got, chunk)
	return nil
}

type memStore struct {
	mu    sync.Mutex
	saves [][]byte
	fail  error
}

func (m *memStore) Save(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.saves = append(m.saves, append([]byte(nil), data...))
	return nil
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saves)
}

func (m *memStore) last() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.saves) == 0 {
		return nil
	}
	return m.saves[len(m.saves)-1]
}

var errDiskFull = errors.New("disk full")
