package results

import (
	"sync"
	"time"

	"github.com/desertthunder/booksearch/internal/models"
)

// Change is delivered to subscribers after a replacement.
type Change struct {
	Version uint64
	Len     int
	At      time.Time
}

// List coordinates concurrent access to the current result sequence.
type List struct {
	mu      sync.RWMutex
	items   []models.Book
	version uint64
	updated time.Time

	subMu  sync.Mutex
	nextID int
	subs   map[int]chan Change
}

// NewList returns an empty list.
func NewList() *List {
	return &List{subs: make(map[int]chan Change)}
}

// Current returns a copy of the installed sequence.
func (l *List) Current() []models.Book {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneBooks(l.items)
}

// ReplaceAll discards the previous contents, installs a copy of items and notifies subscribers.
func (l *List) ReplaceAll(items []models.Book) {
	l.mu.Lock()
	l.items = cloneBooks(items)
	l.version++
	l.updated = time.Now()
	change := Change{Version: l.version, Len: len(l.items), At: l.updated}
	l.mu.Unlock()

	l.notify(change)
}

// Len returns the number of installed items.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// At returns the item at index i by value.
func (l *List) At(i int) (models.Book, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i < 0 || i >= len(l.items) {
		return models.Book{}, false
	}
	return l.items[i], true
}

// Version counts replacements; zero means the list was never populated.
func (l *List) Version() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.version
}

// UpdatedAt returns the time of the last replacement.
func (l *List) UpdatedAt() time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.updated
}

// Subscribe registers for change notifications.
//
// The returned channel has a buffer of one; a pending notification is replaced by the newest.
// Call the returned func to unsubscribe; it closes the channel.
func (l *List) Subscribe() (<-chan Change, func()) {
	l.subMu.Lock()
	defer l.subMu.Unlock()

	if l.subs == nil {
		l.subs = make(map[int]chan Change)
	}

	id := l.nextID
	l.nextID++
	ch := make(chan Change, 1)
	l.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			l.subMu.Lock()
			defer l.subMu.Unlock()
			delete(l.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

func (l *List) notify(change Change) {
	l.subMu.Lock()
	defer l.subMu.Unlock()

	for _, ch := range l.subs {
		select {
		case ch <- change:
			continue
		default:
		}
		// drop the stale notification and deliver the newest
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- change:
		default:
		}
	}
}

func cloneBooks(items []models.Book) []models.Book {
	dup := make([]models.Book, len(items))
	copy(dup, items)
	return dup
}
