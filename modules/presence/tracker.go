package presence

import (
	"context"
	"log"
	"sync"
	"time"
)

// Status is the last known presence of one identity.
type Status struct {
	UserID      string    `json:"userId"`
	Online      bool      `json:"online"`
	RoomID      string    `json:"roomId,omitempty"`
	Connections int       `json:"connections"`
	LastSeen    time.Time `json:"lastSeen"`
}

type entry struct {
	rooms    map[string]string // connectionID -> roomID
	lastSeen time.Time
	lastRoom string
}

type updateKind int

const (
	updateJoined updateKind = iota
	updateLeft
	updateRenamed
)

type update struct {
	kind         updateKind
	userID       string
	newUserID    string
	connectionID string
	roomID       string
	at           time.Time
}

// Tracker folds room membership events into per-identity presence. Updates
// are applied in order by a single loop started with Run.
type Tracker struct {
	entries map[string]*entry
	updates chan update
	done    chan struct{}
	mu      sync.RWMutex
}

// NewTracker creates a new Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		entries: make(map[string]*entry),
		updates: make(chan update, 256),
		done:    make(chan struct{}),
	}
}

// Run applies queued updates until ctx is cancelled.
func (t *Tracker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Println("[presence] Tracker shutting down...")
			close(t.done)
			return
		case u := <-t.updates:
			t.apply(u)
		}
	}
}

// Wait blocks until the tracker has stopped.
func (t *Tracker) Wait() {
	<-t.done
}

// Joined records that connectionID of userID entered roomID.
func (t *Tracker) Joined(userID, connectionID, roomID string, at time.Time) {
	t.enqueue(update{kind: updateJoined, userID: userID, connectionID: connectionID, roomID: roomID, at: at})
}

// Left records that connectionID of userID left roomID.
func (t *Tracker) Left(userID, connectionID, roomID string, at time.Time) {
	t.enqueue(update{kind: updateLeft, userID: userID, connectionID: connectionID, roomID: roomID, at: at})
}

// Renamed moves connectionID from oldUserID to newUserID. Other connections
// still claiming oldUserID stay where they are.
func (t *Tracker) Renamed(oldUserID, newUserID, connectionID string, at time.Time) {
	t.enqueue(update{kind: updateRenamed, userID: oldUserID, newUserID: newUserID, connectionID: connectionID, at: at})
}

func (t *Tracker) enqueue(u update) {
	if u.userID == "" {
		return
	}
	select {
	case t.updates <- u:
	case <-t.done:
	}
}

func (t *Tracker) apply(u update) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch u.kind {
	case updateJoined:
		e := t.entry(u.userID)
		e.rooms[u.connectionID] = u.roomID
		e.lastRoom = u.roomID
		e.touch(u.at)
	case updateLeft:
		e := t.entry(u.userID)
		// A join for another room may already have been applied.
		if e.rooms[u.connectionID] == u.roomID {
			delete(e.rooms, u.connectionID)
		}
		e.touch(u.at)
	case updateRenamed:
		old, ok := t.entries[u.userID]
		if !ok || u.newUserID == "" || u.newUserID == u.userID {
			return
		}
		old.touch(u.at)
		roomID, joined := old.rooms[u.connectionID]
		if !joined {
			return
		}
		delete(old.rooms, u.connectionID)
		if len(old.rooms) == 0 {
			delete(t.entries, u.userID)
		}
		e := t.entry(u.newUserID)
		e.rooms[u.connectionID] = roomID
		e.lastRoom = roomID
		e.touch(u.at)
	}
}

func (t *Tracker) entry(userID string) *entry {
	e, ok := t.entries[userID]
	if !ok {
		e = &entry{rooms: make(map[string]string)}
		t.entries[userID] = e
	}
	return e
}

func (e *entry) touch(at time.Time) {
	if at.After(e.lastSeen) {
		e.lastSeen = at
	}
}

// Get returns the presence of userID. Unknown identities are reported
// offline with a zero LastSeen.
func (t *Tracker) Get(userID string) Status {
	t.mu.RLock()
	defer t.mu.RUnlock()

	status := Status{UserID: userID}
	e, ok := t.entries[userID]
	if !ok {
		return status
	}
	status.Connections = len(e.rooms)
	status.Online = status.Connections > 0
	status.LastSeen = e.lastSeen
	if status.Online {
		status.RoomID = e.lastRoom
		if _, stillThere := roomSet(e.rooms)[e.lastRoom]; !stillThere {
			for _, roomID := range e.rooms {
				status.RoomID = roomID
				break
			}
		}
	}
	return status
}

// OnlineCount returns the number of identities with at least one joined
// connection.
func (t *Tracker) OnlineCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	count := 0
	for _, e := range t.entries {
		if len(e.rooms) > 0 {
			count++
		}
	}
	return count
}

func roomSet(rooms map[string]string) map[string]struct{} {
	set := make(map[string]struct{}, len(rooms))
	for _, roomID := range rooms {
		set[roomID] = struct{}{}
	}
	return set
}
