package editor

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Candidate is one completion offered for a partially typed mention.
type Candidate struct {
	Text    string
	Label   string
	Payload map[string]string
}

// LookupFunc resolves a mention token such as "@an" to candidates.
type LookupFunc func(ctx context.Context, token string) ([]Candidate, error)

type MentionState uint8

const (
	MentionIdle MentionState = iota
	MentionLoading
	MentionReady
	MentionError
)

func (s MentionState) String() string {
	switch s {
	case MentionLoading:
		return "loading"
	case MentionReady:
		return "ready"
	case MentionError:
		return "error"
	default:
		return "idle"
	}
}

// MentionKey identifies a mention being typed by the position of its sigil.
type MentionKey struct {
	Line int
	Char int
}

type MentionList struct {
	State      MentionState
	Token      string
	Candidates []Candidate
	Err        error
}

const maxLookups = 4

// MentionTracker runs lookups and publishes only the newest result per key.
// publish runs outside the tracker lock, so it may read lists back; it must
// not start or cancel lookups.
type MentionTracker struct {
	lookup  LookupFunc
	publish func(MentionKey, MentionList)
	log     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	group  errgroup.Group

	mu      sync.Mutex
	seq     map[MentionKey]uint64
	version map[MentionKey]uint64
	lists   map[MentionKey]MentionList

	// pub serializes publish calls; delivered holds the last published
	// version per key so an older state never follows a newer one.
	pub       sync.Mutex
	delivered map[MentionKey]uint64
}

func NewMentionTracker(lookup LookupFunc, publish func(MentionKey, MentionList), logger *slog.Logger) *MentionTracker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t := &MentionTracker{
		lookup:    lookup,
		publish:   publish,
		log:       logger,
		ctx:       ctx,
		cancel:    cancel,
		seq:       map[MentionKey]uint64{},
		version:   map[MentionKey]uint64{},
		lists:     map[MentionKey]MentionList{},
		delivered: map[MentionKey]uint64{},
	}
	t.group.SetLimit(maxLookups)
	return t
}

// Request starts a lookup for token. Any earlier request for key that is
// still in flight will have its result dropped.
func (t *MentionTracker) Request(key MentionKey, token string) uint64 {
	t.mu.Lock()
	t.seq[key]++
	seq := t.seq[key]
	list := MentionList{State: MentionLoading, Token: token}
	if t.lookup == nil {
		list = MentionList{State: MentionReady, Token: token}
	}
	v := t.set(key, list)
	t.mu.Unlock()
	t.deliver(key, v, list)

	if t.lookup == nil {
		return seq
	}
	t.log.Debug("mention lookup", "line", key.Line, "char", key.Char, "token", token, "seq", seq)
	t.group.Go(func() error {
		cands, err := t.lookup(t.ctx, token)
		t.finish(key, seq, token, cands, err)
		return nil
	})
	return seq
}

func (t *MentionTracker) finish(key MentionKey, seq uint64, token string, cands []Candidate, err error) {
	t.mu.Lock()
	if t.seq[key] != seq {
		t.mu.Unlock()
		t.log.Debug("mention result dropped", "line", key.Line, "char", key.Char, "token", token, "seq", seq)
		return
	}
	list := MentionList{State: MentionReady, Token: token, Candidates: cands}
	if err != nil {
		t.log.Warn("mention lookup failed", "token", token, "err", err)
		list = MentionList{State: MentionError, Token: token, Err: err}
	}
	v := t.set(key, list)
	t.mu.Unlock()
	t.deliver(key, v, list)
}

// set stores list under t.mu and returns its version.
func (t *MentionTracker) set(key MentionKey, list MentionList) uint64 {
	if list.State == MentionIdle {
		delete(t.lists, key)
	} else {
		t.lists[key] = list
	}
	t.version[key]++
	return t.version[key]
}

func (t *MentionTracker) deliver(key MentionKey, v uint64, list MentionList) {
	if t.publish == nil {
		return
	}
	t.pub.Lock()
	defer t.pub.Unlock()
	if v <= t.delivered[key] {
		return
	}
	t.delivered[key] = v
	t.publish(key, list)
}

// Cancel forgets key; results still in flight for it are dropped.
func (t *MentionTracker) Cancel(key MentionKey) {
	t.mu.Lock()
	if _, ok := t.lists[key]; !ok {
		t.mu.Unlock()
		return
	}
	t.seq[key]++
	idle := MentionList{State: MentionIdle}
	v := t.set(key, idle)
	t.mu.Unlock()
	t.deliver(key, v, idle)
}

func (t *MentionTracker) List(key MentionKey) MentionList {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lists[key]
}

// Wait blocks until every started lookup has returned.
func (t *MentionTracker) Wait() {
	_ = t.group.Wait()
}

// Close cancels the lookup context and waits for running lookups.
func (t *MentionTracker) Close() {
	t.cancel()
	t.Wait()
}
