package app

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"gopherai-docchat/internal/model"
	"gopherai-docchat/internal/repository"
	"gopherai-docchat/internal/vectorstore"
	"gopherai-docchat/internal/vectorstore/memory"
)

var errBoom = errors.New("boom")

type memDocs struct {
	mu        sync.Mutex
	next      uint
	docs      map[uint]model.Document
	createErr error
	deleteErr error
}

func newMemDocs() *memDocs { return &memDocs{docs: map[uint]model.Document{}} }

func (m *memDocs) Create(_ context.Context, doc *model.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.next++
	doc.ID = m.next
	m.docs[doc.ID] = *doc
	return nil
}

func (m *memDocs) GetByID(_ context.Context, id uint) (*model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (m *memDocs) GetByCollectionName(_ context.Context, name string) (*model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.docs {
		if d.CollectionName == name {
			d := d
			return &d, nil
		}
	}
	return nil, nil
}

func (m *memDocs) List(context.Context) ([]model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Document, 0, len(m.docs))
	for _, d := range m.docs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memDocs) Delete(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.docs, id)
	return nil
}

// memSessions implements both SessionStore and MessageStore.
type memSessions struct {
	mu        sync.Mutex
	next      uint
	sessions  map[uint]*model.ChatSession
	appendErr error
}

func newMemSessions() *memSessions { return &memSessions{sessions: map[uint]*model.ChatSession{}} }

func (m *memSessions) Create(_ context.Context, s *model.ChatSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	s.ID = m.next
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	cp := *s
	cp.Messages = append([]model.Message(nil), s.Messages...)
	m.sessions[s.ID] = &cp
	return nil
}

func (m *memSessions) GetByID(_ context.Context, id uint) (*model.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	cp.Messages = append([]model.Message(nil), s.Messages...)
	return &cp, nil
}

func (m *memSessions) ListByDocumentID(_ context.Context, documentID uint) ([]model.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ChatSession
	for _, s := range m.sessions {
		if s.DocumentID == documentID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (m *memSessions) Delete(_ context.Context, id uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	return ok, nil
}

func (m *memSessions) AppendTurn(_ context.Context, sessionID uint, messages ...model.Message) (*repository.AppendResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return nil, m.appendErr
	}
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	for _, msg := range messages {
		msg.SessionID = sessionID
		msg.Seq = len(s.Messages) + 1
		s.Messages = append(s.Messages, msg)
	}
	s.UpdatedAt = time.Now()
	return &repository.AppendResult{MessageCount: len(s.Messages), UpdatedAt: s.UpdatedAt}, nil
}

func (m *memSessions) StatsBySessionIDs(_ context.Context, ids []uint) (map[uint]repository.MessageStat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[uint]repository.MessageStat{}
	for _, id := range ids {
		s, ok := m.sessions[id]
		if !ok || len(s.Messages) == 0 {
			continue
		}
		last := s.Messages[len(s.Messages)-1]
		out[id] = repository.MessageStat{Count: len(s.Messages), Last: &last}
	}
	return out, nil
}

type memCache struct {
	mu          sync.Mutex
	entries     map[uint]model.ChatSession
	dirty       map[uint]bool
	generations map[uint]int64
	hits        int
	invalidated int
	staleSets   int
}

func newMemCache() *memCache {
	return &memCache{
		entries:     map[uint]model.ChatSession{},
		dirty:       map[uint]bool{},
		generations: map[uint]int64{},
	}
}

func (c *memCache) Get(_ context.Context, id uint) (*model.ChatSession, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.entries[id]
	if !ok {
		return nil, false, nil
	}
	c.hits++
	return &s, true, nil
}

func (c *memCache) Generation(_ context.Context, id uint) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[id], nil
}

func (c *memCache) Set(_ context.Context, s *model.ChatSession, generation int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[s.ID] != generation || c.dirty[s.ID] {
		c.staleSets++
		return false, nil
	}
	c.entries[s.ID] = *s
	return true, nil
}

func (c *memCache) Invalidate(_ context.Context, id uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated++
	c.generations[id]++
	c.dirty[id] = true
	delete(c.entries, id)
	return nil
}

func (c *memCache) IsDirty(_ context.Context, id uint) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty[id], nil
}

func (c *memCache) clearDirty() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dirty = map[uint]bool{}
}

// hashEmbedder gives each text a small deterministic vector.
type hashEmbedder struct {
	err   error
	calls int
}

func (e *hashEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), float32(strings.Count(t, " ")) + 1, 1}
	}
	return out, nil
}

// flakyStore wraps the in-memory index with injectable failures.
type flakyStore struct {
	*memory.Store
	upsertErr error
	deleteErr error
	deletes   []string
}

func newFlakyStore() *flakyStore { return &flakyStore{Store: memory.NewStore()} }

func (f *flakyStore) Upsert(ctx context.Context, name string, points []vectorstore.Point) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	return f.Store.Upsert(ctx, name, points)
}

func (f *flakyStore) DeleteCollection(ctx context.Context, name string) error {
	f.deletes = append(f.deletes, name)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.Store.DeleteCollection(ctx, name)
}

type memArchive struct {
	objects map[string][]byte
}

func newMemArchive() *memArchive { return &memArchive{objects: map[string][]byte{}} }

func (a *memArchive) Put(_ context.Context, key, _ string, data []byte) error {
	a.objects[key] = data
	return nil
}

func (a *memArchive) Remove(_ context.Context, key string) error {
	delete(a.objects, key)
	return nil
}

type memQueue struct {
	events []model.CollectionCleanupEvent
	err    error
}

func (q *memQueue) Publish(_ context.Context, e model.CollectionCleanupEvent) error {
	if q.err != nil {
		return q.err
	}
	q.events = append(q.events, e)
	return nil
}

type stubPipeline struct {
	answer   string
	err      error
	sessions []model.ChatSession
}

func (p *stubPipeline) Answer(_ context.Context, session *model.ChatSession, question string) (string, error) {
	p.sessions = append(p.sessions, *session)
	if p.err != nil {
		return "", p.err
	}
	return p.answer + " (" + question + ")", nil
}
