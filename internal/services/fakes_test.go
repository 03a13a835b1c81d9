package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"roastme-backend/internal/models"
	"roastme-backend/internal/repository"
)

type pair struct{ target, fingerprint string }

// fakeRoastStore keeps roasts and vote rows in memory with the same
// visibility and toggle rules as the Postgres repository
type fakeRoastStore struct {
	mu      sync.Mutex
	roasts  map[string]*models.PublicRoast
	votes   map[pair]time.Time
	failErr error
	since   time.Time
}

func newFakeRoastStore() *fakeRoastStore {
	return &fakeRoastStore{
		roasts: make(map[string]*models.PublicRoast),
		votes:  make(map[pair]time.Time),
	}
}

func (f *fakeRoastStore) Create(_ context.Context, roast *models.PublicRoast) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	cp := *roast
	f.roasts[roast.ID] = &cp
	return nil
}

func (f *fakeRoastStore) GetByID(_ context.Context, id string) (*models.PublicRoast, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	roast, ok := f.roasts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *roast
	return &cp, nil
}

func (f *fakeRoastStore) ranked(fingerprint string, keep func(*models.PublicRoast) bool) []*models.PublicRoast {
	out := make([]*models.PublicRoast, 0)
	for _, roast := range f.roasts {
		if !roast.IsActive || !keep(roast) {
			continue
		}
		cp := *roast
		_, cp.HasVoted = f.votes[pair{roast.ID, fingerprint}]
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Votes != out[j].Votes {
			return out[i].Votes > out[j].Votes
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return items[:0]
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func (f *fakeRoastStore) Leaderboard(_ context.Context, fingerprint string, limit, offset int) ([]*models.PublicRoast, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	all := f.ranked(fingerprint, func(*models.PublicRoast) bool { return true })
	return paginate(all, limit, offset), nil
}

func (f *fakeRoastStore) Trending(_ context.Context, fingerprint string, since time.Time, limit int) ([]*models.PublicRoast, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.since = since
	all := f.ranked(fingerprint, func(r *models.PublicRoast) bool { return r.CreatedAt.After(since) })
	return paginate(all, limit, 0), nil
}

func (f *fakeRoastStore) ToggleVote(_ context.Context, roastID, fingerprint string, at time.Time) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return 0, false, f.failErr
	}
	roast, ok := f.roasts[roastID]
	if !ok || !roast.IsActive {
		return 0, false, repository.ErrNotFound
	}
	key := pair{roastID, fingerprint}
	if _, voted := f.votes[key]; voted {
		delete(f.votes, key)
		if roast.Votes > 0 {
			roast.Votes--
		}
		return roast.Votes, false, nil
	}
	f.votes[key] = at
	roast.Votes++
	return roast.Votes, true, nil
}

func (f *fakeRoastStore) ListAll(_ context.Context, limit, offset int) ([]*models.PublicRoast, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := make([]*models.PublicRoast, 0, len(f.roasts))
	for _, roast := range f.roasts {
		cp := *roast
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return paginate(all, limit, offset), len(all), nil
}

func (f *fakeRoastStore) Deactivate(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	roast, ok := f.roasts[id]
	if !ok {
		return repository.ErrNotFound
	}
	roast.IsActive = false
	return nil
}

func (f *fakeRoastStore) voteRows(roastID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for key := range f.votes {
		if key.target == roastID {
			n++
		}
	}
	return n
}

type fakeReaction struct {
	emoji string
	at    time.Time
}

// fakeStoryStore mirrors the story repository's liveness and dedup rules
type fakeStoryStore struct {
	mu        sync.Mutex
	stories   map[string]*models.RoastStory
	views     map[pair]time.Time
	reactions map[pair]fakeReaction
	failErr   error
}

func newFakeStoryStore() *fakeStoryStore {
	return &fakeStoryStore{
		stories:   make(map[string]*models.RoastStory),
		views:     make(map[pair]time.Time),
		reactions: make(map[pair]fakeReaction),
	}
}

func (f *fakeStoryStore) Create(_ context.Context, story *models.RoastStory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	cp := *story
	f.stories[story.ID] = &cp
	return nil
}

func (f *fakeStoryStore) decorate(story *models.RoastStory, fingerprint string) *models.RoastStory {
	cp := *story
	cp.ReactionCount = 0
	for key := range f.reactions {
		if key.target == story.ID {
			cp.ReactionCount++
		}
	}
	if r, ok := f.reactions[pair{story.ID, fingerprint}]; ok {
		emoji := r.emoji
		cp.UserReaction = &emoji
	}
	_, cp.HasViewed = f.views[pair{story.ID, fingerprint}]
	return &cp
}

func (f *fakeStoryStore) Active(_ context.Context, fingerprint string, now time.Time) ([]*models.RoastStory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return nil, f.failErr
	}
	out := make([]*models.RoastStory, 0)
	for _, story := range f.stories {
		if story.Live(now) {
			out = append(out, f.decorate(story, fingerprint))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStoryStore) GetLive(_ context.Context, id, fingerprint string, now time.Time) (*models.RoastStory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	story, ok := f.stories[id]
	if !ok || !story.Live(now) {
		return nil, repository.ErrNotFound
	}
	return f.decorate(story, fingerprint), nil
}

func (f *fakeStoryStore) RecordView(_ context.Context, id, fingerprint string, now time.Time) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return 0, false, f.failErr
	}
	story, ok := f.stories[id]
	if !ok || !story.Live(now) {
		return 0, false, repository.ErrNotFound
	}
	key := pair{id, fingerprint}
	if _, seen := f.views[key]; seen {
		return story.Views, false, nil
	}
	f.views[key] = now
	story.Views++
	return story.Views, true, nil
}

func (f *fakeStoryStore) React(_ context.Context, id, fingerprint, emoji string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	story, ok := f.stories[id]
	if !ok || !story.Live(now) {
		return repository.ErrNotFound
	}
	f.reactions[pair{id, fingerprint}] = fakeReaction{emoji: emoji, at: now}
	return nil
}

func (f *fakeStoryStore) ReactionCount(_ context.Context, id string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for key := range f.reactions {
		if key.target == id {
			n++
		}
	}
	return n, nil
}

func (f *fakeStoryStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return 0, f.failErr
	}
	var n int64
	for id, story := range f.stories {
		if story.ExpiresAt.Before(now) {
			f.deleteLocked(id)
			n++
		}
	}
	return n, nil
}

func (f *fakeStoryStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.stories[id]; !ok {
		return repository.ErrNotFound
	}
	f.deleteLocked(id)
	return nil
}

func (f *fakeStoryStore) deleteLocked(id string) {
	delete(f.stories, id)
	for key := range f.views {
		if key.target == id {
			delete(f.views, key)
		}
	}
	for key := range f.reactions {
		if key.target == id {
			delete(f.reactions, key)
		}
	}
}

func (f *fakeStoryStore) ListAll(_ context.Context, limit, offset int) ([]*models.RoastStory, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := make([]*models.RoastStory, 0, len(f.stories))
	for _, story := range f.stories {
		cp := *story
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return paginate(all, limit, offset), len(all), nil
}

func (f *fakeStoryStore) engagementRows(id string) (views, reactions int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key := range f.views {
		if key.target == id {
			views++
		}
	}
	for key := range f.reactions {
		if key.target == id {
			reactions++
		}
	}
	return views, reactions
}

func (f *fakeStoryStore) reactionRows(id, fingerprint string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.reactions[pair{id, fingerprint}]; ok {
		return []string{r.emoji}
	}
	return nil
}

type fakeSettingsStore struct {
	mu       sync.Mutex
	settings map[string]*models.Setting
	getErr   error
}

func newFakeSettingsStore(values map[string]string) *fakeSettingsStore {
	f := &fakeSettingsStore{settings: make(map[string]*models.Setting)}
	i := int64(1)
	for key, value := range values {
		f.settings[key] = &models.Setting{ID: i, Key: key, Value: []byte(value), Group: "features"}
		i++
	}
	return f
}

func (f *fakeSettingsStore) All(context.Context) ([]*models.Setting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Setting, 0, len(f.settings))
	for _, s := range f.settings {
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (f *fakeSettingsStore) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	s, ok := f.settings[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s.Value, nil
}

func (f *fakeSettingsStore) Update(_ context.Context, key string, value []byte, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.settings[key]
	if !ok {
		return repository.ErrNotFound
	}
	s.Value = value
	s.UpdatedAt = now
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(event Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type staticAuthorizer struct{ err error }

func (a staticAuthorizer) Authorize(context.Context) error { return a.err }

// fixedClock returns a clock pinned to t that tests can move
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
