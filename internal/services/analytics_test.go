package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"roastme-backend/internal/models"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnalyticsStore struct {
	mu        sync.Mutex
	events    []*models.AnalyticsEvent
	failErr   error
	listCalls int
	lastName  string
	lastLimit int
}

func (f *fakeAnalyticsStore) Record(_ context.Context, event *models.AnalyticsEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	event.ID = int64(len(f.events) + 1)
	f.events = append(f.events, event)
	return nil
}

func (f *fakeAnalyticsStore) List(_ context.Context, name string, limit int) ([]*models.AnalyticsEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	f.lastName, f.lastLimit = name, limit
	out := make([]*models.AnalyticsEvent, 0)
	for _, e := range f.events {
		if name == "" || e.Event == name {
			out = append(out, e)
		}
	}
	return out, f.failErr
}

func newTestAnalyticsService(auth Authorizer) (*AnalyticsService, *fakeAnalyticsStore, *fixedClock) {
	store := &fakeAnalyticsStore{}
	clock := &fixedClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewAnalyticsService(store, auth)
	svc.now = clock.now
	return svc, store, clock
}

func TestTrack_FillsDefaults(t *testing.T) {
	svc, store, clock := newTestAnalyticsService(staticAuthorizer{})
	ctx := context.Background()

	require.NoError(t, svc.Track(ctx, TrackEventRequest{Event: " roast_shared "}, "fp1"))
	require.NoError(t, svc.Track(ctx, TrackEventRequest{
		Event:      "page_view",
		Properties: json.RawMessage(`{"path":"/leaderboard"}`),
		Timestamp:  1700000000000,
	}, "fp2"))

	require.Len(t, store.events, 2)
	first := store.events[0]
	assert.Equal(t, "roast_shared", first.Event)
	assert.JSONEq(t, `{}`, string(first.Properties))
	assert.Equal(t, clock.now().UnixMilli(), first.Timestamp)
	assert.Equal(t, "fp1", first.UserFingerprint)

	second := store.events[1]
	assert.Equal(t, int64(1700000000000), second.Timestamp)
	assert.JSONEq(t, `{"path":"/leaderboard"}`, string(second.Properties))
}

func TestTrack_StorageFailureIsSwallowed(t *testing.T) {
	svc, store, _ := newTestAnalyticsService(staticAuthorizer{})
	store.failErr = errors.New("db down")

	assert.NoError(t, svc.Track(context.Background(), TrackEventRequest{Event: "page_view"}, "fp"))
	assert.Empty(t, store.events)
}

func TestTrack_RequiresEventName(t *testing.T) {
	svc, store, _ := newTestAnalyticsService(staticAuthorizer{})

	var verr *ValidationError
	err := svc.Track(context.Background(), TrackEventRequest{Event: "   "}, "fp")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "event", verr.Field)

	err = svc.Track(context.Background(), TrackEventRequest{Event: "x", Properties: json.RawMessage(`{bad`)}, "fp")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "properties", verr.Field)
	assert.Empty(t, store.events)
}

func TestAnalyticsList(t *testing.T) {
	svc, store, _ := newTestAnalyticsService(staticAuthorizer{})
	ctx := context.Background()
	require.NoError(t, svc.Track(ctx, TrackEventRequest{Event: "page_view"}, "fp"))
	require.NoError(t, svc.Track(ctx, TrackEventRequest{Event: "roast_shared"}, "fp"))

	events, err := svc.List(ctx, "page_view", 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, defaultAnalyticsLimit, store.lastLimit)

	_, err = svc.List(ctx, "", 5000)
	require.NoError(t, err)
	assert.Equal(t, maxAnalyticsLimit, store.lastLimit)
	assert.Equal(t, "", store.lastName)
}

func TestAnalyticsList_Unauthorized(t *testing.T) {
	svc, store, _ := newTestAnalyticsService(staticAuthorizer{err: ErrUnauthorized})

	_, err := svc.List(context.Background(), "", 10)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Zero(t, store.listCalls)
}
