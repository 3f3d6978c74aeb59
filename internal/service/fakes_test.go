package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/sakif/tinkerer-vote/internal/apperror"
	"github.com/sakif/tinkerer-vote/internal/auth"
	"github.com/sakif/tinkerer-vote/internal/model"
)

// discardLogger keeps test output quiet.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type votePair struct{ user, idea string }

// fakeStore is an in-memory implementation of every repository interface.
// It mirrors the store's semantics closely enough for service tests:
// NotFound errors, cascade on delete and toggle-with-count.
type fakeStore struct {
	mu         sync.Mutex
	users      map[string]*model.User
	byExternal map[string]string
	ideas      map[string]*model.Idea
	votes      map[votePair]struct{}
	nextID     int
	clock      time.Time

	// set to simulate database failures
	upsertErr error
	createErr error
	toggleErr error
	statsErr  error
	statsHits int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:      make(map[string]*model.User),
		byExternal: make(map[string]string),
		ideas:      make(map[string]*model.Idea),
		votes:      make(map[votePair]struct{}),
		clock:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeStore) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeStore) Upsert(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}

	now := f.tick()
	if id, ok := f.byExternal[user.ExternalID]; ok {
		existing := f.users[id]
		existing.DisplayName = user.DisplayName
		existing.AvatarRef = user.AvatarRef
		existing.IsAdmin = user.IsAdmin
		existing.LastLoginAt = now
		*user = *existing
		return nil
	}

	user.ID = f.id("user")
	user.CreatedAt = now
	user.LastLoginAt = now
	stored := *user
	f.users[user.ID] = &stored
	f.byExternal[user.ExternalID] = user.ID
	return nil
}

func (f *fakeStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeStore) Create(_ context.Context, idea *model.Idea) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	idea.ID = f.id("idea")
	idea.CreatedAt = f.tick()
	idea.UpdatedAt = idea.CreatedAt
	stored := *idea
	f.ideas[idea.ID] = &stored
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (*model.Idea, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idea, ok := f.ideas[id]
	if !ok {
		return nil, apperror.NotFound("idea", id)
	}
	copied := *idea
	return &copied, nil
}

func (f *fakeStore) Update(_ context.Context, idea *model.Idea) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.ideas[idea.ID]
	if !ok {
		return apperror.NotFound("idea", idea.ID)
	}
	existing.Title = idea.Title
	existing.Description = idea.Description
	existing.UpdatedAt = f.tick()
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.ideas[id]; !ok {
		return apperror.NotFound("idea", id)
	}
	delete(f.ideas, id)
	for p := range f.votes {
		if p.idea == id {
			delete(f.votes, p)
		}
	}
	return nil
}

func (f *fakeStore) ToggleVote(_ context.Context, userID, ideaID string) (model.VoteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.toggleErr != nil {
		return model.VoteResult{}, f.toggleErr
	}
	if _, ok := f.ideas[ideaID]; !ok {
		return model.VoteResult{}, apperror.NotFound("idea", ideaID)
	}

	var res model.VoteResult
	p := votePair{userID, ideaID}
	if _, ok := f.votes[p]; ok {
		delete(f.votes, p)
	} else {
		f.votes[p] = struct{}{}
		res.Voted = true
	}
	res.VoteCount = f.countVotes(ideaID)
	return res, nil
}

func (f *fakeStore) countVotes(ideaID string) int {
	n := 0
	for p := range f.votes {
		if p.idea == ideaID {
			n++
		}
	}
	return n
}

func (f *fakeStore) Leaderboard(_ context.Context, viewerID string) ([]model.IdeaView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	views := []model.IdeaView{}
	for _, idea := range f.ideas {
		owner := f.users[idea.OwnerID]
		_, voted := f.votes[votePair{viewerID, idea.ID}]
		views = append(views, model.IdeaView{
			ID:          idea.ID,
			Title:       idea.Title,
			Description: idea.Description,
			CreatedAt:   idea.CreatedAt,
			UpdatedAt:   idea.UpdatedAt,
			Author: model.Author{
				ID:         owner.ID,
				Username:   owner.DisplayName,
				ExternalID: owner.ExternalID,
				AvatarRef:  owner.AvatarRef,
			},
			VoteCount: f.countVotes(idea.ID),
			UserVoted: viewerID != "" && voted,
		})
	}

	sort.Slice(views, func(i, j int) bool {
		a, b := views[i], views[j]
		if a.VoteCount != b.VoteCount {
			return a.VoteCount > b.VoteCount
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return views, nil
}

func (f *fakeStore) Stats(_ context.Context) (model.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statsHits++
	if f.statsErr != nil {
		return model.Stats{}, f.statsErr
	}
	return model.Stats{Ideas: len(f.ideas), Votes: len(f.votes), Members: len(f.users)}, nil
}

// addUser inserts a user directly and returns it.
func (f *fakeStore) addUser(externalID, name string, admin bool) *model.User {
	u := &model.User{ExternalID: externalID, DisplayName: name, IsAdmin: admin}
	if err := f.Upsert(context.Background(), u); err != nil {
		panic(err)
	}
	return u
}

// fakeProvider stands in for the Discord gateway.
type fakeProvider struct {
	profile    *auth.DiscordProfile
	guilds     map[string]struct{}
	exchangeFn func(code string) (*oauth2.Token, error)
	profileErr error
	guildsErr  error
}

func (p *fakeProvider) Exchange(_ context.Context, code string) (*oauth2.Token, error) {
	if p.exchangeFn != nil {
		return p.exchangeFn(code)
	}
	return &oauth2.Token{AccessToken: "tok-" + code}, nil
}

func (p *fakeProvider) FetchProfile(_ context.Context, _ *oauth2.Token) (*auth.DiscordProfile, error) {
	if p.profileErr != nil {
		return nil, p.profileErr
	}
	copied := *p.profile
	return &copied, nil
}

func (p *fakeProvider) IsMemberOf(_ context.Context, _ *oauth2.Token, guildID string) (bool, error) {
	if p.guildsErr != nil {
		return false, p.guildsErr
	}
	_, ok := p.guilds[guildID]
	return ok, nil
}

// fakeStatsCache is a StatsCache backed by a single slot.
type fakeStatsCache struct {
	stats  *model.Stats
	getErr error
	setErr error
	sets   int
}

func (c *fakeStatsCache) Get(_ context.Context) (model.Stats, bool, error) {
	if c.getErr != nil {
		return model.Stats{}, false, c.getErr
	}
	if c.stats == nil {
		return model.Stats{}, false, nil
	}
	return *c.stats, true, nil
}

func (c *fakeStatsCache) Set(_ context.Context, s model.Stats) error {
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	c.stats = &s
	return nil
}
