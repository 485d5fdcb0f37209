package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/reelclub/movienight/internal/metadata"
	"github.com/reelclub/movienight/internal/movie"
	"github.com/reelclub/movienight/internal/repository"
)

// In-memory store fakes shared by the handler tests. They mimic the
// repositories' documented error behavior (sentinels, conflict on
// duplicates, group-scoped lookups) without a database.

type fakeGroupStore struct {
	groups  map[string]repository.Group // by handle
	byID    map[uint64]repository.Group
	keys    map[string]bool // issued beta keys
	used    map[string]bool // beta keys some group signed up with
	nextID  uint64
	created []string
}

func newFakeGroupStore() *fakeGroupStore {
	return &fakeGroupStore{
		groups: map[string]repository.Group{},
		byID:   map[uint64]repository.Group{},
		keys:   map[string]bool{},
		used:   map[string]bool{},
		nextID: 1,
	}
}

func (f *fakeGroupStore) put(g repository.Group) {
	f.groups[g.Handle] = g
	f.byID[g.ID] = g
}

func (f *fakeGroupStore) Create(_ context.Context, handle, displayName, passwordHash, betaKey string, secretWord *string) (uint64, error) {
	handle = repository.NormalizeHandle(handle)
	if _, ok := f.groups[handle]; ok {
		return 0, repository.ErrHandleTaken
	}
	g := repository.Group{
		ID:           f.nextID,
		Handle:       handle,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		BetaKey:      betaKey,
		CreatedAt:    time.Now(),
	}
	if secretWord != nil {
		g.SecretWord = sql.NullString{String: *secretWord, Valid: true}
	}
	f.nextID++
	f.put(g)
	f.used[betaKey] = true
	f.created = append(f.created, handle)
	return g.ID, nil
}

func (f *fakeGroupStore) GetByHandle(_ context.Context, handle string) (repository.Group, error) {
	g, ok := f.groups[repository.NormalizeHandle(handle)]
	if !ok {
		return repository.Group{}, repository.ErrNotFound
	}
	return g, nil
}

func (f *fakeGroupStore) GetByID(_ context.Context, id uint64) (repository.Group, error) {
	g, ok := f.byID[id]
	if !ok {
		return repository.Group{}, repository.ErrNotFound
	}
	return g, nil
}

func (f *fakeGroupStore) BetaKeyExists(_ context.Context, key string) (bool, error) {
	return f.keys[key], nil
}

func (f *fakeGroupStore) BetaKeyInUse(_ context.Context, key string) (bool, error) {
	return f.used[key], nil
}

type fakeSessionStore struct {
	sessions map[uint64]repository.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[uint64]repository.Session{}}
}

func (f *fakeSessionStore) IssueOrExtend(_ context.Context, groupID uint64, ttl time.Duration) (repository.Session, error) {
	if s, ok := f.sessions[groupID]; ok {
		s.ExpiresAt = time.Now().UTC().Add(ttl)
		f.sessions[groupID] = s
		return s, nil
	}
	s := repository.Session{
		Token:     "tok-" + time.Now().Format("150405.000000000"),
		GroupID:   groupID,
		ExpiresAt: time.Now().UTC().Add(ttl),
	}
	f.sessions[groupID] = s
	return s, nil
}

type fakeNightStore struct {
	nights map[uint64]repository.MovieNight
	nextID uint64
}

func newFakeNightStore() *fakeNightStore {
	return &fakeNightStore{nights: map[uint64]repository.MovieNight{}, nextID: 1}
}

func (f *fakeNightStore) Create(_ context.Context, n *repository.MovieNight) error {
	n.ID = f.nextID
	f.nextID++
	if n.Nominations == nil {
		n.Nominations = map[string]movie.Movie{}
	}
	f.nights[n.ID] = cloneNight(*n)
	return nil
}

func (f *fakeNightStore) GetByID(_ context.Context, id uint64) (repository.MovieNight, error) {
	n, ok := f.nights[id]
	if !ok {
		return repository.MovieNight{}, repository.ErrNotFound
	}
	return cloneNight(n), nil
}

func (f *fakeNightStore) GetForGroup(_ context.Context, id, groupID uint64) (repository.MovieNight, error) {
	n, ok := f.nights[id]
	if !ok || n.GroupID != groupID {
		return repository.MovieNight{}, repository.ErrNotFound
	}
	return cloneNight(n), nil
}

func (f *fakeNightStore) ListByGroup(_ context.Context, groupID uint64) ([]repository.MovieNight, error) {
	out := make([]repository.MovieNight, 0)
	for _, n := range f.nights {
		if n.GroupID == groupID {
			out = append(out, cloneNight(n))
		}
	}
	return out, nil
}

func (f *fakeNightStore) SaveNominations(_ context.Context, id uint64, nominations map[string]movie.Movie) error {
	n, ok := f.nights[id]
	if !ok {
		return repository.ErrNotFound
	}
	n.Nominations = nominations
	f.nights[id] = n
	return nil
}

func (f *fakeNightStore) SetSelected(_ context.Context, id uint64, selected *string) error {
	n, ok := f.nights[id]
	if !ok {
		return repository.ErrNotFound
	}
	if selected == nil {
		n.SelectedID = sql.NullString{}
	} else {
		n.SelectedID = sql.NullString{String: *selected, Valid: true}
	}
	f.nights[id] = n
	return nil
}

func (f *fakeNightStore) Delete(_ context.Context, id, groupID uint64) error {
	n, ok := f.nights[id]
	if !ok || n.GroupID != groupID {
		return repository.ErrNotFound
	}
	delete(f.nights, id)
	return nil
}

func (f *fakeNightStore) WatchedMovieIDs(_ context.Context, groupID uint64, now time.Time) ([]string, error) {
	seen := map[string]bool{}
	out := make([]string, 0)
	for _, n := range f.nights {
		if n.GroupID != groupID || !n.SelectedID.Valid || n.Upcoming(now) {
			continue
		}
		if !seen[n.SelectedID.String] {
			seen[n.SelectedID.String] = true
			out = append(out, n.SelectedID.String)
		}
	}
	return out, nil
}

func cloneNight(n repository.MovieNight) repository.MovieNight {
	noms := make(map[string]movie.Movie, len(n.Nominations))
	for k, v := range n.Nominations {
		noms[k] = v
	}
	n.Nominations = noms
	return n
}

type fakeRosterStore struct {
	entries map[string]repository.RosterEntry
}

func newFakeRosterStore() *fakeRosterStore {
	return &fakeRosterStore{entries: map[string]repository.RosterEntry{}}
}

func (f *fakeRosterStore) Add(_ context.Context, m movie.Movie) error {
	if _, ok := f.entries[m.ID]; ok {
		return repository.ErrConflict
	}
	f.entries[m.ID] = repository.RosterEntry{IMDBID: m.ID, Metadata: m, CreatedAt: time.Now()}
	return nil
}

func (f *fakeRosterStore) Remove(_ context.Context, imdbID string) error {
	if _, ok := f.entries[imdbID]; !ok {
		return repository.ErrNotFound
	}
	delete(f.entries, imdbID)
	return nil
}

func (f *fakeRosterStore) List(_ context.Context) ([]repository.RosterEntry, error) {
	out := make([]repository.RosterEntry, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e)
	}
	return out, nil
}

type fakeMetadataClient struct {
	movies map[string]movie.Movie
	err    error
}

func (f *fakeMetadataClient) ByID(_ context.Context, imdbID string) (movie.Movie, error) {
	if f.err != nil {
		return movie.Movie{}, f.err
	}
	m, ok := f.movies[imdbID]
	if !ok {
		return movie.Movie{}, metadata.ErrNotFound
	}
	return m, nil
}

func (f *fakeMetadataClient) Search(_ context.Context, _ string, _ int) (metadata.SearchResult, error) {
	if f.err != nil {
		return metadata.SearchResult{}, f.err
	}
	items := make([]metadata.SearchItem, 0, len(f.movies))
	for _, m := range f.movies {
		items = append(items, metadata.SearchItem{ID: m.ID, Title: m.Title, Year: m.Year})
	}
	return metadata.SearchResult{Items: items, Total: len(items)}, nil
}
