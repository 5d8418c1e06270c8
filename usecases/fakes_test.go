package usecases

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"articles-server/entities"
	"articles-server/repositories"

	"github.com/google/uuid"
)

var errStoreDown = errors.New("store unavailable")

type fakeUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*entities.User
	failGet error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: map[string]*entities.User{}}
}

func (f *fakeUserRepo) Create(_ context.Context, u *entities.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == u.Email || existing.Username == u.Username {
			return repositories.ErrDuplicate
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) find(match func(*entities.User) bool) (*entities.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet != nil {
		return nil, f.failGet
	}
	for _, u := range f.byID {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*entities.User, error) {
	return f.find(func(u *entities.User) bool { return u.ID == id })
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*entities.User, error) {
	return f.find(func(u *entities.User) bool { return u.Email == email })
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*entities.User, error) {
	return f.find(func(u *entities.User) bool { return u.Username == username })
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*entities.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]*entities.Session{}}
}

func (f *fakeSessionRepo) Create(_ context.Context, s *entities.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	cp := *s
	f.sessions[s.ID] = &cp
	return nil
}

func (f *fakeSessionRepo) GetByID(_ context.Context, id string) (*entities.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessionRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, s := range f.sessions {
		if s.Expired(now) {
			delete(f.sessions, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeSessionRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

type fakeArticleRepo struct {
	mu       sync.Mutex
	articles map[string]*entities.Article
	seq      int
	failAll  error
}

func newFakeArticleRepo() *fakeArticleRepo {
	return &fakeArticleRepo{articles: map[string]*entities.Article{}}
}

func (f *fakeArticleRepo) Create(_ context.Context, a *entities.Article) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	f.seq++
	a.CreatedAt = time.Date(2024, 1, 1, 0, 0, f.seq, 0, time.UTC)
	cp := *a
	f.articles[a.ID] = &cp
	return nil
}

func (f *fakeArticleRepo) GetByID(_ context.Context, id string) (*entities.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.articles[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeArticleRepo) list(match func(*entities.Article) bool) ([]entities.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll != nil {
		return nil, f.failAll
	}
	out := []entities.Article{}
	for _, a := range f.articles {
		if match(a) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeArticleRepo) GetAll(_ context.Context) ([]entities.Article, error) {
	return f.list(func(*entities.Article) bool { return true })
}

func (f *fakeArticleRepo) GetByUserID(_ context.Context, userID string) ([]entities.Article, error) {
	return f.list(func(a *entities.Article) bool { return a.UserID == userID })
}

func (f *fakeArticleRepo) Update(_ context.Context, a *entities.Article) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.articles[a.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *a
	f.articles[a.ID] = &cp
	return nil
}

func (f *fakeArticleRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.articles[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.articles, id)
	return nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []ArticleEvent
}

func (n *recordingNotifier) Publish(e ArticleEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.events))
	for _, e := range n.events {
		out = append(out, e.Type)
	}
	return out
}
