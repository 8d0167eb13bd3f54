package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/pressroom/pressroom/internal/cache"
	"github.com/pressroom/pressroom/internal/model"
	"github.com/pressroom/pressroom/internal/repository"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]*model.User
	err   error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*model.User)}
}

func (f *fakeUserStore) CreateUser(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, u := range f.users {
		if u.Username == user.Username {
			return repository.ErrUsernameExists
		}
	}
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (f *fakeUserStore) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUserStore) ListUsers(_ context.Context) ([]*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*model.User, 0, len(f.users))
	for _, u := range f.users {
		clone := *u
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUserStore) UpdateUser(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	user.UpdatedAt = time.Now().UTC()
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUserStore) DeleteUser(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

type fakeArticleStore struct {
	mu           sync.Mutex
	articles     map[string]*model.Article
	authors      map[string]model.AuthorSummary
	listCalls    int
	summaryCalls int
}

func newFakeArticleStore() *fakeArticleStore {
	return &fakeArticleStore{
		articles: make(map[string]*model.Article),
		authors:  make(map[string]model.AuthorSummary),
	}
}

func (f *fakeArticleStore) addAuthor(identity model.Identity) {
	f.authors[identity.ID] = model.AuthorSummary{ID: identity.ID, Name: identity.Name, Username: identity.Username}
}

func (f *fakeArticleStore) CreateArticle(_ context.Context, article *model.Article) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.authors[article.AuthorID]; !ok {
		return repository.ErrAuthorNotFound
	}
	clone := *article
	f.articles[article.ID] = &clone
	return nil
}

func (f *fakeArticleStore) GetArticleByID(_ context.Context, id string) (*model.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.articles[id]
	if !ok {
		return nil, repository.ErrArticleNotFound
	}
	clone := *a
	return &clone, nil
}

func (f *fakeArticleStore) GetArticleWithAuthor(ctx context.Context, id string) (*model.ArticleWithAuthor, error) {
	a, err := f.GetArticleByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &model.ArticleWithAuthor{Article: *a, Author: f.authors[a.AuthorID]}, nil
}

func (f *fakeArticleStore) ListPublishedArticles(_ context.Context) ([]*model.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	out := make([]*model.Article, 0)
	for _, a := range f.articles {
		if a.Status == model.StatusPublished {
			clone := *a
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeArticleStore) UpdateArticle(_ context.Context, article *model.Article) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.articles[article.ID]; !ok {
		return repository.ErrArticleNotFound
	}
	article.UpdatedAt = time.Now().UTC()
	clone := *article
	f.articles[article.ID] = &clone
	return nil
}

func (f *fakeArticleStore) DeleteArticle(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.articles[id]; !ok {
		return repository.ErrArticleNotFound
	}
	delete(f.articles, id)
	return nil
}

func (f *fakeArticleStore) GetUserSummaries(_ context.Context, ids []string) (map[string]model.AuthorSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaryCalls++
	out := make(map[string]model.AuthorSummary, len(ids))
	for _, id := range ids {
		if s, ok := f.authors[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

type fakeArticleCache struct {
	entry       []*model.ArticleWithAuthor
	cached      bool
	invalidated int
	getErr      error
}

func (f *fakeArticleCache) GetPublishedArticles(_ context.Context) ([]*model.ArticleWithAuthor, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if !f.cached {
		return nil, cache.ErrCacheMiss
	}
	return f.entry, nil
}

func (f *fakeArticleCache) SetPublishedArticles(_ context.Context, articles []*model.ArticleWithAuthor, _ time.Duration) error {
	f.entry = articles
	f.cached = true
	return nil
}

func (f *fakeArticleCache) InvalidatePublishedArticles(_ context.Context) error {
	f.entry = nil
	f.cached = false
	f.invalidated++
	return nil
}

type fakeTokenIssuer struct {
	issued []model.Identity
	err    error
}

func (f *fakeTokenIssuer) Issue(identity model.Identity) (string, time.Time, error) {
	if f.err != nil {
		return "", time.Time{}, f.err
	}
	f.issued = append(f.issued, identity)
	return "token-" + identity.Username, time.Now().Add(time.Hour), nil
}

type fakePageViewWriter struct {
	views []*model.PageView
	err   error
}

func (f *fakePageViewWriter) Insert(_ context.Context, view *model.PageView) error {
	if f.err != nil {
		return f.err
	}
	f.views = append(f.views, view)
	return nil
}

type fakePublisher struct {
	published []string
	err       error
}

func (f *fakePublisher) Publish(_ context.Context, articleID string, _ time.Time) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.published = append(f.published, articleID)
	return "1-0", nil
}

type fakeAggregateStore struct {
	count   int64
	buckets []model.BucketCount
	filter  model.PageViewFilter
}

func (f *fakeAggregateStore) Count(_ context.Context, filter model.PageViewFilter) (int64, error) {
	f.filter = filter
	return f.count, nil
}

func (f *fakeAggregateStore) AggregateByBucket(_ context.Context, filter model.PageViewFilter, _ model.Interval) ([]model.BucketCount, error) {
	f.filter = filter
	return f.buckets, nil
}

var errBoom = errors.New("boom")
