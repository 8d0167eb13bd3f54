package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pressroom/pressroom/internal/analytics"
	"github.com/pressroom/pressroom/internal/auth"
	"github.com/pressroom/pressroom/internal/model"
	"github.com/pressroom/pressroom/internal/service"
)

var (
	jane      = model.Identity{ID: "01J3ZC0Q6W6N3B7WJ2K7X9M1AA", Name: "Jane Doe", Username: "janedoe"}
	fixedTime = time.Date(2025, 7, 25, 10, 0, 0, 0, time.UTC)
)

// newRequest builds a request, optionally carrying an identity as RequireAuth would.
func newRequest(method, target, body string, identity *model.Identity) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if identity != nil {
		req = req.WithContext(auth.ContextWithIdentity(req.Context(), identity))
	}
	return req
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type stubAuth struct {
	register func(service.RegisterInput) (*service.AuthResult, error)
	login    func(username, password string) (*service.AuthResult, error)
}

func (s *stubAuth) Register(_ context.Context, input service.RegisterInput) (*service.AuthResult, error) {
	return s.register(input)
}

func (s *stubAuth) Login(_ context.Context, username, password string) (*service.AuthResult, error) {
	return s.login(username, password)
}

type stubUsers struct {
	users     []*model.User
	err       error
	lastID    string
	lastActor *model.Identity
	created   service.RegisterInput
	updated   service.UpdateUserInput
}

func (s *stubUsers) List(context.Context) ([]*model.User, error) { return s.users, s.err }

func (s *stubUsers) Get(_ context.Context, id string) (*model.User, error) {
	s.lastID = id
	if s.err != nil {
		return nil, s.err
	}
	return s.users[0], nil
}

func (s *stubUsers) Create(_ context.Context, actor *model.Identity, input service.RegisterInput) (*model.User, error) {
	s.lastActor, s.created = actor, input
	if s.err != nil {
		return nil, s.err
	}
	return &model.User{ID: "01J3ZC0Q6W6N3B7WJ2K7X9M1BB", Name: input.Name, Username: input.Username, PasswordHash: "hash"}, nil
}

func (s *stubUsers) Update(_ context.Context, actor *model.Identity, id string, input service.UpdateUserInput) (*model.User, error) {
	s.lastActor, s.lastID, s.updated = actor, id, input
	if s.err != nil {
		return nil, s.err
	}
	return &model.User{ID: id, Name: input.Name, Username: "janedoe", PasswordHash: "hash"}, nil
}

func (s *stubUsers) Delete(_ context.Context, actor *model.Identity, id string) error {
	s.lastActor, s.lastID = actor, id
	return s.err
}

type stubArticles struct {
	list       []*model.ArticleWithAuthor
	article    *model.ArticleWithAuthor
	err        error
	lastViewer *model.Identity
	lastID     string
	created    service.CreateArticleInput
	updated    service.UpdateArticleInput
}

func (s *stubArticles) ListPublished(context.Context) ([]*model.ArticleWithAuthor, error) {
	return s.list, s.err
}

func (s *stubArticles) Get(_ context.Context, viewer *model.Identity, id string) (*model.ArticleWithAuthor, error) {
	s.lastViewer, s.lastID = viewer, id
	if s.err != nil {
		return nil, s.err
	}
	return s.article, nil
}

func (s *stubArticles) Create(_ context.Context, actor *model.Identity, input service.CreateArticleInput) (*model.Article, error) {
	s.lastViewer, s.created = actor, input
	if s.err != nil {
		return nil, s.err
	}
	return &model.Article{ID: "01J3ZC0Q6W6N3B7WJ2K7X9M1CC", Title: input.Title, Content: input.Content, Status: model.StatusDraft, AuthorID: actor.ID}, nil
}

func (s *stubArticles) Update(_ context.Context, actor *model.Identity, id string, input service.UpdateArticleInput) (*model.Article, error) {
	s.lastViewer, s.lastID, s.updated = actor, id, input
	if s.err != nil {
		return nil, s.err
	}
	return &model.Article{ID: id, Title: input.Title, Status: model.StatusPublished, AuthorID: actor.ID}, nil
}

func (s *stubArticles) Delete(_ context.Context, actor *model.Identity, id string) error {
	s.lastViewer, s.lastID = actor, id
	return s.err
}

type stubPageViews struct {
	tracked   []string
	lastQuery analytics.Query
	count     int64
	series    *model.Series
	err       error
}

func (s *stubPageViews) Track(_ context.Context, articleRef string) error {
	if s.err != nil {
		return s.err
	}
	s.tracked = append(s.tracked, articleRef)
	return nil
}

func (s *stubPageViews) Count(_ context.Context, q analytics.Query) (int64, error) {
	s.lastQuery = q
	return s.count, s.err
}

func (s *stubPageViews) Aggregate(_ context.Context, q analytics.Query) (*model.Series, error) {
	s.lastQuery = q
	return s.series, s.err
}

func userRouter(h *UserHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/users", h.List)
	r.Post("/api/users", h.Create)
	r.Get("/api/users/{id}", h.Get)
	r.Patch("/api/users/{id}", h.Update)
	r.Put("/api/users/{id}", h.Update)
	r.Delete("/api/users/{id}", h.Delete)
	return r
}

func articleRouter(h *ArticleHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/articles", h.List)
	r.Post("/api/articles", h.Create)
	r.Get("/api/articles/{id}", h.Get)
	r.Patch("/api/articles/{id}", h.Update)
	r.Put("/api/articles/{id}", h.Update)
	r.Delete("/api/articles/{id}", h.Delete)
	return r
}
