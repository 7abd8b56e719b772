package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/socialposts/backend/internal/middleware"
	"github.com/anonto42/socialposts/backend/internal/models"
	"github.com/anonto42/socialposts/backend/internal/repositories"
	"github.com/anonto42/socialposts/backend/internal/token"
	"github.com/anonto42/socialposts/backend/internal/validators"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

var errStoreDown = errors.New("store unavailable")

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]models.User
	seq   int
	err   error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: map[string]models.User{}}
}

func (f *fakeUsers) add(t *testing.T, name, email, password string) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	u := &models.User{Name: name, Email: email, Password: string(hash), Avatar: "//avatar/" + name}
	require.NoError(t, f.CreateUser(context.Background(), u))
	return *u
}

func (f *fakeUsers) remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
}

func (f *fakeUsers) CreateUser(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return repositories.ErrEmailTaken
		}
	}
	f.seq++
	user.ID = fmt.Sprintf("user-%d", f.seq)
	user.Date = time.Now()
	f.users[user.ID] = *user
	return nil
}

func (f *fakeUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return &u, nil
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

// fakePosts mirrors the conditional-update semantics of MongoPostRepository.
type fakePosts struct {
	mu    sync.Mutex
	posts map[primitive.ObjectID]*models.Post
	err   error
	// beforeWrite runs before every list mutation, outside the lock.
	beforeWrite func()
}

func newFakePosts() *fakePosts {
	return &fakePosts{posts: map[primitive.ObjectID]*models.Post{}}
}

func (f *fakePosts) lookup(id string) (*models.Post, error) {
	if f.err != nil {
		return nil, f.err
	}
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repositories.ErrInvalidID
	}
	p, ok := f.posts[objID]
	if !ok {
		return nil, repositories.ErrPostNotFound
	}
	return p, nil
}

func (f *fakePosts) write() {
	if f.beforeWrite != nil {
		f.beforeWrite()
	}
}

func clonePost(p *models.Post) *models.Post {
	c := *p
	c.Likes = append([]models.Like{}, p.Likes...)
	c.Comments = append([]models.Comment{}, p.Comments...)
	return &c
}

func (f *fakePosts) CreatePost(_ context.Context, post *models.Post) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	post.ID = primitive.NewObjectID()
	if post.Date.IsZero() {
		post.Date = time.Now()
	}
	f.posts[post.ID] = clonePost(post)
	return nil
}

func (f *fakePosts) GetPostByID(_ context.Context, id string) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, err := f.lookup(id)
	if err != nil {
		return nil, err
	}
	return clonePost(p), nil
}

func (f *fakePosts) GetAllPosts(_ context.Context) ([]models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Post, 0, len(f.posts))
	for _, p := range f.posts {
		out = append(out, *clonePost(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (f *fakePosts) DeletePost(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, err := f.lookup(id)
	if err != nil {
		return err
	}
	delete(f.posts, p.ID)
	return nil
}

func (f *fakePosts) AddLike(_ context.Context, postID, userID string) ([]models.Like, error) {
	f.write()
	f.mu.Lock()
	defer f.mu.Unlock()
	p, err := f.lookup(postID)
	if err != nil {
		return nil, err
	}
	if p.HasLike(userID) {
		return nil, repositories.ErrAlreadyLiked
	}
	p.Likes = append([]models.Like{{UserID: userID}}, p.Likes...)
	return clonePost(p).Likes, nil
}

func (f *fakePosts) RemoveLike(_ context.Context, postID, userID string) ([]models.Like, error) {
	f.write()
	f.mu.Lock()
	defer f.mu.Unlock()
	p, err := f.lookup(postID)
	if err != nil {
		return nil, err
	}
	for i, l := range p.Likes {
		if l.UserID == userID {
			p.Likes = append(p.Likes[:i:i], p.Likes[i+1:]...)
			return clonePost(p).Likes, nil
		}
	}
	return nil, repositories.ErrNotLiked
}

func (f *fakePosts) AddComment(_ context.Context, postID string, comment *models.Comment) ([]models.Comment, error) {
	f.write()
	f.mu.Lock()
	defer f.mu.Unlock()
	p, err := f.lookup(postID)
	if err != nil {
		return nil, err
	}
	comment.ID = primitive.NewObjectID()
	comment.Date = time.Now()
	p.Comments = append([]models.Comment{*comment}, p.Comments...)
	return clonePost(p).Comments, nil
}

func (f *fakePosts) RemoveComment(_ context.Context, postID, commentID, userID string) ([]models.Comment, error) {
	f.write()
	f.mu.Lock()
	defer f.mu.Unlock()
	p, err := f.lookup(postID)
	if err != nil {
		return nil, err
	}
	for i, c := range p.Comments {
		if c.ID.Hex() != commentID {
			continue
		}
		if c.UserID != userID {
			return nil, repositories.ErrNotCommentAuthor
		}
		p.Comments = append(p.Comments[:i:i], p.Comments[i+1:]...)
		return clonePost(p).Comments, nil
	}
	return nil, repositories.ErrCommentNotFound
}

type fakeFirebase struct {
	tokens map[string]map[string]interface{} // id token -> claims
}

// verified registers idToken as carrying a Firebase-verified email.
func (f *fakeFirebase) verified(idToken, email string) {
	f.tokens[idToken] = map[string]interface{}{"email": email, "email_verified": true}
}

func (f *fakeFirebase) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	claims, ok := f.tokens[idToken]
	if !ok {
		return nil, errors.New("firebase: invalid id token")
	}
	return &auth.Token{UID: "fb-" + idToken, Claims: claims}, nil
}

type testServer struct {
	e        *echo.Echo
	users    *fakeUsers
	posts    *fakePosts
	tokens   *token.Service
	firebase *fakeFirebase
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	s := &testServer{
		e:        echo.New(),
		users:    newFakeUsers(),
		posts:    newFakePosts(),
		tokens:   token.NewService(token.Config{Secret: []byte("test-secret")}),
		firebase: &fakeFirebase{tokens: map[string]map[string]interface{}{}},
	}
	s.e.Validator = validators.NewValidator()
	s.e.HTTPErrorHandler = ErrorHandler

	guard := middleware.JWTAuthMiddleware(s.tokens)
	api := s.e.Group("/api")

	NewAuthHandler(s.users, s.tokens, s.firebase).RegisterAuthRoutes(api.Group("/auth"), guard)

	userHandler := NewUserHandler(s.users, s.tokens)
	userHandler.hashCost = bcrypt.MinCost
	userHandler.RegisterUserRoutes(api.Group("/users"))

	posts := api.Group("/posts", guard)
	NewPostHandler(s.posts, s.users).RegisterPostRoutes(posts)
	NewLikeHandler(s.posts).RegisterLikeRoutes(posts)
	NewCommentHandler(s.posts, s.users).RegisterCommentRoutes(posts)

	return s
}

// do sends a request; a non-empty userID is authenticated with a fresh token.
func (s *testServer) do(t *testing.T, method, path string, body interface{}, userID string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if userID != "" {
		tok, err := s.tokens.Issue(userID)
		require.NoError(t, err)
		req.Header.Set(middleware.TokenHeader, tok)
	}

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

// seedPost stores a post written by author at the given time.
func (s *testServer) seedPost(t *testing.T, author models.User, text string, at time.Time) models.Post {
	t.Helper()
	p := &models.Post{
		Text:     text,
		Name:     author.Name,
		Avatar:   author.Avatar,
		UserID:   author.ID,
		Likes:    []models.Like{},
		Comments: []models.Comment{},
		Date:     at,
	}
	require.NoError(t, s.posts.CreatePost(context.Background(), p))
	return *p
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
}

func msgOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var m models.MessageResponse
	decode(t, rec, &m)
	return m.Msg
}
