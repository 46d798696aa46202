package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/user/bookscraper-service/internal/api"
	"github.com/user/bookscraper-service/internal/auth"
	"github.com/user/bookscraper-service/internal/books"
	"github.com/user/bookscraper-service/internal/config"
	"github.com/user/bookscraper-service/internal/domain"
	"github.com/user/bookscraper-service/internal/scrape"
	"github.com/user/bookscraper-service/internal/storage"
	"github.com/user/bookscraper-service/internal/task"
)

type fakeDispatcher struct {
	mu    sync.Mutex
	err   error
	calls []string
}

func (f *fakeDispatcher) Dispatch(taskID string, cfg domain.ScrapeConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, taskID)
	return nil
}

type fakeMarker struct {
	recent  map[string]bool
	cleared []string
	marked  []string
}

func newFakeMarker() *fakeMarker { return &fakeMarker{recent: map[string]bool{}} }

func (f *fakeMarker) Ping(ctx context.Context) error { return nil }

func (f *fakeMarker) IsRecentlyScraped(ctx context.Context, url string) (bool, error) {
	return f.recent[url], nil
}

func (f *fakeMarker) MarkScraped(ctx context.Context, url string) error {
	f.recent[url] = true
	f.marked = append(f.marked, url)
	return nil
}

func (f *fakeMarker) ClearScraped(ctx context.Context, url string) error {
	delete(f.recent, url)
	f.cleared = append(f.cleared, url)
	return nil
}

type fakeUserStore struct {
	mu     sync.Mutex
	users  map[int64]*domain.User
	nextID int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[int64]*domain.User{}, nextID: 1}
}

func (f *fakeUserStore) Ping(ctx context.Context) error { return nil }

func (f *fakeUserStore) CreateUser(ctx context.Context, u *domain.User) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return 0, storage.ErrEmailTaken
		}
	}
	id := f.nextID
	f.nextID++
	stored := *u
	stored.ID = id
	stored.CreatedAt = time.Now()
	f.users[id] = &stored
	return id, nil
}

func (f *fakeUserStore) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (f *fakeUserStore) ListUsers(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*domain.User{}
	for id := int64(1); id < f.nextID; id++ {
		if u, ok := f.users[id]; ok {
			cp := *u
			out = append(out, &cp)
		}
	}
	if offset >= len(out) {
		return []*domain.User{}, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

func (f *fakeUserStore) UpdateUser(ctx context.Context, id int64, upd storage.UserUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return storage.ErrUserNotFound
	}
	if upd.FirstName != nil {
		u.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		u.LastName = *upd.LastName
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	if upd.IsAdmin != nil {
		u.IsAdmin = *upd.IsAdmin
	}
	return nil
}

func (f *fakeUserStore) DeleteUser(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return storage.ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

type testServer struct {
	handler    http.Handler
	registry   *task.Registry
	dispatcher *fakeDispatcher
	marker     *fakeMarker
	users      *fakeUserStore
	tokens     *auth.Manager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	registry := task.NewRegistry()
	dispatcher := &fakeDispatcher{}
	marker := newFakeMarker()
	users := newFakeUserStore()
	tokens := auth.NewManager("test-secret", time.Hour)

	// Points at a missing file so dataset endpoints report not loaded
	// unless a test writes one.
	bs := books.NewService(filepath.Join(t.TempDir(), "missing.csv"), zap.NewNop())

	srv := api.NewServer(&config.Config{ServerPort: "0"}, registry, dispatcher, bs, users, marker, tokens, nil, zap.NewNop())
	return &testServer{
		handler:    srv.Handler(),
		registry:   registry,
		dispatcher: dispatcher,
		marker:     marker,
		users:      users,
		tokens:     tokens,
	}
}

func (ts *testServer) token(t *testing.T, sub string, admin bool) string {
	t.Helper()
	tok, err := ts.tokens.Issue(sub, admin)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func (ts *testServer) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func validScrapeBody() map[string]any {
	return map[string]any{
		"start_url":          "https://books.example.com/index.html",
		"container_selector": "section",
		"item_selector":      "li",
		"next_page_selector": "li.next a",
	}
}

func TestStartScrape_RequiresToken(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodPost, "/api/v1/scraping/start", "", validScrapeBody())
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") != "Bearer" {
		t.Fatalf("expected WWW-Authenticate header")
	}
}

func TestStartScrape_Accepted(t *testing.T) {
	ts := newTestServer(t)
	tok := ts.token(t, "1", false)

	rec := ts.request(t, http.MethodPost, "/api/v1/scraping/start", tok, validScrapeBody())
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		TaskID string `json:"task_id"`
		Status string `json:"status"`
	}
	decodeJSON(t, rec, &resp)
	if resp.TaskID == "" {
		t.Fatalf("expected a task id")
	}
	if resp.Status != "waiting" {
		t.Fatalf("expected status waiting, got %q", resp.Status)
	}

	if _, err := ts.registry.Get(resp.TaskID); err != nil {
		t.Fatalf("task was not registered: %v", err)
	}
	if len(ts.dispatcher.calls) != 1 || ts.dispatcher.calls[0] != resp.TaskID {
		t.Fatalf("dispatcher not called with the task id: %v", ts.dispatcher.calls)
	}
	if len(ts.marker.marked) != 1 {
		t.Fatalf("start url was not marked as scraped")
	}
}

func TestStartScrape_Validation(t *testing.T) {
	ts := newTestServer(t)
	tok := ts.token(t, "1", false)

	noURL := validScrapeBody()
	noURL["start_url"] = "not a url"
	if rec := ts.request(t, http.MethodPost, "/api/v1/scraping/start", tok, noURL); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad url: expected 400, got %d", rec.Code)
	}

	noSel := validScrapeBody()
	noSel["item_selector"] = ""
	if rec := ts.request(t, http.MethodPost, "/api/v1/scraping/start", tok, noSel); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing selector: expected 400, got %d", rec.Code)
	}
}

func TestStartScrape_RecentlyScraped(t *testing.T) {
	ts := newTestServer(t)
	tok := ts.token(t, "1", false)
	ts.marker.recent["https://books.example.com/index.html"] = true

	rec := ts.request(t, http.MethodPost, "/api/v1/scraping/start", tok, validScrapeBody())
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	force := validScrapeBody()
	force["force_rescrape"] = true
	rec = ts.request(t, http.MethodPost, "/api/v1/scraping/start", tok, force)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("force_rescrape: expected 202, got %d", rec.Code)
	}
	if len(ts.marker.cleared) != 1 {
		t.Fatalf("expected the marker to be cleared")
	}
}

func TestStartScrape_QueueFull(t *testing.T) {
	ts := newTestServer(t)
	ts.dispatcher.err = scrape.ErrQueueFull
	tok := ts.token(t, "1", false)

	rec := ts.request(t, http.MethodPost, "/api/v1/scraping/start", tok, validScrapeBody())
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	// The rejected task stays visible as failed.
	all := ts.registry.ListAll()
	if len(all) != 1 {
		t.Fatalf("expected 1 task, got %d", len(all))
	}
	for _, rec := range all {
		if rec.Status != task.StatusFailed {
			t.Fatalf("expected failed, got %s", rec.Status)
		}
	}
}

func TestTaskStatus(t *testing.T) {
	ts := newTestServer(t)

	if rec := ts.request(t, http.MethodGet, "/api/v1/scraping/tasks/nope", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	if err := ts.registry.Create("t1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	rec := ts.request(t, http.MethodGet, "/api/v1/scraping/tasks/t1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		TaskID   string `json:"task_id"`
		Status   string `json:"status"`
		Progress int    `json:"progress"`
	}
	decodeJSON(t, rec, &resp)
	if resp.TaskID != "t1" || resp.Status != "waiting" || resp.Progress != 0 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestTaskResults(t *testing.T) {
	ts := newTestServer(t)
	if err := ts.registry.Create("t1"); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Not finished yet.
	rec := ts.request(t, http.MethodGet, "/api/v1/scraping/tasks/t1/results", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 while waiting, got %d", rec.Code)
	}

	st := task.StatusCompleted
	now := time.Now()
	p := 100
	ts.registry.Update("t1", task.Update{
		Status:      &st,
		Progress:    &p,
		Results:     []domain.Product{{Title: "Book One"}, {Title: "Book Two"}},
		CompletedAt: &now,
	})

	rec = ts.request(t, http.MethodGet, "/api/v1/scraping/tasks/t1/results", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		TaskID        string           `json:"task_id"`
		TotalProducts int              `json:"total_products"`
		Products      []domain.Product `json:"products"`
	}
	decodeJSON(t, rec, &resp)
	if resp.TotalProducts != 2 || len(resp.Products) != 2 {
		t.Fatalf("unexpected results: %+v", resp)
	}
}

func TestListTasks(t *testing.T) {
	ts := newTestServer(t)
	for _, id := range []string{"a", "b", "c"} {
		if err := ts.registry.Create(id); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	st := task.StatusCompleted
	ts.registry.Update("b", task.Update{Status: &st})

	rec := ts.request(t, http.MethodGet, "/api/v1/scraping/tasks", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		TotalTasks int            `json:"total_tasks"`
		Summary    map[string]int `json:"summary"`
	}
	decodeJSON(t, rec, &resp)
	if resp.TotalTasks != 3 {
		t.Fatalf("expected 3 tasks, got %d", resp.TotalTasks)
	}
	if resp.Summary["waiting"] != 2 || resp.Summary["completed"] != 1 {
		t.Fatalf("unexpected summary: %v", resp.Summary)
	}
}

func TestPurgeCompleted(t *testing.T) {
	ts := newTestServer(t)
	for _, id := range []string{"done", "failed"} {
		if err := ts.registry.Create(id); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	done := task.StatusCompleted
	failed := task.StatusFailed
	ts.registry.Update("done", task.Update{Status: &done})
	ts.registry.Update("failed", task.Update{Status: &failed})

	if rec := ts.request(t, http.MethodDelete, "/api/v1/scraping/tasks/completed", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	tok := ts.token(t, "1", false)
	rec := ts.request(t, http.MethodDelete, "/api/v1/scraping/tasks/completed", tok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]int
	decodeJSON(t, rec, &resp)
	if resp["purged"] != 1 {
		t.Fatalf("expected 1 purged, got %d", resp["purged"])
	}
	if _, err := ts.registry.Get("failed"); err != nil {
		t.Fatalf("failed task must survive the purge: %v", err)
	}
}

func TestBooks_NotLoaded(t *testing.T) {
	ts := newTestServer(t)

	if rec := ts.request(t, http.MethodGet, "/api/v1/books/", "", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for a missing dataset, got %d", rec.Code)
	}
	if rec := ts.request(t, http.MethodGet, "/api/v1/books/health", "", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 from books health, got %d", rec.Code)
	}
}

func TestBooks_Endpoints(t *testing.T) {
	registry := task.NewRegistry()
	dir := t.TempDir()
	csv := "id,source_url,title,description,price,rating,availability,category,image_url\n" +
		"1,https://x/1,A Light in the Attic,poems,£51.77,3,1,Poetry,https://img/1\n" +
		"2,https://x/2,Sharp Objects,thriller,£47.82,4,1,Mystery,https://img/2\n"
	path := filepath.Join(dir, "catalog.csv")
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	bs := books.NewService(path, zap.NewNop())
	srv := api.NewServer(&config.Config{ServerPort: "0"}, registry, &fakeDispatcher{}, bs, newFakeUserStore(), nil, auth.NewManager("s", time.Hour), nil, zap.NewNop())
	ts := &testServer{handler: srv.Handler()}

	rec := ts.request(t, http.MethodGet, "/api/v1/books/?limit=1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = ts.request(t, http.MethodGet, "/api/v1/books/2", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rec.Code)
	}
	var book domain.Book
	decodeJSON(t, rec, &book)
	if book.Title != "Sharp Objects" {
		t.Fatalf("unexpected book: %+v", book)
	}

	if rec := ts.request(t, http.MethodGet, "/api/v1/books/99", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("missing book: expected 404, got %d", rec.Code)
	}
	if rec := ts.request(t, http.MethodGet, "/api/v1/books/search", "", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty search: expected 400, got %d", rec.Code)
	}

	rec = ts.request(t, http.MethodGet, "/api/v1/books/search?category=poetry", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("search: expected 200, got %d", rec.Code)
	}

	if rec := ts.request(t, http.MethodGet, "/api/v1/books/price-range?min=10&max=5", "", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("inverted bounds: expected 400, got %d", rec.Code)
	}

	rec = ts.request(t, http.MethodGet, "/api/v1/books/stats", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats: expected 200, got %d", rec.Code)
	}
	var stats books.Stats
	decodeJSON(t, rec, &stats)
	if stats.TotalBooks != 2 {
		t.Fatalf("expected 2 books, got %d", stats.TotalBooks)
	}
}

func signupBody(email string) map[string]any {
	return map[string]any{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      email,
		"password":   "s3cret!",
	}
}

func TestSignupAndLogin(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodPost, "/api/v1/users/signup", "", signupBody("ada@example.com"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created domain.User
	decodeJSON(t, rec, &created)
	if created.ID == 0 || created.Email != "ada@example.com" {
		t.Fatalf("unexpected user: %+v", created)
	}

	if rec := ts.request(t, http.MethodPost, "/api/v1/users/signup", "", signupBody("ada@example.com")); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate email: expected 409, got %d", rec.Code)
	}
	if rec := ts.request(t, http.MethodPost, "/api/v1/users/signup", "", signupBody("not-an-email")); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad email: expected 400, got %d", rec.Code)
	}

	rec = ts.request(t, http.MethodPost, "/api/v1/users/login", "", map[string]any{
		"email": "ada@example.com", "password": "s3cret!",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var login struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	decodeJSON(t, rec, &login)
	if login.AccessToken == "" || login.TokenType != "bearer" || login.ExpiresIn <= 0 {
		t.Fatalf("unexpected login response: %+v", login)
	}

	// The issued token works against a protected route.
	rec = ts.request(t, http.MethodGet, "/api/v1/users/me", login.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", rec.Code)
	}
	var me domain.User
	decodeJSON(t, rec, &me)
	if me.Email != "ada@example.com" {
		t.Fatalf("unexpected current user: %+v", me)
	}

	rec = ts.request(t, http.MethodPost, "/api/v1/users/login", "", map[string]any{
		"email": "ada@example.com", "password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: expected 401, got %d", rec.Code)
	}
	rec = ts.request(t, http.MethodPost, "/api/v1/users/login", "", map[string]any{
		"email": "ghost@example.com", "password": "s3cret!",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unknown email: expected 401, got %d", rec.Code)
	}
}

func (ts *testServer) seedUser(t *testing.T, email string, admin bool) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword("s3cret!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := &domain.User{FirstName: "Test", LastName: "User", Email: email, PasswordHash: hash, IsAdmin: admin}
	id, err := ts.users.CreateUser(context.Background(), u)
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	u.ID = id
	return u
}

func TestListUsers_AdminOnly(t *testing.T) {
	ts := newTestServer(t)
	user := ts.seedUser(t, "user@example.com", false)
	admin := ts.seedUser(t, "admin@example.com", true)

	userTok := ts.token(t, strconv.FormatInt(user.ID, 10), false)
	if rec := ts.request(t, http.MethodGet, "/api/v1/users/", userTok, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}

	adminTok := ts.token(t, strconv.FormatInt(admin.ID, 10), true)
	rec := ts.request(t, http.MethodGet, "/api/v1/users/", adminTok, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", rec.Code)
	}
	var users []domain.User
	decodeJSON(t, rec, &users)
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
}

func TestUpdateUser_Permissions(t *testing.T) {
	ts := newTestServer(t)
	user := ts.seedUser(t, "user@example.com", false)
	other := ts.seedUser(t, "other@example.com", false)

	userTok := ts.token(t, strconv.FormatInt(user.ID, 10), false)
	otherPath := "/api/v1/users/" + strconv.FormatInt(other.ID, 10)
	if rec := ts.request(t, http.MethodPut, otherPath, userTok, map[string]any{"first_name": "X"}); rec.Code != http.StatusForbidden {
		t.Fatalf("updating another user: expected 403, got %d", rec.Code)
	}

	selfPath := "/api/v1/users/" + strconv.FormatInt(user.ID, 10)
	if rec := ts.request(t, http.MethodPut, selfPath, userTok, map[string]any{"is_admin": true}); rec.Code != http.StatusForbidden {
		t.Fatalf("self-granting admin: expected 403, got %d", rec.Code)
	}

	rec := ts.request(t, http.MethodPut, selfPath, userTok, map[string]any{"first_name": "Renamed"})
	if rec.Code != http.StatusOK {
		t.Fatalf("self update: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	updated, err := ts.users.GetUserByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if updated.FirstName != "Renamed" {
		t.Fatalf("update not applied: %+v", updated)
	}
}

func TestDeleteUser_AdminOnly(t *testing.T) {
	ts := newTestServer(t)
	user := ts.seedUser(t, "user@example.com", false)
	admin := ts.seedUser(t, "admin@example.com", true)

	path := "/api/v1/users/" + strconv.FormatInt(user.ID, 10)
	userTok := ts.token(t, strconv.FormatInt(user.ID, 10), false)
	if rec := ts.request(t, http.MethodDelete, path, userTok, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}

	adminTok := ts.token(t, strconv.FormatInt(admin.ID, 10), true)
	if rec := ts.request(t, http.MethodDelete, path, adminTok, nil); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", rec.Code)
	}
	if _, err := ts.users.GetUserByID(context.Background(), user.ID); err == nil {
		t.Fatalf("user still present after delete")
	}
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.request(t, http.MethodGet, "/api/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	decodeJSON(t, rec, &resp)
	if resp["status"] != "ok" || resp["postgres"] != "healthy" || resp["redis"] != "healthy" {
		t.Fatalf("unexpected health payload: %v", resp)
	}
}
