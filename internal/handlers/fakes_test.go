package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AnshRaj112/blog-backend/internal/config"
	"github.com/AnshRaj112/blog-backend/internal/logger"
	"github.com/AnshRaj112/blog-backend/internal/models"
	"github.com/AnshRaj112/blog-backend/internal/services"
	"github.com/AnshRaj112/blog-backend/pkg/utils"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// memUsers is an in-memory UserStore.
type memUsers struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*models.User
	fail   error
}

func newMemUsers() *memUsers {
	return &memUsers{byID: make(map[int64]*models.User)}
}

func (m *memUsers) CreateUser(_ context.Context, mobile, hash string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	for _, u := range m.byID {
		if u.Mobile == mobile {
			return nil, services.ErrDuplicateMobile
		}
		if u.Username == mobile {
			return nil, services.ErrDuplicateUsername
		}
	}
	m.nextID++
	u := &models.User{ID: m.nextID, Username: mobile, Mobile: mobile, PasswordHash: hash, DateJoined: time.Now()}
	m.byID[u.ID] = u
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetUserByMobile(_ context.Context, mobile string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Mobile == mobile {
			cp := *u
			return &cp, nil
		}
	}
	return nil, services.ErrUserNotFound
}

func (m *memUsers) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, services.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) Authenticate(ctx context.Context, mobile, password string) (*models.User, error) {
	u, err := m.GetUserByMobile(ctx, mobile)
	if err != nil {
		return nil, services.ErrInvalidCredentials
	}
	if ok, _ := utils.VerifyPassword(password, u.PasswordHash); !ok {
		return nil, services.ErrInvalidCredentials
	}
	return u, nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id int64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return services.ErrUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (m *memUsers) UpdateProfile(_ context.Context, id int64, username, desc, avatar string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	for _, other := range m.byID {
		if other.ID != id && other.Username == username {
			return services.ErrDuplicateUsername
		}
	}
	u, ok := m.byID[id]
	if !ok {
		return services.ErrUserNotFound
	}
	u.Username, u.Description = username, desc
	if avatar != "" {
		u.Avatar = avatar
	}
	return nil
}

func (m *memUsers) TouchLastLogin(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		now := time.Now()
		u.LastLogin = &now
	}
	return nil
}

// memArticles is an in-memory ArticleStore.
type memArticles struct {
	mu         sync.Mutex
	categories []models.ArticleCategory
	articles   map[int64]*models.Article
	comments   []models.Comment
	nextID     int64
}

func newMemArticles() *memArticles {
	return &memArticles{
		categories: []models.ArticleCategory{{ID: 1, Title: "General"}, {ID: 2, Title: "Go"}},
		articles:   make(map[int64]*models.Article),
	}
}

func (m *memArticles) add(a models.Article) *models.Article {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	a.ID = m.nextID
	if a.Created.IsZero() {
		a.Created = time.Now().Add(time.Duration(a.ID) * time.Second)
	}
	m.articles[a.ID] = &a
	return &a
}

func (m *memArticles) Categories(context.Context) ([]models.ArticleCategory, error) {
	return m.categories, nil
}

func (m *memArticles) GetCategory(_ context.Context, id int64) (*models.ArticleCategory, error) {
	for _, c := range m.categories {
		if c.ID == id {
			cp := c
			return &cp, nil
		}
	}
	return nil, services.ErrCategoryNotFound
}

func (m *memArticles) inCategory(categoryID int64) []models.Article {
	var out []models.Article
	for _, a := range m.articles {
		if a.CategoryID != nil && *a.CategoryID == categoryID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Created.After(out[j].Created) })
	return out
}

func (m *memArticles) CountByCategory(_ context.Context, categoryID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inCategory(categoryID)), nil
}

func (m *memArticles) ListByCategory(_ context.Context, categoryID int64, limit, offset int) ([]models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.inCategory(categoryID)
	if offset >= len(all) {
		return []models.Article{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *memArticles) GetArticle(_ context.Context, id int64) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.articles[id]
	if !ok {
		return nil, services.ErrArticleNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memArticles) IncrementViews(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.articles[id]
	if !ok {
		return services.ErrArticleNotFound
	}
	a.TotalViews++
	return nil
}

func (m *memArticles) HotArticles(_ context.Context, limit int) ([]models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []models.Article
	for _, a := range m.articles {
		all = append(all, *a)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].TotalViews > all[j].TotalViews })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *memArticles) CreateArticle(_ context.Context, a *models.Article) error {
	created := m.add(*a)
	a.ID = created.ID
	return nil
}

func (m *memArticles) articleComments(articleID int64) []models.Comment {
	var out []models.Comment
	for i := len(m.comments) - 1; i >= 0; i-- {
		if c := m.comments[i]; c.ArticleID != nil && *c.ArticleID == articleID {
			out = append(out, c)
		}
	}
	return out
}

func (m *memArticles) CountComments(_ context.Context, articleID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.articleComments(articleID)), nil
}

func (m *memArticles) ListComments(_ context.Context, articleID int64, limit, offset int) ([]models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.articleComments(articleID)
	if offset >= len(all) {
		return []models.Comment{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *memArticles) AddComment(_ context.Context, articleID int64, author models.Author, content string) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.articles[articleID]
	if !ok {
		return nil, services.ErrArticleNotFound
	}
	a.CommentsCount++
	id := articleID
	c := models.Comment{ID: int64(len(m.comments) + 1), Content: content, ArticleID: &id, User: &author, Created: time.Now()}
	m.comments = append(m.comments, c)
	return &c, nil
}

type fakeImages struct {
	uploads []string
	err     error
}

func (f *fakeImages) UploadFileFromHeader(_ context.Context, fh *multipart.FileHeader, folder string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.uploads = append(f.uploads, folder+"/"+fh.Filename)
	return "https://img.example.com/" + folder + "/" + fh.Filename, nil
}

type fakeStream struct {
	mu        sync.Mutex
	published []int64
}

func (f *fakeStream) Register(int64, services.StreamConn) uuid.UUID { return uuid.New() }
func (f *fakeStream) Unregister(uuid.UUID)                          {}
func (f *fakeStream) Publish(_ context.Context, articleID int64, _ *models.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, articleID)
	return nil
}

type fakeCaptcha struct{ text string }

func (f fakeCaptcha) Generate() (string, []byte, string, error) {
	return f.text, []byte("\x89PNG"), "image/png", nil
}

type fakeSMS struct{ err error }

func (f fakeSMS) SendTemplate(context.Context, string, string, []string) (string, error) {
	return "", f.err
}

type testEnv struct {
	t        *testing.T
	mr       *miniredis.Miniredis
	cfg      *config.Config
	users    *memUsers
	articles *memArticles
	images   *fakeImages
	stream   *fakeStream
	sessions *services.SessionService
	handler  *Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := &config.Config{
		SessionBrowserTTL: 24 * time.Hour,
		VerifyCodeTTL:     5 * time.Minute,
		AllowedOrigins:    []string{"http://localhost:3000"},
	}
	log := logger.Discard()

	env := &testEnv{
		t:        t,
		mr:       mr,
		cfg:      cfg,
		users:    newMemUsers(),
		articles: newMemArticles(),
		images:   &fakeImages{},
		stream:   &fakeStream{},
		sessions: services.NewSessionService(rdb),
	}
	verifier := services.NewVerificationService(rdb, fakeCaptcha{text: "AB12"}, fakeSMS{}, services.VerificationOptions{
		TemplateID: "1",
		TTL:        cfg.VerifyCodeTTL,
	}, log)

	env.handler = New(Deps{
		Config:   cfg,
		Verifier: verifier,
		Sessions: env.sessions,
		Users:    env.users,
		Articles: env.articles,
		Images:   env.images,
		Comments: env.stream,
		Logger:   log,
	})
	return env
}

// issueSMSCode stores a known SMS code for mobile.
func (e *testEnv) issueSMSCode(mobile, code string) {
	require.NoError(e.t, e.mr.Set(services.SMSCodeKeyPrefix+mobile, code))
}

func postForm(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func multipartRequest(t *testing.T, target string, fields map[string]string, fileField, fileName string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = fw.Write([]byte("\x89PNG fake image"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
