package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/AnshRaj112/blog-backend/internal/config"
	"github.com/AnshRaj112/blog-backend/internal/models"
	"github.com/AnshRaj112/blog-backend/internal/services"
	"github.com/AnshRaj112/blog-backend/pkg/utils"
	"github.com/google/uuid"
	"github.com/gorilla/schema"
)

type Verifier interface {
	IssueImageCode(ctx context.Context, token string) ([]byte, string, error)
	SendSMSCode(ctx context.Context, token, text, mobile string) error
	CheckSMSCode(ctx context.Context, mobile, code string) error
}

type SessionStore interface {
	CreateSession(ctx context.Context, userID int64, ttl time.Duration) (string, error)
	ValidateSession(ctx context.Context, token string) (int64, bool, error)
	InvalidateSession(ctx context.Context, token string) error
	InvalidateUserSessions(ctx context.Context, userID int64) error
}

type UserStore interface {
	CreateUser(ctx context.Context, mobile, passwordHash string) (*models.User, error)
	GetUserByMobile(ctx context.Context, mobile string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	Authenticate(ctx context.Context, mobile, password string) (*models.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateProfile(ctx context.Context, id int64, username, desc, avatar string) error
	TouchLastLogin(ctx context.Context, id int64) error
}

type ArticleStore interface {
	Categories(ctx context.Context) ([]models.ArticleCategory, error)
	GetCategory(ctx context.Context, id int64) (*models.ArticleCategory, error)
	CountByCategory(ctx context.Context, categoryID int64) (int, error)
	ListByCategory(ctx context.Context, categoryID int64, limit, offset int) ([]models.Article, error)
	GetArticle(ctx context.Context, id int64) (*models.Article, error)
	IncrementViews(ctx context.Context, id int64) error
	HotArticles(ctx context.Context, limit int) ([]models.Article, error)
	CreateArticle(ctx context.Context, a *models.Article) error
	CountComments(ctx context.Context, articleID int64) (int, error)
	ListComments(ctx context.Context, articleID int64, limit, offset int) ([]models.Comment, error)
	AddComment(ctx context.Context, articleID int64, author models.Author, content string) (*models.Comment, error)
}

// CommentStream delivers new comments to live viewers of an article.
type CommentStream interface {
	Register(articleID int64, conn services.StreamConn) uuid.UUID
	Unregister(id uuid.UUID)
	Publish(ctx context.Context, articleID int64, comment *models.Comment) error
}

// Deps is everything the HTTP layer needs. Images may be nil when uploads
// are not configured.
type Deps struct {
	Config   *config.Config
	Verifier Verifier
	Sessions SessionStore
	Users    UserStore
	Articles ArticleStore
	Images   services.ImageStore
	Comments CommentStream
	Logger   *slog.Logger
}

type Handler struct {
	cfg      *config.Config
	verifier Verifier
	sessions SessionStore
	users    UserStore
	articles ArticleStore
	images   services.ImageStore
	comments CommentStream
	logger   *slog.Logger

	decoder  *schema.Decoder
	validate *utils.Validator
}

func New(d Deps) *Handler {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	return &Handler{
		cfg:      d.Config,
		verifier: d.Verifier,
		sessions: d.Sessions,
		users:    d.Users,
		articles: d.Articles,
		images:   d.Images,
		comments: d.Comments,
		logger:   d.Logger,
		decoder:  decoder,
		validate: utils.NewValidator(),
	}
}
