package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/AnshRaj112/blog-backend/internal/models"
)

const (
	// HotArticleLimit is the size of the "most viewed" sidebar on the detail page.
	HotArticleLimit = 9
)

var categoriesCacheKey = CacheKey("categories", "all")

func articleCountCacheKey(categoryID int64) string {
	return CacheKey("article_count", strconv.FormatInt(categoryID, 10))
}

const articleSelect = `
	SELECT a.id, a.author_id, u.username, u.avatar, a.category_id, a.avatar,
	       a.title, a.tags, a.summary, a.content, a.total_views, a.comments_count,
	       a.created, a.updated
	FROM tb_article a
	JOIN tb_users u ON u.id = a.author_id`

type ArticleService struct {
	db     *sql.DB
	cache  *CacheService // optional
	logger *slog.Logger
}

func NewArticleService(db *sql.DB, cache *CacheService, logger *slog.Logger) *ArticleService {
	return &ArticleService{db: db, cache: cache, logger: logger}
}

func scanArticle(row interface{ Scan(...any) error }) (*models.Article, error) {
	var (
		a          models.Article
		categoryID sql.NullInt64
	)
	err := row.Scan(&a.ID, &a.Author.ID, &a.Author.Username, &a.Author.Avatar, &categoryID, &a.Avatar,
		&a.Title, &a.Tags, &a.Summary, &a.Content, &a.TotalViews, &a.CommentsCount,
		&a.Created, &a.Updated)
	if err != nil {
		return nil, err
	}
	if categoryID.Valid {
		a.CategoryID = &categoryID.Int64
	}
	return &a, nil
}

func (s *ArticleService) queryArticles(ctx context.Context, query string, args ...any) ([]models.Article, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	articles := []models.Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, *a)
	}
	return articles, rows.Err()
}

// Categories returns every category ordered by id. Results are cached in
// Redis when a cache is configured.
func (s *ArticleService) Categories(ctx context.Context) ([]models.ArticleCategory, error) {
	var categories []models.ArticleCategory
	if s.cache != nil {
		hit, err := s.cache.Get(ctx, categoriesCacheKey, &categories)
		if err != nil {
			s.logger.Warn("category cache read failed", "err", err)
		} else if hit {
			return categories, nil
		}
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, title, created FROM tb_category ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories = []models.ArticleCategory{}
	for rows.Next() {
		var c models.ArticleCategory
		if err := rows.Scan(&c.ID, &c.Title, &c.Created); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, categoriesCacheKey, categories); err != nil {
			s.logger.Warn("category cache write failed", "err", err)
		}
	}
	return categories, nil
}

func (s *ArticleService) GetCategory(ctx context.Context, id int64) (*models.ArticleCategory, error) {
	var c models.ArticleCategory
	err := s.db.QueryRowContext(ctx, `SELECT id, title, created FROM tb_category WHERE id = $1`, id).
		Scan(&c.ID, &c.Title, &c.Created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

// CountByCategory is cached per category and dropped whenever an article is
// filed under it.
func (s *ArticleService) CountByCategory(ctx context.Context, categoryID int64) (int, error) {
	key := articleCountCacheKey(categoryID)
	var n int
	if s.cache != nil {
		hit, err := s.cache.Get(ctx, key, &n)
		if err != nil {
			s.logger.Warn("article count cache read failed", "category_id", categoryID, "err", err)
		} else if hit {
			return n, nil
		}
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tb_article WHERE category_id = $1`, categoryID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, n); err != nil {
			s.logger.Warn("article count cache write failed", "category_id", categoryID, "err", err)
		}
	}
	return n, nil
}

// ListByCategory returns one page of a category's articles, newest first.
func (s *ArticleService) ListByCategory(ctx context.Context, categoryID int64, limit, offset int) ([]models.Article, error) {
	articles, err := s.queryArticles(ctx, articleSelect+`
		WHERE a.category_id = $1
		ORDER BY a.created DESC, a.id DESC
		LIMIT $2 OFFSET $3`,
		categoryID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return articles, nil
}

func (s *ArticleService) GetArticle(ctx context.Context, id int64) (*models.Article, error) {
	a, err := scanArticle(s.db.QueryRowContext(ctx, articleSelect+` WHERE a.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrArticleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get article: %w", err)
	}
	return a, nil
}

// IncrementViews adds exactly one view in a single statement.
func (s *ArticleService) IncrementViews(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE tb_article SET total_views = total_views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrArticleNotFound
	}
	return nil
}

// HotArticles returns the most viewed articles across all categories.
func (s *ArticleService) HotArticles(ctx context.Context, limit int) ([]models.Article, error) {
	articles, err := s.queryArticles(ctx, articleSelect+`
		ORDER BY a.total_views DESC, a.id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("hot articles: %w", err)
	}
	return articles, nil
}

// CreateArticle inserts a and fills in its id and timestamps.
func (s *ArticleService) CreateArticle(ctx context.Context, a *models.Article) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO tb_article (author_id, category_id, avatar, title, tags, summary, content)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created, updated`,
		a.Author.ID, a.CategoryID, a.Avatar, a.Title, a.Tags, a.Summary, a.Content,
	).Scan(&a.ID, &a.Created, &a.Updated)
	if err != nil {
		return fmt.Errorf("create article: %w", err)
	}

	if s.cache != nil && a.CategoryID != nil {
		if err := s.cache.Delete(ctx, articleCountCacheKey(*a.CategoryID)); err != nil {
			s.logger.Warn("article count cache invalidation failed", "category_id", *a.CategoryID, "err", err)
		}
	}
	return nil
}

func (s *ArticleService) CountComments(ctx context.Context, articleID int64) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tb_comment WHERE article_id = $1`, articleID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count comments: %w", err)
	}
	return n, nil
}

// ListComments returns one page of an article's comments, newest first.
func (s *ArticleService) ListComments(ctx context.Context, articleID int64, limit, offset int) ([]models.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.content, c.article_id, c.created, u.id, u.username, u.avatar
		FROM tb_comment c
		LEFT JOIN tb_users u ON u.id = c.user_id
		WHERE c.article_id = $1
		ORDER BY c.created DESC, c.id DESC
		LIMIT $2 OFFSET $3`,
		articleID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var (
			c        models.Comment
			parentID sql.NullInt64
			userID   sql.NullInt64
			username sql.NullString
			avatar   sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Content, &parentID, &c.Created, &userID, &username, &avatar); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		if parentID.Valid {
			c.ArticleID = &parentID.Int64
		}
		if userID.Valid {
			c.User = &models.Author{ID: userID.Int64, Username: username.String, Avatar: avatar.String}
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// AddComment stores a comment and bumps the article's comment counter in one
// transaction.
func (s *ArticleService) AddComment(ctx context.Context, articleID int64, author models.Author, content string) (*models.Comment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin comment tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE tb_article SET comments_count = comments_count + 1 WHERE id = $1`, articleID)
	if err != nil {
		return nil, fmt.Errorf("increment comments: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrArticleNotFound
	}

	c := &models.Comment{Content: content, ArticleID: &articleID, User: &author}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO tb_comment (content, article_id, user_id)
		VALUES ($1, $2, $3)
		RETURNING id, created`,
		content, articleID, author.ID,
	).Scan(&c.ID, &c.Created)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit comment: %w", err)
	}
	return c, nil
}
