package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/AnshRaj112/blog-backend/internal/metrics"
	"github.com/AnshRaj112/blog-backend/internal/models"
	"github.com/AnshRaj112/blog-backend/internal/services"
	"github.com/AnshRaj112/blog-backend/pkg/utils"
)

type listResponse struct {
	Categories []models.ArticleCategory `json:"categories"`
	Category   *models.ArticleCategory  `json:"category"`
	Articles   []models.Article         `json:"articles"`
	utils.Page
}

type detailResponse struct {
	Categories  []models.ArticleCategory `json:"categories"`
	Category    *models.ArticleCategory  `json:"category"`
	Article     *models.Article          `json:"article"`
	HotArticles []models.Article         `json:"hot_articles"`
	Comments    []models.Comment         `json:"comments"`
	utils.Page
}

// Index lists one page of a category's articles.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	var q listQuery
	if err := h.decodeQuery(r, &q); err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx := r.Context()
	categories, err := h.articles.Categories(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	category, err := h.articles.GetCategory(ctx, q.CatID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	total, err := h.articles.CountByCategory(ctx, q.CatID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := utils.Paginate(total, q.PageNum, q.PageSize)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	articles, err := h.articles.ListByCategory(ctx, q.CatID, page.Size, page.Offset())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeOK(w, listResponse{
		Categories: categories,
		Category:   category,
		Articles:   articles,
		Page:       page,
	})
}

// Detail shows an article, counting the view, with the hot list and one
// page of comments.
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	var q detailQuery
	if err := h.decodeQuery(r, &q); err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx := r.Context()
	if err := h.articles.IncrementViews(ctx, q.ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	metrics.ArticleViews.Inc()

	article, err := h.articles.GetArticle(ctx, q.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	categories, err := h.articles.Categories(ctx)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	category, err := h.articleCategory(r, article)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	hot, err := h.articles.HotArticles(ctx, services.HotArticleLimit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	total, err := h.articles.CountComments(ctx, q.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := utils.Paginate(total, q.PageNum, q.PageSize)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	comments, err := h.articles.ListComments(ctx, q.ID, page.Size, page.Offset())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeOK(w, detailResponse{
		Categories:  categories,
		Category:    category,
		Article:     article,
		HotArticles: hot,
		Comments:    comments,
		Page:        page,
	})
}

// articleCategory returns the category a is filed under, or nil once that
// category is gone.
func (h *Handler) articleCategory(r *http.Request, a *models.Article) (*models.ArticleCategory, error) {
	if a.CategoryID == nil {
		return nil, nil
	}
	category, err := h.articles.GetCategory(r.Context(), *a.CategoryID)
	if errors.Is(err, services.ErrCategoryNotFound) {
		return nil, nil
	}
	return category, err
}

// PostComment adds a comment as the logged-in user and sends the browser
// back to the article.
func (h *Handler) PostComment(w http.ResponseWriter, r *http.Request) {
	user, err := h.currentUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := parseForm(r); err != nil {
		h.writeError(w, r, err)
		return
	}
	var form commentForm
	if err := h.decodeValues(r.Form, &form); err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx := r.Context()
	author := models.Author{ID: user.ID, Username: user.Username, Avatar: user.Avatar}
	comment, err := h.articles.AddComment(ctx, form.ID, author, form.Content)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	metrics.CommentsPosted.Inc()

	if h.comments != nil {
		if err := h.comments.Publish(ctx, form.ID, comment); err != nil {
			h.logger.Warn("failed to publish comment event", "article_id", form.ID, "err", err)
		}
	}

	http.Redirect(w, r, "/detail?id="+strconv.FormatInt(form.ID, 10), http.StatusSeeOther)
}

// WriteBlogPage lists the categories an article can be filed under.
func (h *Handler) WriteBlogPage(w http.ResponseWriter, r *http.Request) {
	categories, err := h.articles.Categories(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeOK(w, map[string]any{"page": "write_blog", "categories": categories})
}

// WriteBlog publishes a new article with an uploaded cover image.
func (h *Handler) WriteBlog(w http.ResponseWriter, r *http.Request) {
	if h.images == nil {
		h.writeError(w, r, services.ErrUploadsDisabled)
		return
	}

	user, err := h.currentUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var form writeBlogForm
	if err := h.decodeForm(r, &form); err != nil {
		h.writeError(w, r, err)
		return
	}
	cover := formFile(r, "avatar")
	if cover == nil {
		h.writeError(w, r, services.ErrMissingParam)
		return
	}

	ctx := r.Context()
	if _, err := h.articles.GetCategory(ctx, form.Category); err != nil {
		if errors.Is(err, services.ErrCategoryNotFound) {
			err = errInvalidForm
		}
		h.writeError(w, r, err)
		return
	}

	coverURL, err := h.images.UploadFileFromHeader(ctx, cover, services.ArticleCoverFolder)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	article := &models.Article{
		Author:     models.Author{ID: user.ID, Username: user.Username, Avatar: user.Avatar},
		CategoryID: &form.Category,
		Avatar:     coverURL,
		Title:      form.Title,
		Tags:       form.Tags,
		Summary:    form.Summary,
		Content:    form.Content,
	}
	if err := h.articles.CreateArticle(ctx, article); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.Info("article published", "article_id", article.ID, "user_id", user.ID)

	http.Redirect(w, r, "/", http.StatusSeeOther)
}
