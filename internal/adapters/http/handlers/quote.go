package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotekeeper/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotekeeper/internal/app"
	"github.com/jsamuelsen/quotekeeper/internal/domain"
)

// QuoteHandler serves the tenant-scoped quote, author and stats routes.
type QuoteHandler struct {
	service *app.QuoteService
}

// NewQuoteHandler creates a QuoteHandler.
func NewQuoteHandler(service *app.QuoteService) *QuoteHandler {
	return &QuoteHandler{service: service}
}

// AddQuote handles POST /quotes.
func (h *QuoteHandler) AddQuote(c *gin.Context) {
	var req dto.AddQuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		RespondWithError(c, err)
		return
	}

	quoteType, err := domain.ParseQuoteType(req.Type)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	q, err := h.service.AddQuote(c.Request.Context(), app.AddQuoteInput{
		TenantID: middleware.TenantID(c),
		Type:     quoteType,
		Body:     req.Body,
		Author:   req.Author,
		Name:     req.Name,
	})
	if err != nil {
		RespondWithError(c, err)
		return
	}

	c.Header("Location", c.Request.URL.Path+"/"+q.ID)
	c.JSON(http.StatusCreated, dto.ToQuoteResponse(q))
}

// RandomQuote handles GET /quotes/random, optionally narrowed by ?author=.
func (h *QuoteHandler) RandomQuote(c *gin.Context) {
	ctx, tenant := c.Request.Context(), middleware.TenantID(c)

	var (
		q   *domain.Quote
		err error
	)

	if author := c.Query("author"); author != "" {
		q, err = h.service.GetRandomQuoteByAuthor(ctx, tenant, author)
	} else {
		q, err = h.service.GetRandomQuote(ctx, tenant)
	}

	if err != nil {
		RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToQuoteResponse(q))
}

// GetQuote handles GET /quotes/:id.
func (h *QuoteHandler) GetQuote(c *gin.Context) {
	q, err := h.service.GetQuoteByID(c.Request.Context(), middleware.TenantID(c), c.Param("id"))
	if err != nil {
		RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToQuoteResponse(q))
}

// DeleteQuote handles DELETE /quotes/:id.
func (h *QuoteHandler) DeleteQuote(c *gin.Context) {
	id := c.Param("id")

	deleted, err := h.service.DeleteQuote(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	if !deleted {
		RespondWithError(c, domain.NewNotFoundError("quote", id))
		return
	}

	c.Status(http.StatusNoContent)
}

// ListQuotes handles GET /quotes. ?name= and ?author= return every match;
// ?type= is cursor-paginated by quote ID.
func (h *QuoteHandler) ListQuotes(c *gin.Context) {
	var req dto.ListQuotesRequest
	if err := dto.BindQueryAndValidate(c, &req); err != nil {
		RespondWithError(c, err)
		return
	}

	ctx, tenant := c.Request.Context(), middleware.TenantID(c)

	selectors := 0
	for _, s := range []string{req.Type, req.Author, req.Name} {
		if s != "" {
			selectors++
		}
	}

	if selectors != 1 {
		RespondWithErrorCode(c, dto.ErrorCodeBadRequest, "exactly one of type, author or name is required")
		return
	}

	switch {
	case req.Name != "":
		q, err := h.service.GetQuoteByName(ctx, tenant, req.Name)
		if err != nil {
			RespondWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, dto.QuoteListResponse{Items: []dto.QuoteResponse{dto.ToQuoteResponse(q)}})

	case req.Author != "":
		quotes, err := h.service.GetQuotesByAuthor(ctx, tenant, req.Author)
		if err != nil {
			RespondWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, dto.QuoteListResponse{Items: dto.ToQuoteResponses(quotes)})

	default:
		h.listByType(c, req)
	}
}

func (h *QuoteHandler) listByType(c *gin.Context, req dto.ListQuotesRequest) {
	quoteType, err := domain.ParseQuoteType(req.Type)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	cursor, err := dto.DecodeCursor(req.Cursor)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	page, err := h.service.ListQuotesByTypePage(c.Request.Context(), middleware.TenantID(c), quoteType, cursor, req.Limit)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPaginatedResponse(dto.ToQuoteResponses(page.Quotes), page.NextCursor))
}

// ListAuthors handles GET /authors.
func (h *QuoteHandler) ListAuthors(c *gin.Context) {
	c.JSON(http.StatusOK, dto.AuthorsResponse{Authors: dto.NonNil(h.service.Authors(middleware.TenantID(c)))})
}

// SuggestAuthors handles GET /authors/suggest.
func (h *QuoteHandler) SuggestAuthors(c *gin.Context) {
	var req dto.SuggestAuthorsRequest
	if err := dto.BindQueryAndValidate(c, &req); err != nil {
		RespondWithError(c, err)
		return
	}

	names := h.service.SuggestAuthors(c.Request.Context(), middleware.TenantID(c), req.Prefix, req.Limit, req.Strict)
	c.JSON(http.StatusOK, dto.AuthorsResponse{Authors: dto.NonNil(names)})
}

// Stats handles GET /stats.
func (h *QuoteHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context(), middleware.TenantID(c))
	if err != nil {
		RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToStatsResponse(stats))
}

// RegisterRoutes mounts the handler on a tenant-scoped group. writer guards
// the mutating routes.
func (h *QuoteHandler) RegisterRoutes(rg *gin.RouterGroup, writer gin.HandlerFunc) {
	quotes := rg.Group("/quotes")
	quotes.GET("", h.ListQuotes)
	quotes.POST("", writer, h.AddQuote)
	quotes.GET("/random", h.RandomQuote)
	quotes.GET("/:id", h.GetQuote)
	quotes.DELETE("/:id", writer, h.DeleteQuote)

	rg.GET("/authors", h.ListAuthors)
	rg.GET("/authors/suggest", h.SuggestAuthors)
	rg.GET("/stats", h.Stats)
}
