package api

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/atul-1602/memecraft/errors"
	"github.com/atul-1602/memecraft/logger"
	"github.com/atul-1602/memecraft/memes"
	"github.com/atul-1602/memecraft/server"
	"github.com/atul-1602/memecraft/validation"
)

const (
	HeaderRateLimit     = "X-RateLimit-Limit"
	HeaderRateRemaining = "X-RateLimit-Remaining"
	HeaderRateReset     = "X-RateLimit-Reset"

	maxQueryLength = 100
	maxLimit       = 1000
)

var templateIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// TemplateSource is the part of *memes.Fetcher the handlers need.
type TemplateSource interface {
	FetchTemplates(ctx context.Context) (*memes.TemplateList, error)
	RemainingCapacity() int
	TimeUntilWindowClears() time.Duration
	CacheExpiresIn() time.Duration
	Limit() int
}

// ListMeta describes a template listing.
type ListMeta struct {
	Total     int          `json:"total"`
	Count     int          `json:"count"`
	Source    memes.Source `json:"source"`
	FetchedAt time.Time    `json:"fetched_at"`
}

// Quota is the caller-visible state of the local rate limiter.
type Quota struct {
	Limit          int   `json:"limit"`
	Remaining      int   `json:"remaining"`
	ResetMS        int64 `json:"reset_ms"`
	// CacheExpiresMS is how long the cached list stays fresh, 0 when the
	// next fetch goes upstream.
	CacheExpiresMS int64 `json:"cache_expires_ms"`
}

// Handler serves the template API.
type Handler struct {
	source TemplateSource
	log    *logger.Logger
}

// NewHandler creates a Handler backed by source.
func NewHandler(source TemplateSource, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{source: source, log: log.WithComponent("api")}
}

// Register mounts the API routes under /api.
func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/api")
	g.GET("/templates", h.ListTemplates)
	g.GET("/templates/:id", h.GetTemplate)
	g.GET("/quota", h.Quota)
}

// ListTemplates fetches the template list, optionally filtered by a
// case-insensitive name substring (q) and truncated to limit entries.
// Each call spends one unit of quota, cached or not.
func (h *Handler) ListTemplates(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	limit, ok := h.parseListQuery(c, q)
	if !ok {
		return
	}

	list, err := h.source.FetchTemplates(c.Request.Context())
	h.setQuotaHeaders(c)
	if err != nil {
		h.logFailure(c, err)
		server.RespondWithError(c, err)
		return
	}

	matched := filterTemplates(list.Templates, q)
	total := len(matched)
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	server.RespondOKWithMeta(c, matched, ListMeta{
		Total:     total,
		Count:     len(matched),
		Source:    list.Source,
		FetchedAt: list.FetchedAt,
	})
}

// GetTemplate returns a single template by id.
func (h *Handler) GetTemplate(c *gin.Context) {
	id := c.Param("id")
	if appErr := validation.New().Pattern("id", id, templateIDPattern).Validate(); appErr != nil {
		server.RespondWithError(c, appErr)
		return
	}

	list, err := h.source.FetchTemplates(c.Request.Context())
	h.setQuotaHeaders(c)
	if err != nil {
		h.logFailure(c, err)
		server.RespondWithError(c, err)
		return
	}

	tmpl, found := list.Find(id)
	if !found {
		server.RespondWithError(c, errors.NotFound("template", id))
		return
	}
	server.RespondOK(c, tmpl)
}

// Quota reports the limiter state without spending an admission.
func (h *Handler) Quota(c *gin.Context) {
	h.setQuotaHeaders(c)
	server.RespondOK(c, Quota{
		Limit:          h.source.Limit(),
		Remaining:      h.source.RemainingCapacity(),
		ResetMS:        h.source.TimeUntilWindowClears().Milliseconds(),
		CacheExpiresMS: h.source.CacheExpiresIn().Milliseconds(),
	})
}

func (h *Handler) parseListQuery(c *gin.Context, q string) (int, bool) {
	v := validation.New().MaxLength("q", q, maxQueryLength)

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			v.AddError("limit", "must be an integer")
		} else {
			limit = n
			v.Range("limit", n, 1, maxLimit)
		}
	}

	if appErr := v.Validate(); appErr != nil {
		server.RespondWithError(c, appErr)
		return 0, false
	}
	return limit, true
}

func (h *Handler) setQuotaHeaders(c *gin.Context) {
	c.Header(HeaderRateLimit, strconv.Itoa(h.source.Limit()))
	c.Header(HeaderRateRemaining, strconv.Itoa(h.source.RemainingCapacity()))
	c.Header(HeaderRateReset, strconv.FormatInt(h.source.TimeUntilWindowClears().Milliseconds(), 10))
}

func (h *Handler) logFailure(c *gin.Context, err error) {
	fields := logger.Fields("path", c.FullPath(), "code", string(errors.CodeOf(err)))
	if errors.CodeOf(err) == errors.ErrCodeRateLimited {
		h.log.WithContext(c.Request.Context()).Debug("Template request rejected", fields)
		return
	}
	log := h.log.WithContext(c.Request.Context())
	if errors.IsNetworkClass(err) {
		log.Warn("Template request failed", logger.MergeWithError(fields, err))
		return
	}
	log.Error("Template request failed", logger.MergeWithError(fields, err))
}

// filterTemplates returns the templates whose name contains q, ignoring
// case. The input slice is shared with the cache and is never modified.
func filterTemplates(templates []memes.Template, q string) []memes.Template {
	if q == "" {
		return templates
	}
	needle := strings.ToLower(q)
	out := make([]memes.Template, 0, len(templates))
	for _, t := range templates {
		if strings.Contains(strings.ToLower(t.Name), needle) {
			out = append(out, t)
		}
	}
	return out
}

var _ TemplateSource = (*memes.Fetcher)(nil)

