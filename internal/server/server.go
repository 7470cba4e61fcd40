// Package server exposes a product catalog over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Alp4ka/keyset"
	"github.com/Alp4ka/keyset/internal/catalog"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type Params struct {
	StaticDir    string
	QueryTimeout time.Duration
}

type Server struct {
	catalog catalog.Catalog
	log     logrus.FieldLogger
	params  Params
}

func New(c catalog.Catalog, log logrus.FieldLogger, params Params) *Server {
	return &Server{
		catalog: c,
		log:     log,
		params:  params,
	}
}

// Handler builds the gin engine serving the API, the health check and,
// when configured, the static front end.
func (s *Server) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", s.healthCheck)

	api := r.Group("/api", noStore)
	{
		api.GET("/products", s.products)
	}

	if s.params.StaticDir != "" {
		r.NoRoute(gin.WrapH(http.FileServer(http.Dir(s.params.StaticDir))))
	}

	return r
}

// Run serves until ctx is cancelled, then shuts the listener down.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Next()
}

func (s *Server) healthCheck(c *gin.Context) {
	ctx, cancel := s.queryContext(c)
	defer cancel()

	if err := s.catalog.Ping(ctx); err != nil {
		s.log.WithError(err).Warn("health check failed")
		sendError(c, http.StatusServiceUnavailable, "store is unreachable")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) products(c *gin.Context) {
	ctx, cancel := s.queryContext(c)
	defer cancel()

	page, err := s.catalog.Page(ctx, parseRequest(c))
	switch {
	case errors.Is(err, keyset.ErrMalformedCursor):
		sendError(c, http.StatusBadRequest, err.Error())
	case err != nil:
		s.log.WithError(err).WithField("requestId", c.GetString(_requestIDKey)).Error("cannot serve products")
		sendError(c, http.StatusInternalServerError, "cannot load products")
	default:
		c.JSON(http.StatusOK, page)
	}
}

func (s *Server) queryContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if s.params.QueryTimeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}

	return context.WithTimeout(c.Request.Context(), s.params.QueryTimeout)
}

// parseRequest maps query parameters onto a page request. Unparsable page
// sizes fall back to the default.
func parseRequest(c *gin.Context) keyset.Request {
	req := keyset.Request{
		Direction: c.Query("direction"),
		Cursor:    c.Query("cursor"),
		SortField: c.Query("sortField"),
		SortDir:   c.Query("sortDir"),
		Filter: keyset.FilterParams{
			Equal: map[keyset.ColumnAlias]string{},
			Range: keyset.RangeParam{
				Op:    c.Query("priceOp"),
				Value: c.Query("priceValue"),
			},
		},
	}

	// An explicit pageSize is clamped to at least one; only an absent or
	// unparsable value falls back to the default.
	if raw, ok := c.GetQuery("pageSize"); ok {
		if n, err := strconv.Atoi(raw); err == nil {
			req.PageSize = max(n, 1)
		}
	}

	for _, alias := range catalog.FilterSchema.Equality {
		if value := c.Query(alias); value != "" {
			req.Filter.Equal[alias] = value
		}
	}

	return req
}

func sendError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}
