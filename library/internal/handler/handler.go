package handler

import (
	"net/http"
	"strconv"

	md "github.com/bookdesk/library-service/pkg/middleware"

	"github.com/bookdesk/library-service/library/internal/errs"
	"github.com/bookdesk/library-service/library/internal/model"
	"github.com/bookdesk/library-service/pkg/validate"
	_ "github.com/bookdesk/library-service/swagger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"
)

type Handler struct {
	librarySvc LibraryService
	authSvc    AuthService
	jwtSecret  []byte
	log        *zap.Logger
}

func New(librarySvc LibraryService, authSvc AuthService, jwtSecret []byte, log *zap.Logger) *Handler {
	return &Handler{
		librarySvc: librarySvc,
		authSvc:    authSvc,
		jwtSecret:  jwtSecret,
		log:        log,
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)
	base.GET("/swagger/*", echoSwagger.WrapHandler)

	e.Validator = validate.NewCustomValidator()

	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig()),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
	)
	api.POST("/auth/login", h.Login)

	sec := api.Group("", md.JwtAuthentication(h.jwtSecret))

	sec.POST("/books", h.CreateBook)
	sec.GET("/books", h.ListBooks)
	sec.GET("/books/:id", h.GetBook)
	sec.PATCH("/books/:id", h.UpdateBook)
	sec.GET("/books/:id/copies", h.ListCopiesByBook)

	sec.POST("/members", h.CreateMember)
	sec.GET("/members", h.ListMembers)
	sec.GET("/members/:id", h.GetMember)
	sec.PATCH("/members/:id", h.UpdateMember)

	sec.POST("/copies", h.CreateCopy)
	sec.GET("/copies/available", h.ListAvailableCopies)

	sec.POST("/borrowings", h.BorrowBook)
	sec.POST("/borrowings/return", h.ReturnBook)
	sec.GET("/borrowings", h.ListBorrowings)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) Login(c echo.Context) error {
	var req model.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	resp, err := h.authSvc.Login(c.Request().Context(), req)
	if err != nil {
		return h.domainError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) CreateBook(c echo.Context) error {
	var req model.CreateBookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	book, err := h.librarySvc.CreateBook(c.Request().Context(), req)
	if err != nil {
		return h.domainError(err)
	}
	return c.JSON(http.StatusCreated, book)
}

func (h *Handler) UpdateBook(c echo.Context) error {
	var req model.UpdateBookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	book, err := h.librarySvc.UpdateBook(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return h.domainError(err)
	}
	return c.JSON(http.StatusOK, book)
}

func (h *Handler) GetBook(c echo.Context) error {
	book, err := h.librarySvc.GetBook(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.domainError(err)
	}
	return c.JSON(http.StatusOK, book)
}

func (h *Handler) ListBooks(c echo.Context) error {
	page, limit, err := pagination(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	filter := model.BookFilter{
		Title:  c.QueryParam("title"),
		Author: c.QueryParam("author"),
		ISBN:   c.QueryParam("isbn"),
		Query:  c.QueryParam("query"),
	}
	books, err := h.librarySvc.ListBooks(c.Request().Context(), filter, page, limit)
	if err != nil {
		return h.domainError(err)
	}
	return c.JSON(http.StatusOK, books)
}

func (h *Handler) CreateMember(c echo.Context) error {
	var req model.CreateMemberRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	member, err := h.librarySvc.CreateMember(c.Request().Context(), req)
	if err != nil {
		return h.domainError(err)
	}
	return c.JSON(http.StatusCreated, member)
}

func (h *Handler) UpdateMember(c echo.Context) error {
	var req model.UpdateMemberRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	member, err := h.librarySvc.UpdateMember(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return h.domainError(err)
	}
	return c.JSON(http.StatusOK, member)
}

func (h *Handler) GetMember(c echo.Context) error {
	member, err := h.librarySvc.GetMember(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.domainError(err)
	}
	return c.JSON(http.StatusOK, member)
}

func (h *Handler) ListMembers(c echo.Context) error {
	page, limit, err := pagination(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	filter := model.MemberFilter{
		Name:  c.QueryParam("name"),
		Email: c.QueryParam("email"),
		Query: c.QueryParam("query"),
	}
	members, err := h.librarySvc.ListMembers(c.Request().Context(), filter, page, limit)
	if err != nil {
		return h.domainError(err)
	}
	return c.JSON(http.StatusOK, members)
}

func (h *Handler) CreateCopy(c echo.Context) error {
	var req model.CreateCopyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	cp, err := h.librarySvc.CreateCopy(c.Request().Context(), req)
	if err != nil {
		return h.domainError(err)
	}
	return c.JSON(http.StatusCreated, cp)
}

func (h *Handler) ListAvailableCopies(c echo.Context) error {
	page, limit, err := pagination(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	copies, err := h.librarySvc.ListAvailableCopies(c.Request().Context(), page, limit)
	if err != nil {
		return h.domainError(err)
	}
	return c.JSON(http.StatusOK, copies)
}

func (h *Handler) ListCopiesByBook(c echo.Context) error {
	page, limit, err := pagination(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	copies, err := h.librarySvc.ListCopiesByBook(c.Request().Context(), c.Param("id"), page, limit)
	if err != nil {
		return h.domainError(err)
	}
	return c.JSON(http.StatusOK, copies)
}

func (h *Handler) BorrowBook(c echo.Context) error {
	var req model.BorrowRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	borrow, err := h.librarySvc.BorrowBook(c.Request().Context(), req)
	if err != nil {
		return h.domainError(err)
	}
	return c.JSON(http.StatusCreated, borrow)
}

func (h *Handler) ReturnBook(c echo.Context) error {
	var req model.ReturnRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	borrow, err := h.librarySvc.ReturnBook(c.Request().Context(), req)
	if err != nil {
		return h.domainError(err)
	}
	return c.JSON(http.StatusOK, borrow)
}

func (h *Handler) ListBorrowings(c echo.Context) error {
	page, limit, err := pagination(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	filter := model.BorrowFilter{
		MemberID: c.QueryParam("memberId"),
		Query:    c.QueryParam("query"),
	}
	borrows, err := h.librarySvc.ListBorrowings(c.Request().Context(), filter, page, limit)
	if err != nil {
		return h.domainError(err)
	}
	return c.JSON(http.StatusOK, borrows)
}

// domainError translates domain error kinds to transport status codes.
// Unclassified failures are logged with full detail and surfaced as a
// generic internal error.
func (h *Handler) domainError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, errs.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrBadCreds):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	default:
		h.log.Error("internal error", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func pagination(c echo.Context) (page, limit int, err error) {
	page, limit = 1, maxPageLimit
	if pageParam := c.QueryParam("page"); pageParam != "" {
		if page, err = strconv.Atoi(pageParam); err != nil {
			return 0, 0, errors.New("page is invalid")
		}
	}
	if limitParam := c.QueryParam("limit"); limitParam != "" {
		if limit, err = strconv.Atoi(limitParam); err != nil {
			return 0, 0, errors.New("limit is invalid")
		}
	}
	return page, limit, nil
}

const maxPageLimit = 100
