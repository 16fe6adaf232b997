package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bookdesk/library-service/library/internal/errs"
	"github.com/bookdesk/library-service/library/internal/handler"
	service_mocks "github.com/bookdesk/library-service/library/internal/handler/mocks"
	"github.com/bookdesk/library-service/library/internal/model"
	"github.com/bookdesk/library-service/pkg/auth"
	"github.com/bookdesk/library-service/pkg/validate"
)

const (
	testCopyID   = "9b4f24c2-3f8e-4f0d-9a45-1f1f9f1fb1aa"
	testMemberID = "83575e12-7ce0-48ee-9931-51919ff3c9ee"
	testBorrowID = "1f8a9c2e-5d3b-4e6f-8a7b-2c1d0e9f8a7b"
)

func TestHandler_BorrowBook(t *testing.T) {
	t.Parallel()
	borrowedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockLibraryService)

	var tests = []struct {
		name         string
		body         string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name: "ok",
			body: `{"copyId":"` + testCopyID + `","memberId":"` + testMemberID + `"}`,
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					BorrowBook(context.Background(), model.BorrowRequest{CopyID: testCopyID, MemberID: testMemberID}).
					Return(model.Borrow{
						ID:         testBorrowID,
						CopyID:     testCopyID,
						MemberID:   testMemberID,
						Status:     model.BorrowStatusActive,
						BorrowedAt: borrowedAt,
					}, nil)
			},
			response: response{
				expectedCode: http.StatusCreated,
				expectedBody: `{"id":"` + testBorrowID + `","copyId":"` + testCopyID + `","memberId":"` + testMemberID + `","status":"active","borrowedAt":"2026-03-01T12:00:00Z"}`,
			},
		},
		{
			name: "copy already borrowed",
			body: `{"copyId":"` + testCopyID + `","memberId":"` + testMemberID + `"}`,
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					BorrowBook(context.Background(), model.BorrowRequest{CopyID: testCopyID, MemberID: testMemberID}).
					Return(model.Borrow{}, errors.Wrap(errs.ErrConflict, "copy is not available"))
			},
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"copy is not available: conflict"}`,
			},
		},
		{
			name: "unknown member",
			body: `{"copyId":"` + testCopyID + `","memberId":"` + testMemberID + `"}`,
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					BorrowBook(context.Background(), model.BorrowRequest{CopyID: testCopyID, MemberID: testMemberID}).
					Return(model.Borrow{}, errors.Wrap(errs.ErrNotFound, "member"))
			},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"member: not found"}`,
			},
		},
		{
			name:         "malformed copy id",
			body:         `{"copyId":"not-a-uuid","memberId":"` + testMemberID + `"}`,
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
			},
		},
		{
			name:         "missing member id",
			body:         `{"copyId":"` + testCopyID + `"}`,
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
			},
		},
		{
			name: "internal error is masked",
			body: `{"copyId":"` + testCopyID + `","memberId":"` + testMemberID + `"}`,
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					BorrowBook(context.Background(), model.BorrowRequest{CopyID: testCopyID, MemberID: testMemberID}).
					Return(model.Borrow{}, errors.New("db internal"))
			},
			response: response{
				expectedCode: http.StatusInternalServerError,
				expectedBody: `{"message":"internal error"}`,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockLibraryService(c)
			h := handler.New(svc, nil, []byte("secret"), zap.NewNop())

			e := echo.New()
			e.Validator = validate.NewCustomValidator()
			e.POST("/borrowings", h.BorrowBook)

			r := httptest.NewRequest(http.MethodPost, "/borrowings", strings.NewReader(tt.body))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			tt.mockBehavior(svc)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			if tt.response.expectedBody != "" {
				require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
			}
		})
	}
}

func TestHandler_ReturnBook(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockLibraryService)

	var tests = []struct {
		name         string
		body         string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name: "ok",
			body: `{"copyId":"` + testCopyID + `"}`,
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				returnedAt := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
				r.EXPECT().
					ReturnBook(context.Background(), model.ReturnRequest{CopyID: testCopyID}).
					Return(model.Borrow{
						ID:         testBorrowID,
						CopyID:     testCopyID,
						MemberID:   testMemberID,
						Status:     model.BorrowStatusReturned,
						BorrowedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
						ReturnedAt: &returnedAt,
					}, nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"id":"` + testBorrowID + `","copyId":"` + testCopyID + `","memberId":"` + testMemberID + `","status":"returned","borrowedAt":"2026-03-01T12:00:00Z","returnedAt":"2026-03-02T09:30:00Z"}`,
			},
		},
		{
			name: "no active borrow",
			body: `{"copyId":"` + testCopyID + `"}`,
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					ReturnBook(context.Background(), model.ReturnRequest{CopyID: testCopyID}).
					Return(model.Borrow{}, errors.Wrap(errs.ErrConflict, "no active borrow for this copy"))
			},
			response: response{
				expectedCode: http.StatusConflict,
				expectedBody: `{"message":"no active borrow for this copy: conflict"}`,
			},
		},
		{
			name: "unknown copy",
			body: `{"copyId":"` + testCopyID + `"}`,
			mockBehavior: func(r *service_mocks.MockLibraryService) {
				r.EXPECT().
					ReturnBook(context.Background(), model.ReturnRequest{CopyID: testCopyID}).
					Return(model.Borrow{}, errors.Wrap(errs.ErrNotFound, "copy"))
			},
			response: response{
				expectedCode: http.StatusNotFound,
				expectedBody: `{"message":"copy: not found"}`,
			},
		},
		{
			name:         "missing copy id",
			body:         `{}`,
			mockBehavior: func(r *service_mocks.MockLibraryService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			svc := service_mocks.NewMockLibraryService(c)
			h := handler.New(svc, nil, []byte("secret"), zap.NewNop())

			e := echo.New()
			e.Validator = validate.NewCustomValidator()
			e.POST("/borrowings/return", h.ReturnBook)

			r := httptest.NewRequest(http.MethodPost, "/borrowings/return", strings.NewReader(tt.body))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			tt.mockBehavior(svc)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			if tt.response.expectedBody != "" {
				require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
			}
		})
	}
}

func TestHandler_Login(t *testing.T) {
	t.Parallel()
	type response struct {
		expectedCode int
		expectedBody string
	}
	type mockBehavior func(r *service_mocks.MockAuthService)

	expiresAt := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

	var tests = []struct {
		name         string
		body         string
		mockBehavior mockBehavior
		response     response
	}{
		{
			name: "ok",
			body: `{"username":"librarian","password":"s3cret"}`,
			mockBehavior: func(r *service_mocks.MockAuthService) {
				r.EXPECT().
					Login(context.Background(), model.LoginRequest{Username: "librarian", Password: "s3cret"}).
					Return(model.LoginResponse{Token: "tok", ExpiresAt: expiresAt}, nil)
			},
			response: response{
				expectedCode: http.StatusOK,
				expectedBody: `{"token":"tok","expiresAt":"2026-03-02T12:00:00Z"}`,
			},
		},
		{
			name: "bad credentials",
			body: `{"username":"librarian","password":"wrong"}`,
			mockBehavior: func(r *service_mocks.MockAuthService) {
				r.EXPECT().
					Login(context.Background(), model.LoginRequest{Username: "librarian", Password: "wrong"}).
					Return(model.LoginResponse{}, errs.ErrBadCreds)
			},
			response: response{
				expectedCode: http.StatusUnauthorized,
				expectedBody: `{"message":"invalid credentials"}`,
			},
		},
		{
			name:         "missing password",
			body:         `{"username":"librarian"}`,
			mockBehavior: func(r *service_mocks.MockAuthService) {},
			response: response{
				expectedCode: http.StatusBadRequest,
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := gomock.NewController(t)
			defer c.Finish()
			authSvc := service_mocks.NewMockAuthService(c)
			h := handler.New(nil, authSvc, []byte("secret"), zap.NewNop())

			e := echo.New()
			e.Validator = validate.NewCustomValidator()
			e.POST("/auth/login", h.Login)

			r := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(tt.body))
			r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			w := httptest.NewRecorder()

			tt.mockBehavior(authSvc)
			e.ServeHTTP(w, r)

			require.Equal(t, tt.response.expectedCode, w.Code)
			if tt.response.expectedBody != "" {
				require.Equal(t, tt.response.expectedBody, strings.Trim(w.Body.String(), "\n"))
			}
		})
	}
}

// TestRouter_Auth drives requests through the full router to cover the
// bearer token middleware.
func TestRouter_Auth(t *testing.T) {
	t.Parallel()
	secret := []byte("router-secret")

	c := gomock.NewController(t)
	defer c.Finish()
	svc := service_mocks.NewMockLibraryService(c)
	authSvc := service_mocks.NewMockAuthService(c)
	h := handler.New(svc, authSvc, secret, zap.NewNop())
	e := h.NewRouter()

	t.Run("no token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/books", http.NoBody)
		w := httptest.NewRecorder()
		e.ServeHTTP(w, r)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/books", http.NoBody)
		r.Header.Set("Authorization", "Bearer not.a.jwt")
		w := httptest.NewRecorder()
		e.ServeHTTP(w, r)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token, _, err := auth.NewToken(testMemberID, auth.JWT{Secret: string(secret), TTL: time.Hour})
		require.NoError(t, err)

		svc.EXPECT().
			ListBooks(gomock.Any(), model.BookFilter{}, 1, 100).
			Return(model.ListBooks{Paging: model.Paging{Page: 1, PageSize: 100}}, nil)

		r := httptest.NewRequest(http.MethodGet, "/api/v1/books", http.NoBody)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		e.ServeHTTP(w, r)
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("health is open", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/manage/health", http.NoBody)
		w := httptest.NewRecorder()
		e.ServeHTTP(w, r)
		require.Equal(t, http.StatusOK, w.Code)
	})
}

func TestHandler_Pagination(t *testing.T) {
	t.Parallel()

	c := gomock.NewController(t)
	defer c.Finish()
	svc := service_mocks.NewMockLibraryService(c)
	h := handler.New(svc, nil, []byte("secret"), zap.NewNop())

	e := echo.New()
	e.Validator = validate.NewCustomValidator()
	e.GET("/copies/available", h.ListAvailableCopies)

	t.Run("explicit values pass through", func(t *testing.T) {
		svc.EXPECT().
			ListAvailableCopies(context.Background(), 2, 10).
			Return(model.ListAvailableCopies{Paging: model.Paging{Page: 2, PageSize: 10}}, nil)

		r := httptest.NewRequest(http.MethodGet, "/copies/available?page=2&limit=10", http.NoBody)
		w := httptest.NewRecorder()
		e.ServeHTTP(w, r)
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("non-numeric page", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/copies/available?page=abc", http.NoBody)
		w := httptest.NewRecorder()
		e.ServeHTTP(w, r)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("non-numeric limit", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/copies/available?limit=ten", http.NoBody)
		w := httptest.NewRecorder()
		e.ServeHTTP(w, r)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}
