package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"shortlink/internal/domain"
	"shortlink/internal/repository"
	"shortlink/internal/service"
	"shortlink/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==================== MOCKS ====================

// MockURLService is a mock implementation of URLService
type MockURLService struct {
	mock.Mock
}

func (m *MockURLService) Shorten(ctx context.Context, originalURL string) (*service.ShortenResult, error) {
	args := m.Called(ctx, originalURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ShortenResult), args.Error(1)
}

func (m *MockURLService) Resolve(ctx context.Context, shortCode string) service.Lookup {
	args := m.Called(ctx, shortCode)
	return args.Get(0).(service.Lookup)
}

func (m *MockURLService) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// ==================== HELPER FUNCTIONS ====================

func setupTestHandler() (*Handler, *MockURLService) {
	mockService := new(MockURLService)
	handler := NewHandler(mockService, logger.NewNop())
	return handler, mockService
}

// withCodeParam attaches the chi URL parameter the handlers read.
func withCodeParam(req *http.Request, code string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("short_code", code)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func found(code, url string) service.Lookup {
	return service.Lookup{Outcome: service.OutcomeFound, Mapping: domain.NewURLMapping(code, url)}
}

var (
	absent      = service.Lookup{Outcome: service.OutcomeAbsent}
	backendFail = service.Lookup{
		Outcome: service.OutcomeBackendError,
		Err:     repository.Backend("select mapping", errors.New("connection refused")),
	}
)

// ==================== SHORTEN TESTS ====================

func TestShorten_Success(t *testing.T) {
	// Arrange
	handler, mockService := setupTestHandler()
	mockService.On("Shorten", mock.Anything, "https://example.com/a/b").
		Return(&service.ShortenResult{ShortCode: "abcd1234", ShortURL: "http://localhost:3000/abcd1234"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/shorten", bytes.NewBufferString(`{"url": "https://example.com/a/b"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	// Act
	handler.Shorten(w, req)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var response ShortenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "abcd1234", response.ShortCode)
	assert.Equal(t, "http://localhost:3000/abcd1234", response.ShortURL)

	mockService.AssertExpectations(t)
}

func TestShorten_TableDriven(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    string
		mockSetup      func(*MockURLService)
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "Invalid JSON",
			requestBody:    `{invalid}`,
			mockSetup:      func(m *MockURLService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Invalid JSON",
		},
		{
			name:           "Missing URL",
			requestBody:    `{"code": "mine"}`,
			mockSetup:      func(m *MockURLService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "URL is required",
		},
		{
			name:           "Empty URL",
			requestBody:    `{"url": ""}`,
			mockSetup:      func(m *MockURLService) {},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "URL cannot be empty",
		},
		{
			name:        "Store failure",
			requestBody: `{"url": "https://example.com"}`,
			mockSetup: func(m *MockURLService) {
				m.On("Shorten", mock.Anything, "https://example.com").
					Return(nil, fmt.Errorf("failed to save mapping: %w", repository.Backend("insert mapping", errors.New("disk I/O error"))))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "Failed to shorten URL",
		},
		{
			name:        "Conflict after retries",
			requestBody: `{"url": "https://example.com"}`,
			mockSetup: func(m *MockURLService) {
				m.On("Shorten", mock.Anything, "https://example.com").
					Return(nil, fmt.Errorf("no free short code after 3 attempts: %w", repository.ErrConflict))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "Failed to shorten URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			handler, mockService := setupTestHandler()
			tt.mockSetup(mockService)

			req := httptest.NewRequest(http.MethodPost, "/shorten", bytes.NewBufferString(tt.requestBody))
			w := httptest.NewRecorder()

			// Act
			handler.Shorten(w, req)

			// Assert
			assert.Equal(t, tt.expectedStatus, w.Code)

			var response ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Contains(t, response.Error, tt.expectedError)
			assert.NotContains(t, w.Body.String(), "disk I/O", "backend details must not leak")

			mockService.AssertExpectations(t)
		})
	}
}

func TestShorten_BlankURLIsStoredAsGiven(t *testing.T) {
	// Arrange
	handler, mockService := setupTestHandler()
	mockService.On("Shorten", mock.Anything, "   ").
		Return(&service.ShortenResult{ShortCode: "abcd1234", ShortURL: "http://localhost:3000/abcd1234"}, nil)

	req := httptest.NewRequest(http.MethodPost, "/shorten", bytes.NewBufferString(`{"url": "   "}`))
	w := httptest.NewRecorder()

	// Act
	handler.Shorten(w, req)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

// ==================== RESOLVE TESTS ====================

func TestResolve_Found(t *testing.T) {
	// Arrange
	handler, mockService := setupTestHandler()
	mockService.On("Resolve", mock.Anything, "abcd1234").Return(found("abcd1234", "https://example.com/a/b"))

	req := withCodeParam(httptest.NewRequest(http.MethodGet, "/get/abcd1234", nil), "abcd1234")
	w := httptest.NewRecorder()

	// Act
	handler.Resolve(w, req)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"short_code": "abcd1234", "original_url": "https://example.com/a/b"}`, w.Body.String())
	mockService.AssertExpectations(t)
}

func TestResolve_AbsentAndBackendErrorAreNull(t *testing.T) {
	for name, lookup := range map[string]service.Lookup{"absent": absent, "backend error": backendFail} {
		t.Run(name, func(t *testing.T) {
			handler, mockService := setupTestHandler()
			mockService.On("Resolve", mock.Anything, "abcd1234").Return(lookup)

			req := withCodeParam(httptest.NewRequest(http.MethodGet, "/get/abcd1234", nil), "abcd1234")
			w := httptest.NewRecorder()

			handler.Resolve(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "null\n", w.Body.String())
		})
	}
}

// ==================== REDIRECT TESTS ====================

func TestRedirect_Found(t *testing.T) {
	// Arrange
	handler, mockService := setupTestHandler()
	mockService.On("Resolve", mock.Anything, "abcd1234").Return(found("abcd1234", "https://example.com/a/b"))

	req := withCodeParam(httptest.NewRequest(http.MethodGet, "/abcd1234", nil), "abcd1234")
	w := httptest.NewRecorder()

	// Act
	handler.Redirect(w, req)

	// Assert
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "https://example.com/a/b", w.Header().Get("Location"))
	mockService.AssertExpectations(t)
}

func TestRedirect_TargetIsNotRewritten(t *testing.T) {
	handler, mockService := setupTestHandler()
	mockService.On("Resolve", mock.Anything, "abcd1234").Return(found("abcd1234", "../relative/./path"))

	req := withCodeParam(httptest.NewRequest(http.MethodGet, "/abcd1234", nil), "abcd1234")
	w := httptest.NewRecorder()

	handler.Redirect(w, req)

	assert.Equal(t, "../relative/./path", w.Header().Get("Location"))
}

func TestRedirect_AbsentAndBackendErrorGoTo404(t *testing.T) {
	for name, lookup := range map[string]service.Lookup{"absent": absent, "backend error": backendFail} {
		t.Run(name, func(t *testing.T) {
			handler, mockService := setupTestHandler()
			mockService.On("Resolve", mock.Anything, "abcd1234").Return(lookup)

			req := withCodeParam(httptest.NewRequest(http.MethodGet, "/abcd1234", nil), "abcd1234")
			w := httptest.NewRecorder()

			handler.Redirect(w, req)

			assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
			assert.Equal(t, NotFoundPath, w.Header().Get("Location"))
		})
	}
}

// ==================== PAGES / PING TESTS ====================

func TestHomeAndNotFoundPages(t *testing.T) {
	handler, _ := setupTestHandler()

	w := httptest.NewRecorder()
	handler.Home(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, greetingText, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")

	w = httptest.NewRecorder()
	handler.NotFoundPage(w, httptest.NewRequest(http.MethodGet, "/404", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Not Found")
}

func TestPing(t *testing.T) {
	tests := []struct {
		name           string
		pingErr        error
		expectedStatus int
	}{
		{"healthy", nil, http.StatusOK},
		{"store down", repository.Backend("ping", errors.New("connection refused")), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, mockService := setupTestHandler()
			mockService.On("Ping", mock.Anything).Return(tt.pingErr)

			w := httptest.NewRecorder()
			handler.Ping(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

// ==================== RESPONSE MAPPING TESTS ====================

func TestMapResolveAndRedirect(t *testing.T) {
	assert.Nil(t, mapResolve(absent))
	assert.Nil(t, mapResolve(backendFail))
	assert.Equal(t, &MappingResponse{ShortCode: "abcd1234", OriginalURL: "https://x.example"},
		mapResolve(found("abcd1234", "https://x.example")))

	target, ok := mapRedirect(found("abcd1234", "https://x.example"))
	assert.True(t, ok)
	assert.Equal(t, "https://x.example", target)

	target, ok = mapRedirect(backendFail)
	assert.False(t, ok)
	assert.Equal(t, NotFoundPath, target)

	var zero service.Lookup
	assert.Nil(t, mapResolve(zero))
	target, ok = mapRedirect(zero)
	assert.False(t, ok)
	assert.Equal(t, NotFoundPath, target)
}
