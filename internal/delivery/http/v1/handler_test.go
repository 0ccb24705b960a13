package v1

import (
	"bytes"
	"context"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pvoloshyn/go-tasklist/internal/models"
	"github.com/pvoloshyn/go-tasklist/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// mockAuthService implements services.AuthService for testing.
type mockAuthService struct {
	registerFunc func(ctx context.Context, params services.Credentials) (*services.AuthResult, error)
	loginFunc    func(ctx context.Context, params services.Credentials) (*services.AuthResult, error)
}

func (m *mockAuthService) Register(ctx context.Context, params services.Credentials) (*services.AuthResult, error) {
	if m.registerFunc != nil {
		return m.registerFunc(ctx, params)
	}
	return &services.AuthResult{UserID: "user-1", Token: "test-token"}, nil
}

func (m *mockAuthService) Login(ctx context.Context, params services.Credentials) (*services.AuthResult, error) {
	if m.loginFunc != nil {
		return m.loginFunc(ctx, params)
	}
	return &services.AuthResult{UserID: "user-1", Token: "test-token"}, nil
}

// mockTokenService implements services.TokenService for testing.
type mockTokenService struct {
	issueFunc  func(userID string) (string, time.Time, error)
	verifyFunc func(token string) (string, error)
}

func (m *mockTokenService) Issue(userID string) (string, time.Time, error) {
	if m.issueFunc != nil {
		return m.issueFunc(userID)
	}
	return "test-token", time.Now().Add(24 * time.Hour), nil
}

func (m *mockTokenService) Verify(token string) (string, error) {
	if m.verifyFunc != nil {
		return m.verifyFunc(token)
	}
	return "user-1", nil
}

// mockTaskService implements services.TaskService for testing.
type mockTaskService struct {
	getFunc    func(ctx context.Context, userID string) ([]*models.Task, error)
	createFunc func(ctx context.Context, params services.CreateTaskParams) (*models.Task, error)
	updateFunc func(ctx context.Context, params services.UpdateTaskParams) (*models.Task, error)
	deleteFunc func(ctx context.Context, params services.DeleteTaskParams) error
}

func (m *mockTaskService) GetTasksByUserID(ctx context.Context, userID string) ([]*models.Task, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, userID)
	}
	return []*models.Task{}, nil
}

func (m *mockTaskService) CreateTask(ctx context.Context, params services.CreateTaskParams) (*models.Task, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, params)
	}
	return &models.Task{ID: "task-1", UserID: params.UserID, Title: params.Title}, nil
}

func (m *mockTaskService) UpdateTask(ctx context.Context, params services.UpdateTaskParams) (*models.Task, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, params)
	}
	return &models.Task{ID: params.ID, UserID: params.UserID}, nil
}

func (m *mockTaskService) DeleteTask(ctx context.Context, params services.DeleteTaskParams) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, params)
	}
	return nil
}

// newTestRouter wires the handler the same way the application does.
func newTestRouter(auth services.AuthService, tokens services.TokenService, tasks services.TaskService) *gin.Engine {
	h := New(zerolog.Nop(), auth, tokens, tasks)

	router := gin.New()
	api := router.Group("/api")

	authRouter := api.Group("/auth")
	authRouter.POST("/register", h.HandleRegister)
	authRouter.POST("/login", h.HandleLogin)

	taskRouter := api.Group("/tasks", h.HandleAuthMiddleware)
	taskRouter.GET("", h.HandleGetTasks)
	taskRouter.POST("", h.HandleCreateTask)
	taskRouter.PUT("/:id", h.HandleUpdateTask)
	taskRouter.DELETE("/:id", h.HandleDeleteTask)

	return router
}

func performRequest(router *gin.Engine, method, path, body, bearer string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
