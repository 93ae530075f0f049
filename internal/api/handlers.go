package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"zrozumto/internal/auth"
	"zrozumto/internal/logger"
	"zrozumto/internal/models"
	"zrozumto/internal/service/platform"
	"zrozumto/internal/staging"
	"zrozumto/internal/worker"
)

const webhookSecretHeader = "X-Webhook-Secret"

// Scheduler hands pipeline jobs to the background pool.
type Scheduler interface {
	Enqueue(worker.Job) error
}

// Handler wires HTTP routes to the platform services and the ingestion pipeline.
type Handler struct {
	platform *platform.Service
	auth     *auth.Service
	pool     Scheduler
	staging  *staging.Store
	secret   string
	log      *logger.Logger
}

// NewHandler constructs a Handler instance.
func NewHandler(platformSvc *platform.Service, authSvc *auth.Service, pool Scheduler, store *staging.Store, webhookSecret string, log *logger.Logger) *Handler {
	return &Handler{
		platform: platformSvc,
		auth:     authSvc,
		pool:     pool,
		staging:  store,
		secret:   webhookSecret,
		log:      log,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.POST("/webhooks/ingest", h.ingestLesson)

	api := router.Group("/api")
	api.POST("/auth/login", h.login)

	authMW := h.auth.Middleware()
	authed := api.Group("")
	authed.Use(authMW, h.auth.CSRFMiddleware())
	authed.GET("/auth/me", h.myProfile)
	authed.POST("/auth/logout", h.logout)
	authed.GET("/lessons", h.listLessons)
	authed.GET("/lessons/:id", h.getLesson)
	authed.GET("/quizzes/:lesson_id", h.getQuizzes)

	admin := api.Group("/admin")
	admin.Use(authMW, h.auth.RequireAdmin(), h.auth.CSRFMiddleware())
	admin.POST("/users", h.createUser)
	admin.GET("/users", h.listUsers)
	admin.DELETE("/users/:username", h.deleteUser)
}

// ingestLesson is the webhook entry point for lesson bundles. It stages the
// uploads, creates the lesson and its assignment, enqueues the quiz pipeline,
// and returns before any model work starts.
func (h *Handler) ingestLesson(c *gin.Context) {
	if h.secret == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook secret not configured on server"})
		return
	}
	got := c.GetHeader(webhookSecretHeader)
	if got == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "webhook secret required"})
		return
	}
	if got != h.secret {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid webhook secret"})
		return
	}

	student := c.PostForm("student")
	title := c.PostForm("title")
	if student == "" || title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "student and title are required"})
		return
	}

	studentID, err := h.platform.ResolveStudent(c.Request.Context(), student)
	if err != nil {
		if errors.Is(err, platform.ErrStudentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var stagedPaths []string
	abandon := func() {
		if err := h.staging.RemoveAll(stagedPaths); err != nil {
			h.log.Warn("staged file cleanup failed", "error", err)
		}
	}

	form, err := c.MultipartForm()
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}
	if form != nil {
		for _, fh := range form.File["files"] {
			src, err := fh.Open()
			if err != nil {
				abandon()
				c.JSON(http.StatusBadRequest, gin.H{"error": "open upload failed"})
				return
			}
			path, err := h.staging.Stash(fh.Filename, src)
			src.Close()
			if err != nil {
				abandon()
				c.JSON(http.StatusInternalServerError, gin.H{"error": "stage upload failed"})
				return
			}
			stagedPaths = append(stagedPaths, path)
		}
	}

	lesson, err := h.platform.CreateLesson(c.Request.Context(), title, "Lekcja dodana automatycznie (webhook)")
	if err != nil {
		abandon()
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := h.platform.CreateAssignment(c.Request.Context(), lesson.ID, studentID); err != nil {
		abandon()
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if len(stagedPaths) > 0 {
		if err := h.pool.Enqueue(worker.Job{LessonID: lesson.ID, StagedPaths: stagedPaths}); err != nil {
			abandon()
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "server is busy, please retry"})
			return
		}
	}

	h.log.Info("lesson ingested", "lesson_id", lesson.ID, "student_id", studentID, "files", len(stagedPaths))
	c.JSON(http.StatusOK, gin.H{
		"lesson_id": lesson.ID,
		"status":    "processing_started",
	})
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	user, err := h.platform.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
		return
	}
	authToken, err := h.auth.IssueToken(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "issue token failed"})
		return
	}
	csrfToken, err := h.auth.NewCSRFToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "issue token failed"})
		return
	}
	h.setAuthCookies(c, authToken, csrfToken)
	c.JSON(http.StatusOK, gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"full_name":  user.FullName,
		"role":       user.Role,
		"auth_token": authToken,
	})
}

func (h *Handler) myProfile(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	user, err := h.platform.GetUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) logout(c *gin.Context) {
	if _, ok := h.authorizedUserID(c); !ok {
		return
	}
	if authToken, ok := auth.AuthTokenFromContext(c); ok {
		_ = h.auth.RevokeToken(c.Request.Context(), authToken)
	}
	h.clearAuthCookies(c)
	c.Status(http.StatusNoContent)
}

func (h *Handler) listLessons(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	lessons, err := h.platform.ListLessonsForStudent(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if lessons == nil {
		lessons = make([]models.Lesson, 0)
	}
	c.JSON(http.StatusOK, gin.H{"lessons": lessons})
}

func (h *Handler) getLesson(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	lessonID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || lessonID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lesson id"})
		return
	}
	lesson, err := h.platform.GetLessonForStudent(c.Request.Context(), userID, lessonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "lesson not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, lesson)
}

func (h *Handler) getQuizzes(c *gin.Context) {
	userID, ok := h.authorizedUserID(c)
	if !ok {
		return
	}
	lessonID, err := strconv.ParseInt(c.Param("lesson_id"), 10, 64)
	if err != nil || lessonID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lesson id"})
		return
	}
	if _, err := h.platform.GetLessonForStudent(c.Request.Context(), userID, lessonID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "lesson not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	quizzes, err := h.platform.ListQuizzesForLesson(c.Request.Context(), lessonID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if quizzes == nil {
		quizzes = make([]models.Quiz, 0)
	}
	c.JSON(http.StatusOK, gin.H{"quizzes": quizzes})
}

type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

func (h *Handler) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	user, err := h.platform.CreateUser(c.Request.Context(), req.Username, req.Password, req.FullName, models.Role(req.Role))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"role":     user.Role,
	})
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.platform.ListUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if users == nil {
		users = make([]models.User, 0)
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *Handler) deleteUser(c *gin.Context) {
	username := c.Param("username")
	if err := h.platform.DeleteUserByUsername(c.Request.Context(), username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": username})
}

func (h *Handler) authorizedUserID(c *gin.Context) (int64, bool) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok || userID <= 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return 0, false
	}
	return userID, true
}

func (h *Handler) setAuthCookies(c *gin.Context, authToken, csrfToken string) {
	ttl := int(h.auth.TokenTTL().Seconds())
	if ttl <= 0 {
		ttl = 3600
	}
	secure := gin.Mode() == gin.ReleaseMode
	setCookie(c, &http.Cookie{
		Name:     h.auth.AuthCookieName(),
		Value:    authToken,
		MaxAge:   ttl,
		Path:     "/",
		Secure:   secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	setCookie(c, &http.Cookie{
		Name:     h.auth.CSRFCookieName(),
		Value:    csrfToken,
		MaxAge:   ttl,
		Path:     "/",
		Secure:   secure,
		HttpOnly: false,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) clearAuthCookies(c *gin.Context) {
	for _, name := range []string{h.auth.AuthCookieName(), h.auth.CSRFCookieName()} {
		setCookie(c, &http.Cookie{
			Name:     name,
			Value:    "",
			MaxAge:   -1,
			Path:     "/",
			Secure:   gin.Mode() == gin.ReleaseMode,
			HttpOnly: name == h.auth.AuthCookieName(),
			SameSite: http.SameSiteStrictMode,
		})
	}
}

func setCookie(c *gin.Context, ck *http.Cookie) {
	if ck == nil {
		return
	}
	http.SetCookie(c.Writer, ck)
}
