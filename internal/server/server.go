package server

import (
	"fmt"
	"log"
	"time"

	"anoa.com/campusadmin/internal/config"
	"anoa.com/campusadmin/internal/entity"
	"anoa.com/campusadmin/internal/middleware"
	"anoa.com/campusadmin/internal/scheduler"
	"anoa.com/campusadmin/pkg/ratelimiter"
	"anoa.com/campusadmin/pkg/storage"
	"anoa.com/campusadmin/pkg/token"

	accountHttp "anoa.com/campusadmin/internal/modules/account/delivery/http"
	accountRepo "anoa.com/campusadmin/internal/modules/account/repository"
	accountService "anoa.com/campusadmin/internal/modules/account/service"

	authHttp "anoa.com/campusadmin/internal/modules/auth/delivery/http"
	authService "anoa.com/campusadmin/internal/modules/auth/service"

	classroomHttp "anoa.com/campusadmin/internal/modules/classroom/delivery/http"
	classroomRepo "anoa.com/campusadmin/internal/modules/classroom/repository"
	classroomService "anoa.com/campusadmin/internal/modules/classroom/service"

	correctionHttp "anoa.com/campusadmin/internal/modules/correction/delivery/http"
	correctionRepo "anoa.com/campusadmin/internal/modules/correction/repository"
	correctionService "anoa.com/campusadmin/internal/modules/correction/service"

	dashboardHttp "anoa.com/campusadmin/internal/modules/dashboard/delivery/http"
	dashboardRepo "anoa.com/campusadmin/internal/modules/dashboard/repository"
	dashboardService "anoa.com/campusadmin/internal/modules/dashboard/service"

	departmentHttp "anoa.com/campusadmin/internal/modules/department/delivery/http"
	departmentRepo "anoa.com/campusadmin/internal/modules/department/repository"
	departmentService "anoa.com/campusadmin/internal/modules/department/service"

	subjectHttp "anoa.com/campusadmin/internal/modules/evaluation/delivery/http"
	subjectRepo "anoa.com/campusadmin/internal/modules/evaluation/repository"
	subjectService "anoa.com/campusadmin/internal/modules/evaluation/service"

	notiHttp "anoa.com/campusadmin/internal/modules/notification/delivery/http"
	notifRepo "anoa.com/campusadmin/internal/modules/notification/repository"
	notifService "anoa.com/campusadmin/internal/modules/notification/service"

	requestHttp "anoa.com/campusadmin/internal/modules/request/delivery/http"
	requestRepo "anoa.com/campusadmin/internal/modules/request/repository"
	requestService "anoa.com/campusadmin/internal/modules/request/service"

	searchService "anoa.com/campusadmin/internal/modules/search/service"

	storedFileRepo "anoa.com/campusadmin/internal/modules/storedfile/repository"
	storedFileService "anoa.com/campusadmin/internal/modules/storedfile/service"

	submissionHttp "anoa.com/campusadmin/internal/modules/submission/delivery/http"
	submissionRepo "anoa.com/campusadmin/internal/modules/submission/repository"
	submissionService "anoa.com/campusadmin/internal/modules/submission/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const jobTimeout = 10 * time.Minute

type Server struct {
	engine    *gin.Engine
	scheduler *scheduler.Scheduler
}

// Deps are the external clients. Redis and Search may be nil; the features
// built on them are then disabled or fall back to the database.
type Deps struct {
	DB          *gorm.DB
	Redis       *redis.Client
	Search      searchService.MeiliSearchService
	FileStorage storage.FileStorage
}

func NewServer(cfg *config.Config, deps Deps) (*Server, error) {
	db := deps.DB
	redisClient := deps.Redis

	tokens := token.NewManager(cfg.JWTSecret, cfg.JWTTTL)
	loginLimiter := ratelimiter.New(redisClient, "login", cfg.LoginMaxAttempts, cfg.LoginWindow)

	accountRepository := accountRepo.NewAccountRepository(db)
	departmentRepository := departmentRepo.NewDepartmentRepository(db)
	classroomRepository := classroomRepo.NewClassroomRepository(db)
	subjectRepository := subjectRepo.NewSubjectRepository(db)
	submissionRepository := submissionRepo.NewSubmissionRepository(db)

	authSvc := authService.NewAuthService(accountRepository, departmentRepository, tokens, loginLimiter)
	authHandler := authHttp.NewAuthHandler(authSvc)

	departmentSvc := departmentService.NewDepartmentService(departmentRepository, accountRepository)
	departmentHandler := departmentHttp.NewDepartmentHandler(departmentSvc)

	accountSvc := accountService.NewAccountService(accountRepository, departmentRepository, classroomRepository)
	accountHandler := accountHttp.NewAccountHandler(accountSvc)

	classroomSvc := classroomService.NewClassroomService(classroomRepository, accountRepository)
	classroomHandler := classroomHttp.NewClassroomHandler(classroomSvc)

	// Notification Module
	notificationRepository := notifRepo.NewNotificationRepository(db)
	notificationSvc := notifService.NewNotificationService(notificationRepository, redisClient)
	notificationHandler := notiHttp.NewNotificationHandler(notificationSvc, redisClient, cfg.AllowedOrigins)

	storedFileSvc := storedFileService.NewStoredFileService(storedFileRepo.NewStoredFileRepository(db), deps.FileStorage)

	subjectSvc := subjectService.NewSubjectService(
		subjectRepository,
		classroomRepository,
		accountRepository,
		submissionRepository,
		storedFileSvc,
		deps.Search,
		notificationSvc,
	)
	subjectHandler := subjectHttp.NewSubjectHandler(subjectSvc, cfg.MaxUploadBytes)

	var correctionQueue submissionService.CorrectionQueue
	if cfg.AutoCorrectionEnabled {
		if redisClient == nil {
			log.Println("[server] AUTO_CORRECTION_ENABLED needs REDIS_URL, auto-correction disabled")
		} else {
			correctionQueue = submissionService.NewRedisCorrectionQueue(redisClient)
		}
	}
	submissionSvc := submissionService.NewSubmissionService(
		submissionRepository,
		subjectRepository,
		accountRepository,
		storedFileSvc,
		correctionQueue,
	)
	submissionHandler := submissionHttp.NewSubmissionHandler(submissionSvc, cfg.MaxUploadBytes)

	correctionSvc := correctionService.NewCorrectionService(
		correctionRepo.NewCorrectionRepository(db),
		submissionRepository,
		notificationSvc,
	)
	correctionHandler := correctionHttp.NewCorrectionHandler(correctionSvc)

	requestSvc := requestService.NewRequestService(
		requestRepo.NewRequestRepository(db),
		accountRepository,
		departmentRepository,
		notificationSvc,
	)
	requestHandler := requestHttp.NewRequestHandler(requestSvc)

	var statsCache dashboardService.Cache
	if redisClient != nil {
		statsCache = dashboardService.NewRedisCache(redisClient)
	}
	dashboardSvc := dashboardService.NewDashboardService(
		dashboardRepo.NewStatsRepository(db),
		accountRepository,
		departmentRepository,
		statsCache,
		cfg.StatsCacheTTL,
	)
	dashboardHandler := dashboardHttp.NewDashboardHandler(dashboardSvc)

	jobs := scheduler.New(jobTimeout)
	for _, job := range []scheduler.Job{
		scheduler.NewOrphanFileCleanup(storedFileSvc),
		scheduler.NewSubjectOpenNotifier(subjectSvc),
	} {
		if err := jobs.Register(job); err != nil {
			return nil, fmt.Errorf("failed to register job: %w", err)
		}
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/api/notifications/ws"},
	}))

	authMiddleware := middleware.NewAuthMiddleware(tokens)

	api := router.Group("/api")

	// Public routes (no auth required)
	api.POST("/auth/login", authHandler.Login)

	// Called by the automated corrector, not by users.
	internal := api.Group("/internal")
	internal.Use(middleware.RequireCorrectorToken(cfg.CorrectorToken))
	{
		internal.PUT("/corrections/:submissionId", correctionHandler.RecordAutomated)
	}

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.GET("/auth/me", authHandler.Me)
		protected.PUT("/auth/password", authHandler.ChangePassword)

		superAdmin := protected.Group("")
		superAdmin.Use(authMiddleware.RequireRoles(entity.RoleSuperAdmin))
		{
			superAdmin.POST("/departments", departmentHandler.CreateDepartment)
			superAdmin.GET("/departments", departmentHandler.GetAllDepartments)
			superAdmin.GET("/departments/:id", departmentHandler.GetDepartment)
			superAdmin.PUT("/departments/:id", departmentHandler.UpdateDepartment)
			superAdmin.DELETE("/departments/:id", departmentHandler.DeleteDepartment)

			superAdmin.POST("/department-managers", accountHandler.CreateManager)
			superAdmin.GET("/department-managers", accountHandler.ListManagers)
			superAdmin.GET("/department-managers/available", accountHandler.ListAvailableManagers)
			superAdmin.PUT("/department-managers/:id", accountHandler.UpdateManager)
			superAdmin.DELETE("/department-managers/:id", accountHandler.DeleteManager)
		}

		staff := protected.Group("/users")
		staff.Use(authMiddleware.RequireRoles(entity.RoleDepartmentAdmin))
		{
			staff.POST("", accountHandler.CreateStaff)
			staff.GET("", accountHandler.ListStaff)
			staff.PUT("/:id", accountHandler.UpdateStaff)
			staff.DELETE("/:id", accountHandler.DeleteStaff)
		}

		// School administration
		school := protected.Group("")
		school.Use(authMiddleware.RequireRoles(entity.RoleAdmin))
		{
			school.POST("/accounts", accountHandler.CreateSchoolAccount)
			school.GET("/accounts", accountHandler.ListSchoolAccounts)
			school.PUT("/accounts/:id", accountHandler.UpdateSchoolAccount)
			school.DELETE("/accounts/:id", accountHandler.DeleteSchoolAccount)

			school.POST("/classrooms", classroomHandler.CreateClassroom)
			school.GET("/classrooms", classroomHandler.GetAllClassrooms)
			school.GET("/classrooms/:id", classroomHandler.GetClassroom)
			school.PUT("/classrooms/:id", classroomHandler.UpdateClassroom)
			school.DELETE("/classrooms/:id", classroomHandler.DeleteClassroom)
			school.PUT("/classrooms/:id/students", classroomHandler.AssignStudents)
			school.DELETE("/classrooms/:id/students/:studentId", classroomHandler.RemoveStudent)
		}

		professor := protected.Group("")
		professor.Use(authMiddleware.RequireRoles(entity.RoleProfessor))
		{
			professor.GET("/classrooms/my-classes", classroomHandler.MyClasses)

			professor.POST("/subjects", subjectHandler.CreateSubject)
			professor.PUT("/subjects/:id", subjectHandler.UpdateSubject)
			professor.DELETE("/subjects/:id", subjectHandler.DeleteSubject)
			professor.GET("/subjects/:id/grades", subjectHandler.Grades)

			professor.POST("/submissions/:id/start-correction", submissionHandler.StartCorrection)
			professor.PUT("/corrections/:submissionId", correctionHandler.RecordCorrection)
		}

		classroomMember := protected.Group("")
		classroomMember.Use(authMiddleware.RequireRoles(entity.RoleProfessor, entity.RoleStudent))
		{
			classroomMember.GET("/subjects", subjectHandler.ListSubjects)
			classroomMember.GET("/subjects/search", subjectHandler.SearchSubjects)
			classroomMember.GET("/subjects/:id", subjectHandler.GetSubject)
		}

		student := protected.Group("")
		student.Use(authMiddleware.RequireRoles(entity.RoleStudent))
		{
			student.POST("/subjects/:id/submissions", submissionHandler.Submit)
			student.GET("/submissions/me", submissionHandler.MySubmissions)
			student.GET("/student/results", correctionHandler.StudentResults)
		}

		// Notification routes
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)

		// Budget requests: every role files its own; the service scopes
		// listings to the owner and keeps status changes for SuperAdmin.
		requests := protected.Group("/requests")
		{
			requests.POST("", requestHandler.CreateRequest)
			requests.GET("", requestHandler.ListRequests)
			requests.PUT("/:id", requestHandler.UpdateStatus)
			requests.DELETE("/:id", requestHandler.DeleteRequest)
		}

		protected.GET("/dashboard/stats", dashboardHandler.GetStats)
	}

	return &Server{
		engine:    router,
		scheduler: jobs,
	}, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() *gin.Engine {
	return s.engine
}

func (s *Server) Scheduler() *scheduler.Scheduler {
	return s.scheduler
}

func (s *Server) Run(addr string) error {
	s.scheduler.Start()
	defer s.scheduler.Stop()
	return s.engine.Run(addr)
}

func setupCORS(router *gin.Engine, origins []string) {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Corrector-Token"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
