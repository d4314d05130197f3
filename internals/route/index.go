package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"coursereg_backend/internals/configs"
	attendanceController "coursereg_backend/internals/features/classes/attendance/controller"
	attendanceRoute "coursereg_backend/internals/features/classes/attendance/route"
	attendanceService "coursereg_backend/internals/features/classes/attendance/service"
	classController "coursereg_backend/internals/features/classes/classes/controller"
	classRoute "coursereg_backend/internals/features/classes/classes/route"
	classService "coursereg_backend/internals/features/classes/classes/service"
	registrationController "coursereg_backend/internals/features/classes/registrations/controller"
	registrationRoute "coursereg_backend/internals/features/classes/registrations/route"
	registrationService "coursereg_backend/internals/features/classes/registrations/service"
	courseController "coursereg_backend/internals/features/courses/controller"
	courseRoute "coursereg_backend/internals/features/courses/route"
	courseService "coursereg_backend/internals/features/courses/service"
	"coursereg_backend/internals/features/realtime/hub"
	"coursereg_backend/internals/features/realtime/ws"
	authController "coursereg_backend/internals/features/users/auth/controller"
	authRoute "coursereg_backend/internals/features/users/auth/route"
	authService "coursereg_backend/internals/features/users/auth/service"
	authMiddleware "coursereg_backend/internals/middlewares/auth"
)

var startTime time.Time

// Services is everything the handlers and background jobs share.
type Services struct {
	Auth       *authService.AuthService
	Courses    *courseService.CourseService
	Classes    *classService.ClassService
	Ledger     *registrationService.LedgerService
	Attendance *attendanceService.AttendanceService
}

func NewServices(db *gorm.DB, cfg configs.Config, notifier hub.Notifier, log *zap.Logger) Services {
	ledger := registrationService.NewLedgerService(db, notifier, cfg.ScheduleConflictPolicy, log)
	return Services{
		Auth:       authService.NewAuthService(db, cfg.JWTSecret, cfg.JWTTTL, log),
		Courses:    courseService.NewCourseService(db, log),
		Classes:    classService.NewClassService(db, notifier, log),
		Ledger:     ledger,
		Attendance: attendanceService.NewAttendanceService(db, ledger, notifier, log),
	}
}

type Deps struct {
	DB       *gorm.DB
	Config   configs.Config
	Hub      *hub.Hub
	Notifier hub.Notifier
	Services Services
	Log      *zap.Logger
}

func SetupRoutes(app *fiber.App, d Deps) {
	startTime = time.Now()
	log := d.Log
	s := d.Services

	BaseRoutes(app, d.DB)

	// ===================== AUTH =====================
	log.Info("[INFO] Setting up AuthRoutes...")
	jwtOpts := authMiddleware.AuthJWTOpts{
		Secret:      d.Config.JWTSecret,
		ActiveCheck: s.Auth.IsActive,
	}
	protect := authMiddleware.AuthJWT(jwtOpts)
	authRoute.AuthRoutes(app, authController.NewAuthController(s.Auth), protect)

	// ===================== PRIVATE (USER) =====================
	log.Info("[INFO] Setting up PRIVATE group...")
	api := app.Group("/api", protect)

	courseRoute.CourseRoutes(api, courseController.NewCourseController(s.Courses))

	classes := api.Group("/classes")
	classRoute.ClassRoutes(classes, classController.NewClassController(s.Classes))
	registrationRoute.RegistrationRoutes(classes, registrationController.NewRegistrationController(s.Ledger))
	attendanceRoute.AttendanceRoutes(classes, attendanceController.NewAttendanceController(s.Attendance))

	// ===================== REALTIME =====================
	log.Info("[INFO] Setting up websocket channels...")
	wsOpts := jwtOpts
	wsOpts.AllowQueryToken = true
	relay := ws.NewRelay(d.Hub, d.Notifier, s.Auth, log)
	ws.Routes(app, ws.NewHandler(d.Hub, d.Notifier, relay, s.Ledger, d.Config.WSSendTimeout, log), authMiddleware.AuthJWT(wsOpts))
}
