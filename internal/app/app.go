package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/config"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/device"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/holiday"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/late"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/user"
	appHTTP "github.com/cmlabs-hris/hris-timekeeping/internal/handler/http"
	"github.com/cmlabs-hris/hris-timekeeping/internal/messaging/kafka"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/database"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/keylock"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-timekeeping/internal/repository/memory"
	"github.com/cmlabs-hris/hris-timekeeping/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/hris-timekeeping/internal/service/attendance"
	deviceService "github.com/cmlabs-hris/hris-timekeeping/internal/service/device"
	employeeService "github.com/cmlabs-hris/hris-timekeeping/internal/service/employee"
	holidayService "github.com/cmlabs-hris/hris-timekeeping/internal/service/holiday"
	lateService "github.com/cmlabs-hris/hris-timekeeping/internal/service/late"
	payrollService "github.com/cmlabs-hris/hris-timekeeping/internal/service/payroll"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

// Version is stamped into request logs.
const Version = "v1.0.0"

const deviceFetchWait = 2 * time.Second

type repositories struct {
	tx          database.Transactor
	employees   employee.EmployeeRepository
	users       user.UserRepository
	attendance  attendance.AttendanceRepository
	lates       late.LateRepository
	policies    late.PolicyRepository
	payrolls    payroll.PayrollRepository
	holidays    holiday.HolidayRepository
	leaveApps   leave.ApplicationRepository
	closeFn     func()
	memoryStore *memory.Store
}

// App holds every wired service. Close releases the database pool, the
// redis client and the kafka reader.
type App struct {
	Config *config.Config

	JWT        *jwt.JWTService
	Attendance *attendanceService.AttendanceServiceImpl
	Late       *lateService.LateServiceImpl
	Payroll    *payrollService.PayrollServiceImpl
	Employee   employee.EmployeeService
	Holiday    *holidayService.HolidayServiceImpl
	Sync       *deviceService.SyncServiceImpl
	Scheduler  *cron.Scheduler
	Hub        *sse.Hub

	// Store is set when running on the in-memory store.
	Store *memory.Store
	// DB is set when running on PostgreSQL.
	DB *database.DB

	punchReader kafka.MessageReader
	consume     bool
	closers     []func()
}

// New wires the application from cfg. Nothing is started.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	repos, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	a.Store = repos.memoryStore
	if repos.closeFn != nil {
		a.closers = append(a.closers, repos.closeFn)
	}

	locker, err := a.newLocker(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	loc := cfg.Org.Location
	a.JWT = NewJWT(cfg)
	a.Hub = sse.NewHub()
	a.Holiday = holidayService.NewHolidayService(repos.holidays, cfg.Org.WeekendDays, loc)
	a.Late = lateService.NewLateService(repos.tx, repos.lates, repos.policies, repos.attendance, repos.leaveApps, loc)
	a.Attendance = attendanceService.NewAttendanceService(
		repos.tx,
		locker,
		repos.attendance,
		repos.employees,
		a.Late,
		a.Holiday,
		attendanceService.Options{
			Location:     loc,
			DefaultShift: attendance.Shift{Start: cfg.Org.DefaultShiftStart, End: cfg.Org.DefaultShiftEnd},
			Events:       a.Hub,
		},
	)
	a.Employee = employeeService.NewEmployeeService(repos.tx, repos.employees, repos.users)
	a.Payroll = payrollService.NewPayrollService(
		repos.tx,
		locker,
		repos.payrolls,
		repos.employees,
		repos.attendance,
		repos.lates,
		a.Late,
		payrollService.Options{Location: loc, CompanyName: cfg.App.CompanyName},
	)

	var sources []device.Source
	if len(cfg.Kafka.Brokers) > 0 {
		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.PunchTopic,
			GroupID: cfg.Kafka.GroupID,
		})
		a.punchReader = reader
		a.closers = append(a.closers, func() {
			if err := reader.Close(); err != nil {
				slog.Error("Failed to close kafka reader", "error", err)
			}
		})
		if cfg.Jobs.DeviceSyncEnabled {
			sources = append(sources, kafka.NewBatchSource(cfg.Kafka.PunchTopic, reader, cfg.Jobs.DeviceSyncBatchSize, deviceFetchWait))
		} else {
			a.consume = true
		}
	}
	a.Sync = deviceService.NewSyncService(a.Attendance, a.Employee, sources...)

	a.Scheduler = cron.NewScheduler()
	if cfg.Jobs.MarkAbsentEnabled {
		cron.NewAttendanceJobs(a.Attendance, loc).RegisterJobs(a.Scheduler)
	}
	if cfg.Jobs.DeviceSyncEnabled {
		cron.NewDeviceJobs(a.Sync, cfg.Jobs.DeviceSyncInterval).RegisterJobs(a.Scheduler)
	}

	return a, nil
}

// NewJWT builds the token service from cfg.
func NewJWT(cfg *config.Config) *jwt.JWTService {
	return jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
}

func (a *App) openStore(ctx context.Context) (repositories, error) {
	loc := a.Config.Org.Location

	if a.Config.App.Store == config.StoreMemory {
		store := memory.NewStore()
		slog.Warn("Using in-memory store, data is lost on restart")
		return repositories{
			tx:          store,
			employees:   memory.NewEmployeeRepository(store),
			users:       memory.NewUserRepository(store),
			attendance:  memory.NewAttendanceRepository(store),
			lates:       memory.NewLateRepository(store),
			policies:    memory.NewPolicyRepository(store),
			payrolls:    memory.NewPayrollRepository(store),
			holidays:    memory.NewHolidayRepository(store),
			leaveApps:   memory.NewLeaveApplicationRepository(store),
			memoryStore: store,
		}, nil
	}

	db, err := database.NewPostgreSQLDB(ctx, a.Config.DatabaseURL())
	if err != nil {
		return repositories{}, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.DB = db

	return repositories{
		tx:         postgresql.NewTxManager(db),
		employees:  postgresql.NewEmployeeRepository(db),
		users:      postgresql.NewUserRepository(db),
		attendance: postgresql.NewAttendanceRepository(db, loc),
		lates:      postgresql.NewLateRepository(db, loc),
		policies:   postgresql.NewPolicyRepository(db),
		payrolls:   postgresql.NewPayrollRepository(db),
		holidays:   postgresql.NewHolidayRepository(db, loc),
		leaveApps:  postgresql.NewLeaveApplicationRepository(db, loc),
		closeFn:    db.Close,
	}, nil
}

func (a *App) newLocker(ctx context.Context) (keylock.Locker, error) {
	if a.Config.Lock.Backend != config.LockRedis {
		return keylock.NewMemoryLocker(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     a.Config.Redis.Addr,
		Password: a.Config.Redis.Password,
		DB:       a.Config.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	a.closers = append(a.closers, func() {
		if err := client.Close(); err != nil {
			slog.Error("Failed to close redis client", "error", err)
		}
	})

	return keylock.NewRedisLocker(client, keylock.WithTTL(a.Config.Lock.TTL)), nil
}

// Router builds the HTTP surface over the wired services.
func (a *App) Router() *chi.Mux {
	return appHTTP.NewRouter(
		a.JWT,
		appHTTP.RouterOptions{
			Env:            a.Config.App.Env,
			Version:        Version,
			AllowedOrigins: a.Config.App.CORSOrigins,
			LogLevel:       a.Config.SlogLevel(),
		},
		appHTTP.NewAttendanceHandler(a.Attendance, a.Hub),
		appHTTP.NewLateHandler(a.Late, a.Payroll),
		appHTTP.NewPayrollHandler(a.Payroll),
		appHTTP.NewDeviceHandler(a.Sync),
		appHTTP.NewEmployeeHandler(a.Employee),
		appHTTP.NewHolidayHandler(a.Holiday),
	)
}

// StartBackground starts the scheduler and, when kafka is configured
// without batch sync, the streaming punch consumer. Both stop with ctx or
// Close.
func (a *App) StartBackground(ctx context.Context) {
	a.Scheduler.Start()
	a.closers = append(a.closers, a.Scheduler.Stop)

	if a.consume {
		go kafka.ConsumePunches(ctx, a.Config.Kafka.PunchTopic, a.punchReader, a.Sync)
	}
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
