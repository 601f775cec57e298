package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/config"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/absence"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/payrun"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/qrcode"
	"github.com/cmlabs-hris/attendance-engine/internal/fixtures"
	appHTTP "github.com/cmlabs-hris/attendance-engine/internal/handler/http"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/memory"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/postgresql"
	absenceService "github.com/cmlabs-hris/attendance-engine/internal/service/absence"
	attendanceService "github.com/cmlabs-hris/attendance-engine/internal/service/attendance"
	payrunService "github.com/cmlabs-hris/attendance-engine/internal/service/payrun"
	qrcodeService "github.com/cmlabs-hris/attendance-engine/internal/service/qrcode"
	"github.com/go-chi/httplog/v3"
)

// repositories is the storage driver chosen by STORAGE_DRIVER.
type repositories struct {
	tx        database.Transactor
	employees employee.EmployeeRepository
	records   attendance.RecordRepository
	rules     attendance.RuleRepository
	tokens    qrcode.TokenRepository
	absences  absence.AbsenceRepository
	payRuns   payrun.PayRunRepository
	bulletins payrun.BulletinRepository
	policies  payrun.PolicyRepository
	close     func()
}

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "attendance-engine"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clk := clock.System{}

	repos, err := openRepositories(ctx, cfg, clk)
	if err != nil {
		return err
	}
	defer repos.close()

	ruleSvc := attendanceService.NewRuleService(repos.rules, clk)
	recordSvc := attendanceService.NewAttendanceService(repos.records, repos.employees, ruleSvc, clk)
	codec := qrcodeService.NewQRCodeService(repos.tokens, repos.employees, recordSvc, clk)
	workflow := absenceService.NewAbsenceService(repos.tx, repos.absences, repos.employees, recordSvc, ruleSvc, clk)
	engine := payrunService.NewPayRunService(
		repos.tx,
		repos.payRuns,
		repos.bulletins,
		repos.policies,
		repos.employees,
		repos.records,
		repos.absences,
		ruleSvc,
		clk,
	)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	router := appHTTP.NewRouter(logger, cfg.App.CORSAllowedOrigins, JWTService, appHTTP.Handlers{
		Attendance: appHTTP.NewAttendanceHandler(recordSvc, clk),
		Rule:       appHTTP.NewRuleHandler(ruleSvc),
		QRCode:     appHTTP.NewQRCodeHandler(codec),
		Absence:    appHTTP.NewAbsenceHandler(workflow),
		PayRun:     appHTTP.NewPayRunHandler(engine),
	})

	if cfg.Cron.Enabled {
		scheduler := cron.NewScheduler()
		jobs := cron.NewAttendanceJobs(repos.records, repos.rules, ruleSvc, repos.employees, clk)
		jobs.RegisterJobs(scheduler, cfg.Cron.MarkAbsentInterval)
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr, "storage", cfg.Database.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

func openRepositories(ctx context.Context, cfg *config.Config, clk clock.Clock) (*repositories, error) {
	switch cfg.Database.Driver {
	case config.StorageMemory:
		store := memory.NewStore()
		if cfg.App.DemoCompanyID != "" {
			hireDate := clk.Now().AddDate(-1, 0, 0).UTC().Truncate(24 * time.Hour)
			for _, emp := range fixtures.DemoEmployees(cfg.App.DemoCompanyID, hireDate) {
				store.PutEmployee(emp)
				slog.Info("Seeded demo employee", "employee_id", emp.ID, "employee_code", emp.EmployeeCode)
			}
		}
		return &repositories{
			tx:        store,
			employees: memory.NewEmployeeRepository(store),
			records:   memory.NewAttendanceRepository(store),
			rules:     memory.NewRuleRepository(store),
			tokens:    memory.NewQRTokenRepository(store),
			absences:  memory.NewAbsenceRepository(store),
			payRuns:   memory.NewPayRunRepository(store),
			bulletins: memory.NewBulletinRepository(store),
			policies:  memory.NewPolicyRepository(store),
			close:     func() {},
		}, nil

	case config.StoragePostgres:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{MaxConns: cfg.Database.MaxConns})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if cfg.Database.AutoMigrate {
			if err := postgresql.Migrate(ctx, db); err != nil {
				db.Close()
				return nil, err
			}
			slog.Info("Database schema applied")
		}
		return &repositories{
			tx:        postgresql.NewTxManager(db),
			employees: postgresql.NewEmployeeRepository(db),
			records:   postgresql.NewAttendanceRepository(db),
			rules:     postgresql.NewRuleRepository(db),
			tokens:    postgresql.NewQRTokenRepository(db),
			absences:  postgresql.NewAbsenceRepository(db),
			payRuns:   postgresql.NewPayRunRepository(db),
			bulletins: postgresql.NewBulletinRepository(db),
			policies:  postgresql.NewPolicyRepository(db),
			close:     db.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Database.Driver)
	}
}
