package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/shulehq/darasa/api/echo"
	"github.com/shulehq/darasa/core"
	"github.com/shulehq/darasa/core/assignment"
	"github.com/shulehq/darasa/core/grade"
	"github.com/shulehq/darasa/core/schedule"
	"github.com/shulehq/darasa/core/user"
	logsvc "github.com/shulehq/darasa/services/logger"
	notifsvc "github.com/shulehq/darasa/services/notification"
	sendgridnotif "github.com/shulehq/darasa/services/notification/sendgrid"
	"github.com/shulehq/darasa/storage/database"
	inmemdb "github.com/shulehq/darasa/storage/database/inmem"
	sqlxrepos "github.com/shulehq/darasa/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	var logger core.Logger
	if conf.RollbarToken != "" {
		rollbarLogger := logsvc.NewRollbarLogger(
			log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
			conf,
		)
		rollbarLogger.Enable(!conf.Debug)
		logger = rollbarLogger
	} else {
		logger = logsvc.NewZerologLogger(conf)
	}

	// set up storage
	db, err := inmemdb.Open()
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening storage: %v", err), err)
	}

	// grade records live in postgres outside dev mode
	var gradeRepo grade.Repository
	if !conf.Debug {
		pg, err := setUpDB(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
		}
		defer func() { _ = pg.Close() }()
		gradeRepo = sqlxrepos.NewGradeRepository(pg)
	} else {
		gradeRepo = inmemdb.NewGradeRepository(db)
	}

	// set up services
	usrSvc := user.NewService(inmemdb.NewUserRepository(db))

	var notifSvc core.NotificationService
	if conf.Debug || conf.SendgridAPIKey == "" {
		notifSvc = notifsvc.NewConsoleService(logger)
	} else {
		notifSvc = sendgridnotif.NewService(conf, usrSvc, logger)
	}

	gradeSvc := grade.NewService(gradeRepo, notifSvc, logger)
	assignmentSvc := assignment.NewService(inmemdb.NewAssignmentRepository(db), gradeSvc, usrSvc, notifSvc, logger)
	scheduleSvc, err := schedule.NewService(inmemdb.NewScheduleRepository(db), conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up schedule service: %v", err), err)
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			UserSvc:       usrSvc,
			GradeSvc:      gradeSvc,
			AssignmentSvc: assignmentSvc,
			ScheduleSvc:   scheduleSvc,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if err = database.Ping(db); err != nil {
		return nil, err
	}
	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
