package initialize

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/strataops/strata-triage/global"
	"github.com/strataops/strata-triage/router"
	"github.com/strataops/strata-triage/service"
	"github.com/strataops/strata-triage/task"
	"github.com/strataops/strata-triage/utils"
	"github.com/gin-gonic/gin"
)

var server *http.Server

// InitLogger redirects gin's own log output into the daily-rotated file.
func (i *Initializer) InitLogger() {
	ginfile, err := i.setupLogFile(global.Config.GinLogPath)
	if err != nil {
		global.Log.Fatalf("initializing gin log failed: %v", err)
	}

	gin.DefaultWriter = io.MultiWriter(os.Stdout, ginfile)
	gin.DefaultErrorWriter = gin.DefaultWriter
	gin.DisableConsoleColor()
}

// Start builds the service graph, starts the scheduler and serves HTTP until
// a shutdown signal arrives.
func Start(initializer *Initializer, taskManager *task.Manager, startTime time.Time) {
	service.Setup()

	initializer.StartSystem(taskManager)

	initGinServer()
	go startServer()

	logStartupInfo(startTime)

	waitForShutdown()
}

func initGinServer() {
	mode := gin.ReleaseMode
	if global.Config.Debug {
		mode = gin.DebugMode
	}
	gin.SetMode(mode)

	ginServer := gin.New()
	ginServer.Use(gin.Logger(), gin.Recovery())
	router.Start(ginServer)

	ginServer.ForwardedByClientIP = true

	server = &http.Server{
		Addr:    global.Config.GinAddr,
		Handler: ginServer,
	}
}

func startServer() {
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		global.Log.Panic("server failed: ", err.Error())
	}
}

func logStartupInfo(startTime time.Time) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	global.Log.Infof("service started, took: %v, go: %s, addr: %s, mode: %s, pid: %d, mem: %gMiB",
		time.Since(startTime), runtime.Version(), global.Config.GinAddr, gin.Mode(), syscall.Getpid(),
		utils.NumberFormat(float32(m.Alloc)/1024/1024))
}

func waitForShutdown() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	global.Log.Infof("shutting down..., addr: %s, pid: %d", global.Config.GinAddr, syscall.Getpid())

	shutdownServer()
}

func shutdownServer() {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(timeoutCtx); err != nil {
		global.Log.Panicln("server shutdown failed", err)
	}
	global.Log.Infoln("server exited cleanly")
}
