package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"rto_engine/controllers"
	"rto_engine/db"
	"rto_engine/method"
	"rto_engine/middleware"
	"rto_engine/routes"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动HTTP服务",
	Long: `启动HTTP服务，提供订单、争议和退回入库接口；
配置 refresh.enabled 时同时在后台定时刷新物流状态。`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", true, "启动前同步表结构")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if serveMigrate {
		if err := db.RunMigrations(db.DB, a.log); err != nil {
			return err
		}
	}

	if a.cfg.Server.Mode != "" {
		gin.SetMode(a.cfg.Server.Mode)
	}
	router := gin.New()

	// 设置中间件
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RequestLogMiddleware(a.log))
	router.Use(middleware.ErrorHandlerMiddleware(a.log))
	router.Use(middleware.PrometheusMiddleware())

	// 初始化路由
	routes.InitRoutes(router, routes.Handlers{
		Config:       a.cfg,
		DB:           db.DB,
		Orders:       &controllers.OrderController{Orders: a.orders},
		Disputes:     &controllers.DisputeController{Engine: a.disputes, MediaBaseURL: a.cfg.Media.BaseURL},
		RTOInventory: &controllers.RTOInventoryController{Recorder: a.recorder},
		Refresh:      &controllers.RefreshController{Orders: a.orders, Poller: a.poller},
		Reports:      &controllers.ReportController{Orders: a.orders},
	})

	if a.cfg.Refresh.Enabled {
		a.log.Info("正在启动物流状态刷新任务...", zap.Duration("interval", a.cfg.Refresh.Interval))
		go method.StartRefreshScheduler(ctx, a.poller, a.cfg.Refresh.Interval, a.log)
	}

	srv := &http.Server{
		Addr:    ":" + a.cfg.Server.Port,
		Handler: router,
	}
	errCh := make(chan error, 1)
	go func() {
		a.log.Info("Server starting", zap.String("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("正在关闭服务...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
