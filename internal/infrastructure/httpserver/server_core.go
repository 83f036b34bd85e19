package httpserver

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/Baize0412/hm-dianping/internal/core/ports"
	customMiddleware "github.com/Baize0412/hm-dianping/internal/infrastructure/httpserver/middleware"
)

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	TLSCertFile  string
	TLSKeyFile   string
}

type ServerDeps struct {
	ShopService     ports.ShopService
	ShopTypeService ports.ShopTypeService
	VoucherService  ports.VoucherService
	SeckillService  ports.SeckillService
	HealthCheckers  []ports.HealthChecker
}

type Server struct {
	echo           *echo.Echo
	config         *ServerConfig
	logger         *logrus.Logger
	shopService    ports.ShopService
	shopTypeSvc    ports.ShopTypeService
	voucherSvc     ports.VoucherService
	seckillSvc     ports.SeckillService
	middleware     *customMiddleware.MiddlewareCollection
	healthCheckers []ports.HealthChecker
}

func NewServer(serverConfig *ServerConfig, logger *logrus.Logger, deps ServerDeps) *Server {
	e := echo.New()
	e.HideBanner = true

	server := &Server{
		echo:           e,
		config:         serverConfig,
		logger:         logger,
		shopService:    deps.ShopService,
		shopTypeSvc:    deps.ShopTypeService,
		voucherSvc:     deps.VoucherService,
		seckillSvc:     deps.SeckillService,
		healthCheckers: deps.HealthCheckers,
		middleware:     customMiddleware.NewMiddlewareCollection(logger),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}
