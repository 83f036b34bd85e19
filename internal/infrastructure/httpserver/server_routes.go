package httpserver

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", s.metricsEndpoint)

	api := s.echo.Group("/api/v1")

	shops := api.Group("/shops")
	shops.GET("/:id", s.getShop)
	shops.POST("", s.createShop)
	shops.PUT("", s.updateShop)

	api.GET("/shop-types", s.listShopTypes)

	vouchers := api.Group("/vouchers")
	vouchers.POST("/seckill", s.createSeckillVoucher)
	vouchers.GET("/seckill/:id", s.getSeckillVoucher)

	orders := api.Group("/voucher-orders")
	orders.POST("/seckill/:id", s.placeSeckillOrder, s.middleware.User.RequireUser())
}
