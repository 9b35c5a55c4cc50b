package api

func (s *Server) setupRoutes() {
	s.router.GET("/", s.healthHandler.WorkerInfo)
	s.router.GET("/health", s.healthHandler.HealthCheck)

	v1 := s.router.Group("/v1")
	{
		v1.POST("/evaluate", s.distancingHandler.Evaluate)
		v1.POST("/annotate", s.distancingHandler.Annotate)
		v1.POST("/process", s.distancingHandler.Process)

		v1.GET("/stream", s.streamHandler.ListSources)
		v1.GET("/stream/:source", s.streamHandler.Stream)
		v1.GET("/stream/:source/latest", s.streamHandler.Latest)

		v1.GET("/sources", s.sourceHandler.List)
		v1.POST("/sources", s.sourceHandler.Start)
		v1.DELETE("/sources/:id", s.sourceHandler.Stop)

		v1.GET("/reports", s.reportHandler.List)
		v1.GET("/reports/summary", s.reportHandler.Summary)
		v1.GET("/reports/ws", s.reportHandler.Live)
	}

	system := s.router.Group("/system")
	{
		system.GET("/stats", s.systemHandler.GetStats)
		system.GET("/config", s.systemHandler.GetConfig)
	}
}
