package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"csvrelay/internal/domain/csvdata"
	"csvrelay/internal/domain/realtime"
	"csvrelay/internal/middleware"
	"csvrelay/internal/pkg/response"
)

type app struct {
	hub        *realtime.Hub
	csvHandler *csvdata.Handler
	wsHandler  *realtime.Handler
	maxMemory  int64
}

func newApp(repo csvdata.Repository, hub *realtime.Hub, batchSize int, maxMemory int64) *app {
	svc := csvdata.NewService(repo, hub, batchSize)
	return &app{
		hub:        hub,
		csvHandler: csvdata.NewHandler(svc),
		wsHandler:  realtime.NewHandler(hub),
		maxMemory:  maxMemory,
	}
}

func (a *app) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(middleware.ErrorLogger())
	r.Use(middleware.CORS())
	if a.maxMemory > 0 {
		r.MaxMultipartMemory = a.maxMemory
	}

	r.GET("/health", func(c *gin.Context) {
		response.OK(c, "ok", gin.H{"clients": a.hub.Count()})
	})

	a.csvHandler.RegisterRoutes(r)
	a.wsHandler.RegisterRoutes(r)

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, "Not Found")
	})

	return r
}
