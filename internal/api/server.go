package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/retrys/server/internal/biz/node"
	"github.com/retrys/server/internal/biz/retrytask"
	"github.com/retrys/server/internal/biz/scene"
	"github.com/retrys/server/internal/biz/summary"
	"github.com/retrys/server/internal/dispatch"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

// ErrorResponse 统一错误响应格式
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Server 管理接口：节点心跳、统计查询和人工补发回调
type Server struct {
	router *gin.Engine

	registry     node.Registry
	taskRepo     retrytask.Repo
	sceneRepo    scene.Repo
	summaryRepo  summary.Repo
	pool         *dispatch.UnitPool
	callbackUnit *dispatch.CallbackUnit
	logger       *zap.Logger
}

func NewServer(
	registry node.Registry,
	taskRepo retrytask.Repo,
	sceneRepo scene.Repo,
	summaryRepo summary.Repo,
	pool *dispatch.UnitPool,
	callbackUnit *dispatch.CallbackUnit,
	logger *zap.Logger,
) *Server {
	s := &Server{
		registry:     registry,
		taskRepo:     taskRepo,
		sceneRepo:    sceneRepo,
		summaryRepo:  summaryRepo,
		pool:         pool,
		callbackUnit: callbackUnit,
		logger:       logger,
	}

	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(cors.Default())

	v1 := s.router.Group("/api/v1")
	v1.POST("/nodes/heartbeat", s.heartbeat)
	v1.POST("/nodes/offline", s.offline)
	v1.GET("/summaries", s.listSummaries)
	v1.POST("/retry-tasks/:uniqueId/callback/resend", s.resendCallback)

	return s
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

type heartbeatReq struct {
	NamespaceID string `json:"namespaceId" binding:"required"`
	GroupName   string `json:"groupName" binding:"required"`
	HostID      string `json:"hostId" binding:"required"`
	HostIP      string `json:"hostIp" binding:"required"`
	HostPort    int    `json:"hostPort" binding:"required"`
	TTLSeconds  int    `json:"ttlSeconds"`
}

func (s *Server) heartbeat(ctx *gin.Context) {
	var req heartbeatReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Code: "INVALID_REQUEST", Message: err.Error()})
		return
	}
	if req.TTLSeconds <= 0 {
		req.TTLSeconds = 30
	}

	s.registry.Heartbeat(&node.RegisterNodeInfo{
		NamespaceID: req.NamespaceID,
		GroupName:   req.GroupName,
		HostID:      req.HostID,
		HostIP:      req.HostIP,
		HostPort:    req.HostPort,
		ExpireAt:    time.Now().Add(time.Duration(req.TTLSeconds) * time.Second),
	})
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type offlineReq struct {
	NamespaceID string `json:"namespaceId" binding:"required"`
	GroupName   string `json:"groupName" binding:"required"`
	HostID      string `json:"hostId" binding:"required"`
}

func (s *Server) offline(ctx *gin.Context) {
	var req offlineReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, ErrorResponse{Code: "INVALID_REQUEST", Message: err.Error()})
		return
	}
	s.registry.Offline(req.NamespaceID, req.GroupName, req.HostID)
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listSummaries(ctx *gin.Context) {
	namespaceID := ctx.Query("namespaceId")
	days := cast.ToInt(ctx.DefaultQuery("days", "7"))
	if days <= 0 {
		days = 7
	}

	to := time.Now()
	from := to.AddDate(0, 0, -days)
	summaries, err := s.summaryRepo.List(ctx, namespaceID, from, to)
	if err != nil {
		s.logger.Error("failed to list job summaries", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Code: "INTERNAL_ERROR", Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, summaries)
}

// resendCallback 人工补发：回调投递失败不会自动重试，由运维触发重投
func (s *Server) resendCallback(ctx *gin.Context) {
	namespaceID := ctx.Query("namespaceId")
	groupName := ctx.Query("groupName")
	uniqueID := ctx.Param("uniqueId")

	task, err := s.taskRepo.GetByUniqueID(ctx, namespaceID, groupName, uniqueID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Code: "INTERNAL_ERROR", Message: err.Error()})
		return
	}
	if task == nil || !task.IsCallback() {
		ctx.JSON(http.StatusNotFound, ErrorResponse{Code: "NOT_FOUND", Message: "callback task not found"})
		return
	}

	sceneConfig, err := s.sceneRepo.GetByGroupAndScene(ctx, task.NamespaceID, task.GroupName, task.SceneName)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, ErrorResponse{Code: "SCENE_NOT_FOUND", Message: err.Error()})
		return
	}

	nodes := s.registry.GetServerNodes(task.NamespaceID, task.GroupName)
	var target *node.RegisterNodeInfo
	if len(nodes) > 0 {
		target = nodes[0]
	}

	cc := &dispatch.CallbackContext{Task: task, Node: target, Scene: sceneConfig}
	if !s.pool.Submit(func(runCtx context.Context) { s.callbackUnit.Run(runCtx, cc) }) {
		ctx.JSON(http.StatusServiceUnavailable, ErrorResponse{Code: "QUEUE_FULL", Message: "dispatch queue is full"})
		return
	}
	ctx.JSON(http.StatusAccepted, gin.H{"status": "submitted"})
}
