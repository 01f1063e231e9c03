package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/annel0/leafdecay/internal/auth"
	"github.com/annel0/leafdecay/internal/decay"
	"github.com/annel0/leafdecay/internal/eventbus"
	"github.com/annel0/leafdecay/internal/logging"
	"github.com/annel0/leafdecay/internal/middleware"
	"github.com/annel0/leafdecay/internal/vec"
	"github.com/annel0/leafdecay/internal/world"
	"github.com/annel0/leafdecay/internal/world/block"
	"github.com/annel0/leafdecay/internal/world/block/implementations"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// World - операции мира, доступные админ-API
type World interface {
	GetBlock(pos vec.Vec3) (world.Block, error)
	SetBlockWithMetadata(pos vec.Vec3, id block.BlockID, meta block.Metadata) error
	PlantTree(base vec.Vec3, v block.WoodVariant, height int) error
	Inspect(pos vec.Vec3, adj *decay.Adjacency) (decay.Result, decay.Adjacency, error)
	ForceCheck(ctx context.Context, pos vec.Vec3) (decay.Result, error)
	Candidates() []vec.Vec3
	Items() []world.DroppedItem
	Stats() world.Stats
}

// RestServer - административный HTTP API
type RestServer struct {
	router  *gin.Engine
	world   World
	bus     eventbus.EventBus
	port    string
	metrics *ServerMetrics
	auth    *auth.Authenticator
	logger  *logging.Logger
	srv     *http.Server
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port     string // порт для запуска сервера, например ":8088"
	World    World
	Bus      eventbus.EventBus    // может быть nil
	Registry *prometheus.Registry // nil - дефолтный регистр
	Metrics  *ServerMetrics       // nil - без метрик процесса
	Auth     *auth.Authenticator  // nil - изменяющие запросы без токена
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8088"
	}
	if config.Metrics == nil {
		config.Metrics = NewServerMetrics(nil)
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	// === Observability middleware ===
	router.Use(otelgin.Middleware("leafdecay_api"))
	router.Use(middleware.NewRequestLogger().Handler())

	var (
		reg      prometheus.Registerer
		gatherer prometheus.Gatherer
	)
	if config.Registry != nil {
		reg, gatherer = config.Registry, config.Registry
	}
	promMw := middleware.NewPrometheusMiddleware("leafdecay_api", reg)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, gatherer)

	server := &RestServer{
		router:  router,
		world:   config.World,
		bus:     config.Bus,
		port:    config.Port,
		metrics: config.Metrics,
		auth:    config.Auth,
		logger:  logging.GetServerLogger(),
	}
	server.srv = &http.Server{
		Addr:              config.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	server.setupRoutes()
	return server
}

// Router возвращает gin.Engine (используется в тестах)
func (rs *RestServer) Router() *gin.Engine { return rs.router }

func (rs *RestServer) setupRoutes() {
	rs.router.GET("/health", rs.handleHealth)

	api := rs.router.Group("/api")
	{
		api.GET("/blocks", rs.handleGetBlock)
		api.GET("/items", rs.handleItems)
		api.GET("/stats", rs.handleStats)
		api.GET("/decay/inspect", rs.handleInspect)
		api.GET("/decay/candidates", rs.handleCandidates)
		api.POST("/auth/login", rs.handleLogin)
	}

	// Изменяющие запросы
	protected := api.Group("")
	protected.Use(rs.jwtMiddleware())
	{
		protected.POST("/blocks", rs.handleSetBlock)
		protected.POST("/trees", rs.handlePlantTree)
		protected.POST("/decay/check", rs.handleCheck)
	}
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// PositionRequest - координаты блока в теле запроса
type PositionRequest struct {
	X *int `json:"x" binding:"required"`
	Y *int `json:"y" binding:"required"`
	Z *int `json:"z" binding:"required"`
}

func (p PositionRequest) Vec() vec.Vec3 {
	return vec.Vec3{X: *p.X, Y: *p.Y, Z: *p.Z}
}

// SetBlockRequest - установка блока по имени
type SetBlockRequest struct {
	PositionRequest
	Block        string `json:"block" binding:"required"`
	PlayerPlaced bool   `json:"player_placed"`
}

// PlantTreeRequest - посадка дерева
type PlantTreeRequest struct {
	PositionRequest
	Variant string `json:"variant" binding:"required"`
	Height  int    `json:"height"`
}

// LoginRequest - вход оператора
type LoginRequest struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse - выданный токен
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

// BlockResponse - блок в позиции
type BlockResponse struct {
	ID       block.BlockID  `json:"id"`
	Name     string         `json:"name"`
	Support  string         `json:"support"`
	Metadata block.Metadata `json:"metadata,omitempty"`
}

// DecayResponse - итог проверки или осмотра листвы
type DecayResponse struct {
	Outcome   string `json:"outcome"`
	Distance  int    `json:"distance"`
	Adjacency string `json:"adjacency,omitempty"`
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, GenericResponse{Success: false, Message: message})
}

// worldError переводит ошибку мира в HTTP-статус
func worldError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, world.ErrOutOfBounds):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, world.ErrChunkNotLoaded):
		fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, world.ErrNotFoliage), errors.Is(err, world.ErrNotDecayable):
		fail(c, http.StatusUnprocessableEntity, err.Error())
	default:
		fail(c, http.StatusInternalServerError, err.Error())
	}
}

// queryPosition читает x, y, z из строки запроса
func queryPosition(c *gin.Context) (vec.Vec3, bool) {
	var coords [3]int
	for i, key := range [...]string{"x", "y", "z"} {
		v, err := strconv.Atoi(c.Query(key))
		if err != nil {
			fail(c, http.StatusBadRequest, "Параметр "+key+" должен быть целым числом")
			return vec.Vec3{}, false
		}
		coords[i] = v
	}
	return vec.Vec3{X: coords[0], Y: coords[1], Z: coords[2]}, true
}

func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
		"tick":   rs.world.Stats().Tick,
	})
}

func (rs *RestServer) handleLogin(c *gin.Context) {
	if rs.auth == nil {
		fail(c, http.StatusNotFound, "Аутентификация отключена")
		return
	}
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}

	token, expiresAt, err := rs.auth.Login(req.Name, req.Password)
	if errors.Is(err, auth.ErrBadCredentials) {
		fail(c, http.StatusUnauthorized, "Неверное имя или пароль")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, "Ошибка выдачи токена")
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Вход выполнен",
		Data:    LoginResponse{Token: token, ExpiresAt: expiresAt.Unix()},
	})
}

func (rs *RestServer) handleGetBlock(c *gin.Context) {
	pos, ok := queryPosition(c)
	if !ok {
		return
	}
	b, err := rs.world.GetBlock(pos)
	if err != nil {
		worldError(c, err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Блок получен",
		Data: BlockResponse{
			ID:       b.ID,
			Name:     b.Name(),
			Support:  block.SupportOf(b.ID).String(),
			Metadata: b.Payload,
		},
	})
}

func (rs *RestServer) handleSetBlock(c *gin.Context) {
	var req SetBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}
	id, ok := block.ByName(req.Block)
	if !ok {
		fail(c, http.StatusBadRequest, "Неизвестный блок "+req.Block)
		return
	}

	var meta block.Metadata
	if req.PlayerPlaced && block.SupportOf(id) == block.SupportFoliage {
		meta = implementations.PlayerPlacedMetadata()
	}
	if err := rs.world.SetBlockWithMetadata(req.Vec(), id, meta); err != nil {
		worldError(c, err)
		return
	}
	rs.logger.Info("Блок %s установлен в %s оператором %s", req.Block, req.Vec(), operatorName(c))
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: "Блок установлен"})
}

func (rs *RestServer) handlePlantTree(c *gin.Context) {
	var req PlantTreeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}
	v, err := block.ParseWoodVariant(req.Variant)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.Height == 0 {
		req.Height = 5
	}
	if err := rs.world.PlantTree(req.Vec(), v, req.Height); err != nil {
		if errors.Is(err, world.ErrChunkNotLoaded) || errors.Is(err, world.ErrOutOfBounds) {
			worldError(c, err)
			return
		}
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusCreated, GenericResponse{Success: true, Message: "Дерево посажено"})
}

func (rs *RestServer) handleInspect(c *gin.Context) {
	pos, ok := queryPosition(c)
	if !ok {
		return
	}

	var override *decay.Adjacency
	if name := c.Query("adjacency"); name != "" {
		adj, err := decay.ParseAdjacency(name)
		if err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		override = &adj
	}

	res, adj, err := rs.world.Inspect(pos, override)
	if err != nil {
		worldError(c, err)
		return
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Расстояние до опоры вычислено",
		Data: DecayResponse{
			Outcome:   res.Outcome.String(),
			Distance:  res.Distance,
			Adjacency: adj.String(),
		},
	})
}

func (rs *RestServer) handleCheck(c *gin.Context) {
	var req PositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}

	res, err := rs.world.ForceCheck(c.Request.Context(), req.Vec())
	if err != nil {
		worldError(c, err)
		return
	}
	rs.logger.Info("Принудительная проверка %s оператором %s: %s", req.Vec(), operatorName(c), res.Outcome)
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Проверка выполнена",
		Data: DecayResponse{
			Outcome:  res.Outcome.String(),
			Distance: res.Distance,
		},
	})
}

func (rs *RestServer) handleCandidates(c *gin.Context) {
	candidates := rs.world.Candidates()
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Листва, ожидающая проверки",
		Data: gin.H{
			"candidates": candidates,
			"total":      len(candidates),
		},
	})
}

func (rs *RestServer) handleItems(c *gin.Context) {
	items := rs.world.Items()
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Предметы в мире",
		Data: gin.H{
			"items": items,
			"total": len(items),
		},
	})
}

func (rs *RestServer) handleStats(c *gin.Context) {
	stats := gin.H{
		"world":  rs.world.Stats(),
		"server": rs.metrics.Snapshot(),
	}
	if rs.bus != nil {
		stats["eventbus"] = rs.bus.Metrics()
	}
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика получена",
		Data:    stats,
	})
}

// Start запускает REST сервер и блокируется до Shutdown
func (rs *RestServer) Start() error {
	rs.logger.Info("🌐 REST API слушает %s", rs.port)
	if err := rs.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown корректно останавливает сервер
func (rs *RestServer) Shutdown(ctx context.Context) error {
	return rs.srv.Shutdown(ctx)
}
