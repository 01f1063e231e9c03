package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/leafdecay/internal/api"
	"github.com/annel0/leafdecay/internal/auth"
	"github.com/annel0/leafdecay/internal/config"
	"github.com/annel0/leafdecay/internal/decay"
	"github.com/annel0/leafdecay/internal/eventbus"
	"github.com/annel0/leafdecay/internal/logging"
	"github.com/annel0/leafdecay/internal/observability"
	syncpkg "github.com/annel0/leafdecay/internal/sync"
	"github.com/annel0/leafdecay/internal/vec"
	"github.com/annel0/leafdecay/internal/world"
	"github.com/annel0/leafdecay/internal/world/block"
	"github.com/annel0/leafdecay/internal/world/block/implementations"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (иначе LEAFDECAY_CONFIG)")
	hashPassword := flag.String("hash-password", "", "вывести bcrypt-хеш пароля для auth.operators и выйти")
	genSecret := flag.Bool("gen-secret", false, "вывести случайный секрет для auth.secret и выйти")
	flag.Parse()

	if *hashPassword != "" {
		hash, err := auth.HashPassword(*hashPassword)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		fmt.Println(hash)
		return
	}
	if *genSecret {
		fmt.Println(auth.GenerateSecret())
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	if err := setupLogging(cfg.Logging); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()

	logging.Info("🍃 Запуск сервера опадания листвы...")

	if err := implementations.ConfigureLeaves(implementations.LeavesOverrides{
		Adjacency:     cfg.Decay.Adjacency,
		SaplingChance: cfg.Decay.SaplingChance,
	}); err != nil {
		logging.Error("❌ Некорректные настройки листвы: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === ТЕЛЕМЕТРИЯ ===
	shutdownTelemetry := func(context.Context) error { return nil }
	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err = observability.InitTelemetry(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.Endpoint)
		if err != nil {
			logging.Warn("⚠️ OpenTelemetry не инициализирован: %v", err)
			shutdownTelemetry = func(context.Context) error { return nil }
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	// === ШИНА СОБЫТИЙ ===
	bus, err := newBus(cfg.EventBus)
	if err != nil {
		logging.Error("❌ Ошибка подключения к шине событий: %v", err)
		os.Exit(1)
	}
	eventbus.Init(bus)
	if _, err := eventbus.StartLoggingListener(bus); err != nil {
		logging.Warn("⚠️ LoggingListener не запущен: %v", err)
	}
	exporter := eventbus.NewMetricsExporter(bus, reg)
	exporter.Start(ctx)

	// === МИР ===
	engine := decay.NewEngine(decay.NewMetrics(reg))
	wm := world.NewWorldManager(world.Config{
		Height: cfg.World.Height,
		Seed:   cfg.World.Seed,
		TPS:    cfg.World.TPS,
		Source: cfg.Sync.RegionID,
		Scheduler: decay.SchedulerConfig{
			Chance:         cfg.Decay.Chance,
			LoadRadius:     cfg.Decay.LoadRadius,
			NeighborRadius: cfg.Decay.NeighborRadius,
		},
	}, engine, bus)

	r := cfg.World.PreloadRadius
	for x := -r; x <= r; x++ {
		for z := -r; z <= r; z++ {
			wm.LoadChunk(vec.Vec2{X: x, Y: z})
		}
	}
	logging.Info("🗺️ Загружено чанков: %d", len(wm.LoadedChunks()))
	if cfg.World.DemoForest {
		plantDemoForest(wm)
	}

	// === СИНХРОНИЗАЦИЯ ===
	var syncManager *syncpkg.SyncManager
	if cfg.Sync.Enabled {
		syncManager, err = syncpkg.NewSyncManager(syncpkg.SyncConfig{
			RegionID:       cfg.Sync.RegionID,
			Bus:            bus,
			BatchSize:      cfg.Sync.BatchSize,
			FlushEvery:     time.Duration(cfg.Sync.FlushEvery) * time.Second,
			UseCompression: cfg.Sync.UseCompression,
			Applier:        wm,
			ConflictWindow: time.Duration(cfg.Sync.ConflictWindow) * time.Second,
		})
		if err != nil {
			logging.Error("❌ Ошибка запуска синхронизации: %v", err)
			os.Exit(1)
		}
	}

	// === REST API ===
	var serverMetrics *api.ServerMetrics
	if pc, err := observability.NewProcessCollector(reg, 5*time.Second); err != nil {
		logging.Warn("⚠️ Метрики процесса недоступны: %v", err)
		serverMetrics = api.NewServerMetrics(nil)
	} else {
		go pc.Run(ctx)
		serverMetrics = api.NewServerMetrics(pc)
	}

	authenticator, err := newAuthenticator(cfg.Auth)
	if err != nil {
		logging.Error("❌ Ошибка настройки аутентификации: %v", err)
		os.Exit(1)
	}

	port := fmt.Sprintf(":%d", cfg.Server.GetHTTPPort())
	restServer := api.NewRestServer(api.Config{
		Port:     port,
		World:    wm,
		Bus:      bus,
		Registry: reg,
		Metrics:  serverMetrics,
		Auth:     authenticator,
	})
	go func() {
		if err := restServer.Start(); err != nil {
			logging.Error("❌ REST API остановлен с ошибкой: %v", err)
			cancel()
		}
	}()

	worldDone := make(chan struct{})
	go func() {
		defer close(worldDone)
		_ = wm.Run(ctx)
	}()

	logging.Info("✅ Все сервисы запущены")
	logging.Info("   🌐 REST API: http://localhost%s", port)
	logging.Info("   ❤️  Health check: http://localhost%s/health", port)
	logging.Info("   🔎 Осмотр листвы: curl 'http://localhost%s/api/decay/inspect?x=2&y=13&z=0'", port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logging.Info("📡 Получен сигнал %v, завершение работы...", sig)
	case <-ctx.Done():
	}

	// === GRACEFUL SHUTDOWN ===
	cancel()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()

	if err := restServer.Shutdown(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки REST API: %v", err)
	}
	<-worldDone
	if syncManager != nil {
		syncManager.Stop()
	}
	exporter.Wait()
	if err := bus.Close(); err != nil {
		logging.Warn("⚠️ Ошибка закрытия шины: %v", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logging.Warn("⚠️ Ошибка остановки телеметрии: %v", err)
	}

	s := wm.Stats()
	logging.Info("👋 Сервер остановлен на тике %d: опало %d, сохранилось %d", s.Tick, s.Decayed, s.Persisted)
}

func setupLogging(cfg config.LoggingConfig) error {
	console, err := logging.ParseLevel(cfg.ConsoleLevel)
	if err != nil {
		return err
	}
	file, err := logging.ParseLevel(cfg.FileLevel)
	if err != nil {
		return err
	}
	logging.Configure(logging.Options{Dir: cfg.Dir, ConsoleLevel: console, FileLevel: file})
	return logging.InitDefaultLogger("server")
}

func newBus(cfg config.EventBusConfig) (eventbus.EventBus, error) {
	if cfg.URL == "" {
		logging.Info("🚌 Шина событий в памяти, буфер %d", cfg.Capacity)
		return eventbus.NewMemoryBus(cfg.Capacity), nil
	}
	bus, err := eventbus.NewJetStreamBus(cfg.URL, cfg.Stream, time.Duration(cfg.Retention)*time.Hour)
	if err != nil {
		return nil, err
	}
	logging.Info("🚌 JetStream %s, стрим %s", cfg.URL, cfg.Stream)
	return bus, nil
}

// newAuthenticator возвращает nil, если аутентификация выключена
func newAuthenticator(cfg config.AuthConfig) (*auth.Authenticator, error) {
	if !cfg.Enabled {
		logging.Warn("⚠️ Аутентификация выключена: изменяющие запросы API открыты")
		return nil, nil
	}

	secret, err := auth.DecodeSecret(cfg.GetSecret())
	if err != nil {
		return nil, err
	}
	tokens, err := auth.NewTokenIssuer(secret, time.Duration(cfg.TokenTTLHours)*time.Hour)
	if err != nil {
		return nil, err
	}

	repo := auth.NewMemoryOperatorRepo()
	for _, op := range cfg.Operators {
		if _, err := repo.Create(op.Name, op.PasswordHash); err != nil {
			return nil, fmt.Errorf("оператор %s: %w", op.Name, err)
		}
	}
	logging.Info("🔐 Аутентификация включена, операторов: %d", len(cfg.Operators))
	return auth.NewAuthenticator(repo, tokens), nil
}

// plantDemoForest сажает по дереву каждой породы вдоль оси X
func plantDemoForest(wm *world.WorldManager) {
	for i, v := range block.WoodVariants() {
		base := vec.Vec3{X: (i - 4) * 7, Y: 10, Z: 0}
		if err := wm.PlantTree(base, v, 5); err != nil {
			logging.Warn("⚠️ Дерево %s в %s не посажено: %v", v, base, err)
		}
	}
	logging.Info("🌲 Демонстрационный лес посажен: %d кандидатов на проверку", len(wm.Candidates()))
}
