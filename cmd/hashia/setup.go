package main

import (
	"context"

	"github.com/sandevgo/hashia/internal/config"
	"github.com/sandevgo/hashia/internal/core"
	"github.com/sandevgo/hashia/internal/providers/llm"
	"github.com/sandevgo/hashia/internal/providers/pinterest"
	"github.com/sandevgo/hashia/internal/service/command"
	"github.com/sandevgo/hashia/internal/service/conversation"
	"github.com/sandevgo/hashia/internal/service/dispatch"
	"github.com/sandevgo/hashia/internal/session"
	"github.com/sandevgo/hashia/internal/storage/sqlite"
	"github.com/sandevgo/hashia/internal/telemetry"
	"github.com/sandevgo/hashia/internal/transport/messenger"
	"github.com/sandevgo/hashia/pkg/log"
	"github.com/sandevgo/hashia/pkg/srv"
)

// NewServices wires the relay. Shutdown runs in slice order: the webhook stops
// accepting first, then the flusher drains the store, then resources close.
func NewServices(ctx context.Context, appCfg *config.AppConfig, providerCfg *config.ProviderConfig) []srv.Service {
	logger := log.FromCtx(ctx)

	// 1. Telemetry
	metrics, shutdownMetrics, err := telemetry.Init(ctx, appCfg.MetricsFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// 2. Session store
	store := session.NewStore(appCfg.MaxTurns)

	// 3. AI Provider
	systemInstruction, err := llm.LoadSystemInstruction(appCfg.SystemInstructionPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load system instruction")
	}
	logger.Info().Str("path", appCfg.SystemInstructionPath).Msg("system instruction loaded")

	aiProvider, err := llm.NewProvider(ctx, providerCfg, systemInstruction)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize LLM provider")
	}

	// 4. Messenger platform and image search
	graph := messenger.NewClient(appCfg.GraphAPIURL, appCfg.PageAccessToken, appCfg.HTTPTimeout)
	searcher := pinterest.NewClient(appCfg.PinterestAPIURL, appCfg.HTTPTimeout)

	// 5. Handlers
	conv := conversation.NewHandler(store, aiProvider, graph, graph, metrics)
	router := command.New(command.NewCommands(store, searcher, graph, metrics))
	dispatcher := dispatch.NewDispatcher(store, conv, router, graph, metrics, appCfg.EventTimeout)

	// 6. Webhook
	webhook, err := messenger.NewServer(appCfg.GetListenAddr(), appCfg.VerifyToken, dispatcher)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize webhook server")
	}

	// 7. Snapshot sinks
	sinks, closers, err := initSinks(ctx, appCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize snapshot storage")
	}

	flusher, err := session.NewFlusher(store, appCfg.SnapshotSchedule, metrics, sinks...)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize snapshot flusher")
	}

	services := []srv.Service{webhook, flusher}
	services = append(services, closers...)
	services = append(services, srv.NewCleanupCtx(shutdownMetrics))

	if appCfg.SetupProfile {
		services = append(services, srv.NewOneShot("messenger_profile", graph.SetupProfile))
	}

	return services
}

func initSinks(ctx context.Context, cfg *config.AppConfig) ([]core.SnapshotSink, []srv.Service, error) {
	fileSink := session.NewFileSink(cfg.SnapshotPath)
	sinks := []core.SnapshotSink{fileSink}
	var closers []srv.Service
	log.FromCtx(ctx).Info().Str("path", fileSink.Path()).Msg("chat history snapshots enabled")

	if cfg.IsArchiveEnabled() {
		db, err := sqlite.NewDB(ctx, cfg.ArchiveDBPath)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, sqlite.NewArchive(db, cfg.ArchiveKeep))
		closers = append(closers, srv.NewCleanup(db.Close))
		log.FromCtx(ctx).Info().Str("path", cfg.ArchiveDBPath).Msg("snapshot archive enabled")
	}

	return sinks, closers, nil
}
