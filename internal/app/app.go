// Package app wires the gateway's components together: configuration,
// logging, the transcription provider, the EHR client, pipelines, the
// API server, and the ops listener.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"clinical-ehr-gateway/internal/audit"
	"clinical-ehr-gateway/internal/config"
	"clinical-ehr-gateway/internal/ehr"
	"clinical-ehr-gateway/internal/events"
	api "clinical-ehr-gateway/internal/http"
	"clinical-ehr-gateway/internal/observability"
	"clinical-ehr-gateway/internal/observability/logging"
	"clinical-ehr-gateway/internal/pipeline"
	"clinical-ehr-gateway/internal/transcription"
	"clinical-ehr-gateway/internal/transcription/deepgram"
	"clinical-ehr-gateway/internal/transcription/google"
	"clinical-ehr-gateway/internal/transcription/mock"
	"clinical-ehr-gateway/internal/watch"
)

// Application holds process-wide state for the gateway.
type Application struct {
	StartupTime time.Time
	Cfg         *config.Config

	Publisher   *events.Publisher
	Audit       *audit.Store
	EHRClient   *ehr.Client
	Transcriber transcription.Batch

	Ambient       *pipeline.Ambient
	Dictation     *pipeline.Dictation
	Telehealth    *pipeline.Telehealth
	ContactCenter *pipeline.ContactCenter

	tokenProvider ehr.TokenProvider
	apiServer     *http.Server
	opsServer     *observability.Server
	watcher       *watch.Watcher
	watchCancel   context.CancelFunc
}

// New constructs the application from configuration. Components that
// are disabled or unconfigured (Kafka, audit, EHR target) come up in
// their inert modes; the API endpoints that depend on them report
// unavailability instead.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	logging.Init(logging.Config{
		Level:      cfg.Observability.LogLevel,
		Format:     cfg.Observability.LogFormat,
		TimeFormat: time.RFC3339,
	})

	a := &Application{Cfg: cfg}

	a.Publisher = events.New(&events.Config{
		Enabled:        cfg.Kafka.Enabled,
		Brokers:        cfg.Kafka.Brokers,
		TopicDocuments: cfg.Kafka.TopicDocuments,
		TopicHL7:       cfg.Kafka.TopicHL7,
		Principal:      cfg.Kafka.Principal,
	})

	if cfg.Audit.Enabled {
		store, err := audit.Open(cfg.Audit.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening audit store: %w", err)
		}
		a.Audit = store
	}

	transcriber, err := newTranscriber(ctx, cfg.Transcription)
	if err != nil {
		return nil, err
	}
	a.Transcriber = transcriber

	if cfg.EHR.BaseURL != "" {
		client, provider, err := newEHRClient(cfg.EHR)
		if err != nil {
			return nil, err
		}
		a.EHRClient = client
		a.tokenProvider = provider
	}

	a.Ambient = pipeline.NewAmbient(documentSubmitter(a.EHRClient), a.Publisher, auditRecorder(a.Audit), cfg.EHR.Vendor)
	a.Dictation = pipeline.NewDictation(a.Transcriber, cfg.Transcription.Provider)
	a.Telehealth = pipeline.NewTelehealth()
	a.ContactCenter = pipeline.NewContactCenter()

	handlers := api.NewHandlers(a.Transcriber, cfg.Transcription.Provider, auditReader(a.Audit), a.Publisher, cfg.HL7)
	a.apiServer = &http.Server{
		Addr:         ":" + cfg.Service.HTTPPort,
		Handler:      api.NewRouter(handlers),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	a.opsServer = observability.NewServer(cfg.Observability.MetricsAddr, a.ready)

	if cfg.Watch.Enabled {
		w, err := watch.New(a.handleDroppedAudio)
		if err != nil {
			return nil, fmt.Errorf("creating drop folder watcher: %w", err)
		}
		a.watcher = w
	}

	log.Info().
		Str("transcriptionProvider", cfg.Transcription.Provider).
		Str("ehrVendor", cfg.EHR.Vendor).
		Bool("kafkaEnabled", cfg.Kafka.Enabled).
		Bool("auditEnabled", cfg.Audit.Enabled).
		Bool("watchEnabled", cfg.Watch.Enabled).
		Msg("Clinical EHR gateway application created")
	return a, nil
}

// newTranscriber selects the speech provider named in configuration.
func newTranscriber(ctx context.Context, cfg config.TranscriptionConfig) (transcription.Batch, error) {
	switch cfg.Provider {
	case "deepgram":
		if cfg.DeepgramAPIKey == "" {
			return nil, errors.New("transcription provider deepgram requires DEEPGRAM_API_KEY")
		}
		return deepgram.NewBatch(cfg.DeepgramAPIKey, nil), nil
	case "google":
		b, err := google.NewBatch(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating Google Speech client: %w", err)
		}
		return b, nil
	case "mock":
		return mock.NewBatch(), nil
	default:
		return nil, fmt.Errorf("unknown transcription provider %q", cfg.Provider)
	}
}

// newEHRClient builds the FHIR client and the vendor's token provider.
func newEHRClient(cfg config.EHRConfig) (*ehr.Client, ehr.TokenProvider, error) {
	client := ehr.NewClient(cfg.BaseURL, nil)

	tokenURL := cfg.TokenURL
	switch cfg.Vendor {
	case "epic":
		if tokenURL == "" {
			tokenURL = ehr.EpicTokenURL(cfg.BaseURL)
		}
		provider, err := ehr.NewEpicTokenProviderFromFile(cfg.ClientID, tokenURL, cfg.PrivateKeyPath, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("configuring Epic token provider: %w", err)
		}
		return client, provider, nil
	case "cerner":
		if tokenURL == "" {
			return nil, nil, errors.New("EHR vendor cerner requires EHR_TOKEN_URL")
		}
		provider := ehr.NewCernerTokenProvider(cfg.ClientID, cfg.ClientSecret, tokenURL, cfg.Scope, nil)
		return client, provider, nil
	default:
		return nil, nil, fmt.Errorf("unknown EHR vendor %q", cfg.Vendor)
	}
}

// auditReader, auditRecorder, and documentSubmitter avoid handing the
// consumers a typed-nil interface when the underlying component is
// disabled or unconfigured.
func auditReader(store *audit.Store) api.AuditReader {
	if store == nil {
		return nil
	}
	return store
}

func auditRecorder(store *audit.Store) pipeline.Auditor {
	if store == nil {
		return nil
	}
	return store
}

func documentSubmitter(client *ehr.Client) pipeline.Submitter {
	if client == nil {
		return nil
	}
	return client
}

// ready reports whether the gateway can serve its core operations. The
// builders are pure, so readiness only gates on the transcriber being
// wired.
func (a *Application) ready() bool {
	return a.Transcriber != nil
}

// Start authenticates with the EHR if one is configured, then brings up
// the ops server, the API server, and the drop folder watcher.
func (a *Application) Start(ctx context.Context) error {
	a.StartupTime = time.Now().UTC()

	if a.EHRClient != nil {
		if err := a.EHRClient.Authenticate(ctx, a.tokenProvider); err != nil {
			return fmt.Errorf("authenticating with EHR: %w", err)
		}
		log.Info().Str("vendor", a.Cfg.EHR.Vendor).Str("baseUrl", a.EHRClient.BaseURL()).Msg("Authenticated with EHR")
	}

	a.opsServer.Start()

	go func() {
		log.Info().Str("addr", a.apiServer.Addr).Msg("Starting API server")
		if err := a.apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("API server error")
		}
	}()

	if a.watcher != nil {
		watchCtx, cancel := context.WithCancel(context.Background())
		a.watchCancel = cancel
		go func() {
			if err := a.watcher.Run(watchCtx, a.Cfg.Watch.Dir); err != nil && err != context.Canceled {
				log.Error().Err(err).Msg("Drop folder watcher stopped")
			}
		}()
	}

	log.Info().Time("startupTime", a.StartupTime).Msg("Clinical EHR gateway started")
	return nil
}

// handleDroppedAudio feeds a dropped dictation file through the
// dictation pipeline and logs the outcome. Conversion to a clinical
// document happens through the API, where the caller supplies the
// patient context the filename cannot.
func (a *Application) handleDroppedAudio(ctx context.Context, path string) {
	logger := logging.WithPipeline("dictation")

	result, err := a.Dictation.Transcribe(ctx, path, nil)
	if err != nil {
		logger.Error().Err(err).Str("path", path).Msg("Failed to transcribe dropped audio")
		return
	}
	logger.Info().
		Str("path", path).
		Int("utterances", len(result.Utterances)).
		Int("transcriptChars", len(result.FullTranscript)).
		Msg("Transcribed dropped audio")
}

// Shutdown stops the watcher and servers and closes held resources.
func (a *Application) Shutdown(ctx context.Context) {
	if a.watchCancel != nil {
		a.watchCancel()
	}
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close watcher")
		}
	}

	if err := a.apiServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("API server shutdown error")
	}
	if err := a.opsServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Ops server shutdown error")
	}

	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close event publisher")
		}
	}
	if a.Audit != nil {
		if err := a.Audit.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close audit store")
		}
	}

	log.Info().Msg("Clinical EHR gateway shut down")
}
