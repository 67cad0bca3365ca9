//go:build integration

package integration_test

import (
	"context"
	"fmt"
	"log"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	natsgo "github.com/nats-io/nats.go"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcnats "github.com/testcontainers/testcontainers-go/modules/nats"
	pgtc "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/cache"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/config"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/ingestion"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/ingestion/handler"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/jetstream"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/storage"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/usecase"
	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/logger"
)

const (
	testSecret        = "integration-secret"
	testStream        = "voice_domain_events_it"
	testSubjectPrefix = "v1.domain"
)

// VoiceIntegrationSuite runs the whole webhook stack in-process against real Postgres and NATS.
type VoiceIntegrationSuite struct {
	suite.Suite
	Ctx    context.Context
	cancel context.CancelFunc

	Postgres    testcontainers.Container
	PostgresDSN string
	NATS        testcontainers.Container
	NATSURL     string

	DB        *gorm.DB
	Repo      *storage.PostgresRepo
	JSClient  *jetstream.Client
	Worker    *usecase.EventWorker
	Throttler *usecase.ToolThrottler
	Server    *httptest.Server
	Events    *natsgo.Conn
}

// SetupSuite starts the containers once and wires the application the way main does.
func (s *VoiceIntegrationSuite) SetupSuite() {
	s.Ctx, s.cancel = context.WithCancel(context.Background())
	logger.Log = zaptest.NewLogger(s.T()).Named("VoiceIntegrationSuite")
	gin.SetMode(gin.TestMode)
	startTime := time.Now()

	var err error
	s.Postgres, s.PostgresDSN, err = startPostgres(s.Ctx)
	s.Require().NoError(err, "start postgres")

	s.NATS, s.NATSURL, err = startNATS(s.Ctx)
	s.Require().NoError(err, "start nats")

	s.Repo, err = storage.NewPostgresRepo(s.PostgresDSN, true)
	s.Require().NoError(err, "connect repository")

	s.DB, err = gorm.Open(postgres.Open(s.PostgresDSN), &gorm.Config{})
	s.Require().NoError(err, "open verification connection")

	s.JSClient, err = jetstream.NewClient(s.NATSURL)
	s.Require().NoError(err, "connect jetstream")
	s.Require().NoError(s.JSClient.SetupStream(s.Ctx, jetstream.DomainStreamConfig(testStream, testSubjectPrefix, time.Hour)))

	s.Events, err = natsgo.Connect(s.NATSURL, natsgo.Name("integration event reader"))
	s.Require().NoError(err, "connect event reader")

	callRepo := storage.NewCallRepoAdapter(s.Repo)
	s.Worker, err = usecase.NewEventWorker(config.WorkerPoolConfig{
		PoolSize:   2,
		QueueSize:  100,
		MaxBlock:   time.Second,
		ExpiryTime: time.Minute,
	}, 5*time.Second, jetstream.NewDomainEventPublisher(s.JSClient, testSubjectPrefix), storage.NewExhaustedEventRepoAdapter(s.Repo), logger.Log)
	s.Require().NoError(err)

	registry := usecase.NewToolRegistry(
		usecase.NewBookingTool(storage.NewCustomerRepoAdapter(s.Repo), storage.NewJobRepoAdapter(s.Repo), callRepo, "US"),
		usecase.AvailabilityTool{},
		usecase.NewTransferTool(callRepo),
	)
	s.Throttler, err = usecase.NewToolThrottler(usecase.ToolThrottlerConfig{
		PoolSize:    8,
		Concurrency: 3,
		Timeout:     5 * time.Second,
	}, registry, cache.NoopToolResultCache{}, logger.Log)
	s.Require().NoError(err)

	assistantCfg := config.AssistantConfig{
		Name:         "Receptionist",
		Greeting:     "Thanks for calling %s, how can I help you today?",
		SystemPrompt: "You answer the phone for %s.",
		Model:        "gpt-4o-mini",
	}

	router := ingestion.NewRouter()
	ingestion.RegisterVoiceHandlers(router,
		handler.NewVoiceHandler(usecase.NewCallService(callRepo, storage.NewAttributionRepoAdapter(s.Repo), s.Worker)),
		handler.NewToolsHandler(usecase.NewToolService(callRepo, s.Throttler)),
		handler.NewAssistantHandler(usecase.NewAssistantService(storage.NewOrganizationRepoAdapter(s.Repo), registry, assistantCfg, "US")),
	)
	srv := ingestion.NewServer(ingestion.ServerConfig{
		Signature: ingestion.SignatureConfig{Secret: testSecret, Header: "X-Signature"},
	}, router, logger.Log)
	s.Server = httptest.NewServer(srv.Handler())

	log.Printf("VoiceIntegrationSuite setup complete in %v", time.Since(startTime))
}

// TearDownSuite stops the application, then the containers.
func (s *VoiceIntegrationSuite) TearDownSuite() {
	if s.Server != nil {
		s.Server.Close()
	}
	if s.Throttler != nil {
		s.Throttler.Release()
	}
	if s.Worker != nil {
		s.Worker.Stop(5 * time.Second)
	}
	if s.Events != nil {
		s.Events.Close()
	}
	if s.JSClient != nil {
		s.JSClient.Close()
	}
	if s.Repo != nil {
		_ = s.Repo.Close(s.Ctx)
	}
	for name, c := range map[string]testcontainers.Container{"nats": s.NATS, "postgres": s.Postgres} {
		if c == nil {
			continue
		}
		if err := c.Terminate(s.Ctx); err != nil {
			s.T().Logf("Error terminating %s container: %v", name, err)
		}
	}
	if s.cancel != nil {
		s.cancel()
	}
}

// SetupTest gives every test empty tables.
func (s *VoiceIntegrationSuite) SetupTest() {
	err := s.DB.Exec("TRUNCATE organizations, customers, calls, jobs, attributions, exhausted_events").Error
	s.Require().NoError(err, "truncate tables")
}

func startPostgres(ctx context.Context) (testcontainers.Container, string, error) {
	pgContainer, err := pgtc.Run(ctx,
		"postgres:17-bookworm",
		pgtc.WithDatabase("voice_service"),
		pgtc.WithUsername("postgres"),
		pgtc.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start PostgreSQL container: %w", err)
	}

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return pgContainer, "", fmt.Errorf("failed to get PostgreSQL connection string: %w", err)
	}
	return pgContainer, dsn, nil
}

func startNATS(ctx context.Context) (testcontainers.Container, string, error) {
	natsContainer, err := tcnats.Run(ctx, "nats:2.11-alpine")
	if err != nil {
		return nil, "", fmt.Errorf("failed to start NATS container: %w", err)
	}

	natsURL, err := natsContainer.ConnectionString(ctx)
	if err != nil {
		return natsContainer, "", fmt.Errorf("failed to get NATS connection string: %w", err)
	}
	return natsContainer, natsURL, nil
}
