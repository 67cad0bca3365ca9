package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/go-resty/resty/v2"
	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/config"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/ingestion"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/model"
	"github.com/anonymousaccountforfun/serviceflow-sub004/internal/observer"
	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/logger"
	"github.com/anonymousaccountforfun/serviceflow-sub004/pkg/utils"
)

// delivery is one signed webhook of a scripted call.
type delivery struct {
	kind model.EventKind
	body []byte
}

// callTask is the unit of work handed to the pool: one full call, delivered in order.
type callTask struct {
	script *model.FakeCallScript
}

type sender struct {
	url             string
	client          *resty.Client
	secret          string
	signatureHeader string
	stepDelay       time.Duration
}

func main() {
	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	targetURL := flag.String("url", fmt.Sprintf("http://localhost:%d/webhooks/voice", cfg.Server.Port), "Webhook URL")
	secret := flag.String("secret", cfg.Webhook.Secret, "Webhook signing secret (empty sends unsigned deliveries)")
	signatureHeader := flag.String("signature-header", cfg.Webhook.SignatureHeader, "Header carrying the signature")
	orgIDsStr := flag.String("org_ids", os.Getenv("LOADGEN_ORG_IDS"), "Comma-separated list of organization IDs")
	rate := flag.Int("rate", 5, "Calls started per second")
	duration := flag.Duration("duration", time.Minute, "Load test duration")
	concurrency := flag.Int("concurrency", 20, "Calls in flight at once")
	stepDelay := flag.Duration("step-delay", 200*time.Millisecond, "Pause between the deliveries of one call")
	metricsPort := flag.Int("metrics-port", 9091, "Port for Prometheus metrics endpoint")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Voice Webhook Load Generator\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Replays scripted inbound calls against the webhook endpoint with valid signatures.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := logger.Initialize(*logLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	orgIDs := splitNonEmpty(*orgIDsStr)
	if len(orgIDs) == 0 {
		logger.Log.Fatal("No organization IDs provided")
	}
	if *rate <= 0 || *concurrency <= 0 {
		logger.Log.Fatal("rate and concurrency must be positive")
	}

	observer.InitMetrics(true)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metricsServer := startMetricsServer(*metricsPort)

	logger.Log.Info("Starting voice webhook load generator",
		zap.String("url", *targetURL),
		zap.Bool("signed", *secret != ""),
		zap.Int("calls_per_sec", *rate),
		zap.Duration("duration", *duration),
		zap.Int("concurrency", *concurrency),
		zap.Strings("org_ids", orgIDs),
	)

	gofakeit.Seed(time.Now().UnixNano())

	s := &sender{
		url:    *targetURL,
		client: resty.New().
			SetTimeout(30*time.Second).
			SetHeader("Content-Type", "application/json"),
		secret:          *secret,
		signatureHeader: *signatureHeader,
		stepDelay:       *stepDelay,
	}

	var wg sync.WaitGroup
	pool, err := ants.NewPoolWithFunc(*concurrency, func(data interface{}) {
		defer wg.Done()
		task, ok := data.(callTask)
		if !ok {
			logger.Log.Error("Invalid task data type received", zap.Any("data", data))
			return
		}
		run := utils.WrapWithRecovery(func() error {
			s.runCall(ctx, task.script)
			return nil
		})
		if err := run(); err != nil {
			observer.IncLoadgenRequestErrors("panic")
		}
	}, ants.WithNonblocking(true))
	if err != nil {
		logger.Log.Fatal("Failed to create worker pool", zap.Error(err))
	}
	defer pool.Release()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			logger.Log.Info("Received termination signal, shutting down...", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	started := runLoadLoop(ctx, *rate, *duration, orgIDs, pool, &wg)

	logger.Log.Info("Waiting for in-flight calls to finish...", zap.Int("calls_started", started))
	wg.Wait()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Metrics server shutdown error", zap.Error(err))
	}

	logger.Log.Info("Load generator shutdown complete.")
}

func startMetricsServer(port int) *http.Server {
	logger.Log.Info("Starting Prometheus metrics server", zap.Int("port", port))
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("Failed to start Prometheus metrics server", zap.Error(err))
		}
	}()
	return server
}

// runLoadLoop starts one scripted call per tick until the duration elapses or ctx ends.
// It returns the number of calls submitted.
func runLoadLoop(ctx context.Context, rate int, duration time.Duration, orgIDs []string, pool *ants.PoolWithFunc, wg *sync.WaitGroup) int {
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	durationTimer := time.NewTimer(duration)
	defer durationTimer.Stop()

	started := 0
	for {
		select {
		case <-ctx.Done():
			return started
		case <-durationTimer.C:
			logger.Log.Info("Load generation duration finished")
			return started
		case <-ticker.C:
			script := model.NewFakeCallScript(orgIDs[started%len(orgIDs)])
			wg.Add(1)
			if err := pool.Invoke(callTask{script: script}); err != nil {
				wg.Done()
				logger.Log.Warn("Worker pool saturated, skipping call", zap.Error(err))
				observer.IncLoadgenRequestErrors("pool_overload")
				continue
			}
			started++
		}
	}
}

// runCall replays the lifecycle of one inbound call. A failed delivery does not stop the script;
// the service must cope with gaps the same way it copes with provider retries.
func (s *sender) runCall(ctx context.Context, script *model.FakeCallScript) {
	talkTime := time.Duration(gofakeit.Number(30, 600)) * time.Second
	steps := []delivery{
		{model.EventStatusUpdate, script.StatusUpdate("ringing")},
		{model.EventStatusUpdate, script.StatusUpdate("in-progress")},
		{model.EventTranscript, script.Transcript(gofakeit.Sentence(8))},
		{model.EventToolCalls, script.BookingToolCalls()},
		{model.EventTranscript, script.Transcript(gofakeit.Sentence(5))},
		{model.EventEndOfCallReport, script.EndOfCallReport(talkTime)},
	}

	for i, step := range steps {
		if ctx.Err() != nil {
			return
		}
		s.deliver(ctx, script.CallID, step)
		if i < len(steps)-1 && s.stepDelay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.stepDelay):
			}
		}
	}
}

func (s *sender) deliver(ctx context.Context, callID string, d delivery) {
	kind := string(d.kind)
	observer.IncLoadgenRequestsAttempted(kind)

	req := s.client.R().SetContext(ctx).SetBody(d.body)
	if s.secret != "" {
		req.SetHeader(s.signatureHeader, ingestion.ComputeSignature(s.secret, d.body))
	}

	resp, err := req.Post(s.url)
	if err != nil {
		logger.Log.Warn("Delivery failed", zap.String("call_id", callID), zap.String("kind", kind), zap.Error(err))
		observer.IncLoadgenRequestErrors(kind)
		return
	}
	if resp.IsError() {
		logger.Log.Warn("Delivery rejected",
			zap.String("call_id", callID),
			zap.String("kind", kind),
			zap.Int("status", resp.StatusCode()),
			zap.String("body", resp.String()),
		)
		observer.IncLoadgenRequestErrors(kind)
		return
	}
	logger.Log.Debug("Delivery accepted", zap.String("call_id", callID), zap.String("kind", kind))
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
