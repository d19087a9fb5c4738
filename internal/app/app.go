// Package app wires configuration into a runnable coordinator: cache store,
// data source, generators, tasks, and the observability surface.
package app

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ideascope/pkg/agent"
	"ideascope/pkg/cache"
	"ideascope/pkg/config"
	"ideascope/pkg/coordinator"
	"ideascope/pkg/datasource"
	"ideascope/pkg/llm"
	"ideascope/pkg/logx"
	"ideascope/pkg/tasks"
	"ideascope/pkg/telemetry"
)

// App owns the process-wide analysis infrastructure.
type App struct {
	Config      config.Config
	Coordinator *coordinator.Coordinator
	Registry    *prometheus.Registry

	store  cache.Store
	usage  *telemetry.QueryService
	logger *logx.Logger
}

// New builds the full dependency graph from a validated config.
func New(cfg config.Config) (*App, error) {
	logger := logx.NewLogger("app")

	store, err := cache.NewStore(cfg.Cache.Backend, cache.Options{
		Redis: cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		},
		SQLitePath:    cfg.Cache.SQLitePath,
		SweepInterval: cfg.Cache.SweepInterval.Std(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create cache store: %w", err)
	}

	registry := prometheus.NewRegistry()
	recorder := telemetry.NewPrometheusRecorder(registry)

	var usage *telemetry.QueryService
	if cfg.Metrics.PrometheusURL != "" {
		usage, err = telemetry.NewQueryService(cfg.Metrics.PrometheusURL)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to create usage query service: %w", err)
		}
	}

	var source datasource.Source
	if cfg.DataSource.BaseURL != "" {
		source = datasource.NewHTTPSource(datasource.HTTPConfig{
			BaseURL:     cfg.DataSource.BaseURL,
			Timeout:     cfg.DataSource.Timeout.Std(),
			MemoEntries: cfg.DataSource.MemoEntries,
			MemoTTL:     cfg.DataSource.MemoTTL.Std(),
		})
	} else {
		source = datasource.NewStaticSource(nil)
	}

	var runners []coordinator.TaskRunner
	for taskID, settings := range cfg.Tasks {
		if !settings.Enabled {
			continue
		}
		runner, err := buildRunner(cfg, taskID, settings, store, recorder, source)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		if runner == nil {
			logger.Warn("ignoring unknown task %q in config", taskID)
			continue
		}
		runners = append(runners, runner)
	}
	if len(runners) == 0 {
		_ = store.Close()
		return nil, fmt.Errorf("no tasks enabled in config")
	}

	return &App{
		Config:      cfg,
		Coordinator: coordinator.New(coordinator.Options{}, runners...),
		Registry:    registry,
		store:       store,
		usage:       usage,
		logger:      logger,
	}, nil
}

// Close releases the cache backend.
func (a *App) Close() error {
	return a.store.Close()
}

func buildRunner(cfg config.Config, taskID string, settings config.TaskSettings, store cache.Store, recorder *telemetry.PrometheusRecorder, source datasource.Source) (coordinator.TaskRunner, error) {
	taskCfg, gen, err := taskWiring(cfg, taskID, settings)
	if err != nil {
		return nil, err
	}

	opts := agent.ExecutorOptions{
		Cache:         store,
		Recorder:      recorder,
		MinConfidence: cfg.Quality.MinimumConfidence,
	}

	switch taskID {
	case tasks.TaskMarketResearch:
		return coordinator.RunnerFor(agent.NewExecutor[tasks.BusinessIdea, tasks.MarketResearchOutput](
			tasks.NewMarketResearch(taskCfg, gen), opts)), nil
	case tasks.TaskCompetitorAnalysis:
		return coordinator.RunnerFor(agent.NewExecutor[tasks.BusinessIdea, tasks.CompetitorAnalysisOutput](
			tasks.NewCompetitorAnalysis(taskCfg, gen, source), opts)), nil
	case tasks.TaskFinancialProjection:
		return coordinator.RunnerFor(agent.NewExecutor[tasks.BusinessIdea, tasks.FinancialProjectionOutput](
			tasks.NewFinancialProjection(taskCfg, gen), opts)), nil
	default:
		return nil, nil
	}
}

// taskWiring resolves one task's config and generator.
func taskWiring(cfg config.Config, taskID string, settings config.TaskSettings) (agent.TaskConfig, llm.TextGenerator, error) {
	provider := providerConfig(cfg, settings.Provider)

	retry := llm.RetryConfig{
		MaxRetries:    settings.Retry.MaxRetries,
		InitialDelay:  settings.Retry.InitialDelay.Std(),
		MaxDelay:      settings.Retry.MaxDelay.Std(),
		BackoffFactor: settings.Retry.BackoffFactor,
		Jitter:        true,
	}

	gen, err := llm.NewGenerator(settings.Provider, llm.Options{
		APIKey: provider.APIKey(),
		Model:  provider.Model,
		Host:   provider.Host,
		Retry:  retry,
	})
	if err != nil {
		return agent.TaskConfig{}, nil, fmt.Errorf("task %s: %w", taskID, err)
	}

	taskCfg := agent.TaskConfig{
		TaskID:      taskID,
		Version:     settings.Version,
		Provider:    settings.Provider,
		Model:       provider.Model,
		MaxTokens:   settings.MaxTokens,
		Temperature: settings.Temperature,
		Timeout:     settings.Timeout.Std(),
		CacheTTL:    settings.CacheTTL.Std(),
		Retry:       retry,
	}
	return taskCfg, gen, nil
}

func providerConfig(cfg config.Config, name string) config.ProviderConfig {
	switch name {
	case config.ProviderAnthropic:
		return cfg.Providers.Anthropic
	case config.ProviderOpenAI:
		return cfg.Providers.OpenAI
	case config.ProviderOllama:
		return cfg.Providers.Ollama
	case config.ProviderGemini:
		return cfg.Providers.Gemini
	default:
		return config.ProviderConfig{}
	}
}

// Handler exposes the observability surface: Prometheus metrics, per-task
// health, and the active-executions registry.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", a.handleHealth)
	mux.HandleFunc("/executions", a.handleExecutions)
	mux.HandleFunc("/usage", a.handleUsage)
	return mux
}

// handleUsage serves historical per-task usage read back from Prometheus.
// Without a configured prometheus_url there is no history to serve.
func (a *App) handleUsage(w http.ResponseWriter, r *http.Request) {
	if a.usage == nil {
		http.Error(w, "no prometheus_url configured", http.StatusNotFound)
		return
	}

	ctx := r.Context()
	taskIDs := []string{r.URL.Query().Get("task")}
	if taskIDs[0] == "" {
		listed, err := a.usage.ListTasks(ctx)
		if err != nil {
			a.logger.Error("usage query failed: %v", err)
			http.Error(w, "usage query failed", http.StatusBadGateway)
			return
		}
		taskIDs = listed
	}

	usages := make([]*telemetry.TaskUsage, 0, len(taskIDs))
	for _, taskID := range taskIDs {
		usage, err := a.usage.GetTaskUsage(ctx, taskID)
		if err != nil {
			a.logger.Error("usage query for %s failed: %v", taskID, err)
			http.Error(w, "usage query failed", http.StatusBadGateway)
			return
		}
		usages = append(usages, usage)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(usages)
}

func (a *App) handleHealth(w http.ResponseWriter, _ *http.Request) {
	reports := a.Coordinator.HealthStatus()

	status := http.StatusOK
	for _, report := range reports {
		if report.Status == telemetry.HealthCritical {
			status = http.StatusServiceUnavailable
			break
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(reports)
}

func (a *App) handleExecutions(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(a.Coordinator.ActiveExecutions())
}
