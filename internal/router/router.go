package router

import (
	"database/sql"
	"net/http"
	"strings"

	_ "clinic-content-gateway/docs"
	"clinic-content-gateway/internal/adapters/ipfs/infura"
	"clinic-content-gateway/internal/adapters/ipfs/pinata"
	mem "clinic-content-gateway/internal/adapters/storage/memory"
	pg "clinic-content-gateway/internal/adapters/storage/postgres"
	"clinic-content-gateway/internal/config"
	"clinic-content-gateway/internal/domain/accessgrants"
	"clinic-content-gateway/internal/domain/content"
	"clinic-content-gateway/internal/middleware"
	"clinic-content-gateway/internal/platform/httpclient"
	"clinic-content-gateway/internal/platform/logger"
	"clinic-content-gateway/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB
	// Tiene prioridad sobre DB (tests).
	GrantsRepo accessgrants.Repository

	Config config.Config
	Logger logger.Logger

	// nil => registry propio; /metrics expone este registry.
	Registry *prometheus.Registry
	// nil => cliente sin timeout global acotado por IPFS_MAX_CONTENT_BYTES.
	HTTPClient *httpclient.Client
	// nil => tabla conocida.
	Overrides content.Overrides
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	cfg := opts.Config

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier, log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	grantsRepo := opts.GrantsRepo
	if grantsRepo == nil {
		if opts.DB != nil {
			grantsRepo = pg.NewAccessGrantsRepo(opts.DB)
		} else {
			grantsRepo = mem.NewAccessGrantsRepo()
		}
	}
	grantsSvc := accessgrants.NewService(grantsRepo, log)

	hc := opts.HTTPClient
	if hc == nil {
		hc = httpclient.NewPerAttempt(cfg.IPFS.MaxContentBytes)
	}

	// Providers
	pins := pinata.NewClient(pinata.Config{
		JWT:        cfg.Pinata.JWT,
		APIKey:     cfg.Pinata.APIKey,
		APISecret:  cfg.Pinata.APISecret,
		APIURL:     cfg.Pinata.APIURL,
		GatewayURL: cfg.Pinata.GatewayURL,
	}, hc)
	node := infura.NewClient(infura.Config{
		ProjectID:     cfg.Infura.ProjectID,
		ProjectSecret: cfg.Infura.ProjectSecret,
		APIURL:        cfg.Infura.APIURL,
	}, hc)

	log.Info("content providers", map[string]any{
		"pinata_auth": pins.AuthMode(),
		"infura":      node.IsConfigured(),
	})

	overrides := opts.Overrides
	if overrides == nil {
		overrides = content.DefaultOverrides()
	}

	metrics := content.NewMetrics(reg)
	gateways := withProviderHeaders(content.ParseGateways(cfg.IPFS.Gateways), cfg.Pinata.GatewayURL, pins)
	probeGateways := cfg.IPFS.ProbeGateways
	if len(probeGateways) == 0 {
		probeGateways = cfg.IPFS.Gateways
	}

	retriever := content.NewRetriever(content.RetrieverConfig{
		Gateways:        gateways,
		AttemptTimeout:  cfg.IPFS.AttemptTimeout,
		ProviderTimeout: cfg.IPFS.ProviderTimeout,
	}, hc, []content.ProviderStrategy{
		content.NewPinnedGatewayStrategy(pins, hc, cfg.IPFS.ProviderTimeout, log),
		content.NewNodeAPIStrategy(node),
	}, log, metrics)

	prober := content.NewProber(
		pins,
		withProviderHeaders(content.ParseGateways(probeGateways), cfg.Pinata.GatewayURL, pins),
		hc,
		cfg.IPFS.ProbeTimeout,
		log,
		metrics,
	)

	contentHandler := content.NewHandler(
		grantsSvc,
		content.NewAnalyzer(overrides),
		retriever,
		content.NewTranscoder(log),
		prober,
		log,
		metrics,
	)

	// Rutas por módulo
	content.RegisterRoutes(r, contentHandler)
	accessgrants.RegisterRoutes(r, grantsSvc)

	return r
}

// El gateway propio del provider lleva sus credenciales también cuando se
// usa como gateway público.
func withProviderHeaders(gws []content.Gateway, providerGateway string, pins *pinata.Client) []content.Gateway {
	base := strings.TrimRight(strings.TrimSpace(providerGateway), "/")
	if base == "" || !pins.IsConfigured() {
		return gws
	}
	for i := range gws {
		if gws[i].BaseURL == base {
			gws[i].Headers = pins.GatewayHeaders()
		}
	}
	return gws
}
