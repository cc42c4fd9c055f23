package optimization

import (
	"encoding/json"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"gonum.org/v1/gonum/mat"

	"github.com/quantframe/quantframe/internal/domain"
	"github.com/quantframe/quantframe/pkg/formulas"
)

// Handler handles HTTP requests for the optimization module.
type Handler struct {
	provider     *ReturnsProvider
	riskFreeRate float64
	targetReturn float64
	log          zerolog.Logger
}

// NewHandler creates a new optimization handler. The provider may be
// nil when no price-history store is configured; requests must then
// carry an inline returns matrix.
func NewHandler(provider *ReturnsProvider, riskFreeRate, targetReturn float64, log zerolog.Logger) *Handler {
	return &Handler{
		provider:     provider,
		riskFreeRate: riskFreeRate,
		targetReturn: targetReturn,
		log:          log.With().Str("component", "optimization_handler").Logger(),
	}
}

// RegisterRoutes mounts the module's routes on the given router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/optimize", h.HandleOptimize)
}

// OptimizeRequest is the POST /optimize payload. Either an inline
// returns matrix (rows are time steps, columns follow the symbols
// order) or symbols + lookback resolved against the history store.
type OptimizeRequest struct {
	Strategy        string      `json:"strategy"` // "max_sharpe" or "min_variance"
	Symbols         []string    `json:"symbols"`
	Lookback        int         `json:"lookback"`
	Returns         [][]float64 `json:"returns,omitempty"`
	ExpectedReturns []float64   `json:"expected_returns,omitempty"`
	MinimumWeight   *float64    `json:"minimum_weight,omitempty"`
	MaximumWeight   *float64    `json:"maximum_weight,omitempty"`
	RiskFreeRate    *float64    `json:"risk_free_rate,omitempty"`
	TargetReturn    *float64    `json:"target_return,omitempty"`
}

// OptimizeResponse reports the solved weights and portfolio metrics.
type OptimizeResponse struct {
	Strategy       string             `json:"strategy"`
	Weights        map[string]float64 `json:"weights"`
	ExpectedReturn float64            `json:"expected_return"`
	Risk           float64            `json:"risk"`
	SharpeRatio    float64            `json:"sharpe_ratio"`
}

// HandleOptimize handles POST /api/optimize.
func (h *Handler) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	var req OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Symbols) == 0 {
		h.writeError(w, http.StatusBadRequest, "symbols are required")
		return
	}

	returns, err := h.resolveReturns(req)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to resolve returns matrix")
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	minWeight := valueOr(req.MinimumWeight, DefaultMinimumWeight)
	maxWeight := valueOr(req.MaximumWeight, DefaultMaximumWeight)

	var optimizer PortfolioOptimizer
	switch req.Strategy {
	case "min_variance":
		optimizer = NewMinimumVarianceOptimizer(minWeight, maxWeight, valueOr(req.TargetReturn, h.targetReturn), h.log)
	case "", "max_sharpe":
		optimizer = NewMaximumSharpeRatioOptimizer(minWeight, maxWeight, valueOr(req.RiskFreeRate, h.riskFreeRate), h.log)
	default:
		h.writeError(w, http.StatusBadRequest, "Unknown strategy: "+req.Strategy)
		return
	}

	weights, err := optimizer.Optimize(returns, req.ExpectedReturns, nil)
	if err != nil {
		h.log.Error().Err(err).Str("strategy", req.Strategy).Msg("Optimization failed")
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, h.buildResponse(req, returns, weights))
}

// resolveReturns builds the returns matrix from the inline payload or
// the history store.
func (h *Handler) resolveReturns(req OptimizeRequest) (*mat.Dense, error) {
	if len(req.Returns) > 0 {
		rows := len(req.Returns)
		cols := len(req.Symbols)
		m := mat.NewDense(rows, cols, nil)
		for i, row := range req.Returns {
			if len(row) != cols {
				return nil, ErrDimensionMismatch
			}
			for j, v := range row {
				m.Set(i, j, v)
			}
		}
		return m, nil
	}
	if h.provider == nil {
		return nil, ErrEmptyReturns
	}
	lookback := req.Lookback
	if lookback == 0 {
		lookback = 63 // one quarter of daily samples
	}
	symbols := make([]domain.Symbol, len(req.Symbols))
	for i, s := range req.Symbols {
		symbols[i] = domain.Symbol(s)
	}
	return h.provider.Matrix(symbols, lookback)
}

func (h *Handler) buildResponse(req OptimizeRequest, returns mat.Matrix, weights []float64) OptimizeResponse {
	mu := req.ExpectedReturns
	if mu == nil {
		mu = formulas.ColumnMeans(returns)
	}
	cov := formulas.CovarianceMatrix(returns)

	expReturn := 0.0
	for i, w := range weights {
		expReturn += w * mu[i]
	}
	risk := math.Sqrt(formulas.PortfolioVariance(weights, cov))

	sharpe := 0.0
	if risk > 0 {
		sharpe = (expReturn - h.riskFreeRate) / risk
	}

	bySymbol := make(map[string]float64, len(weights))
	for i, s := range req.Symbols {
		bySymbol[s] = weights[i]
	}

	strategy := req.Strategy
	if strategy == "" {
		strategy = "max_sharpe"
	}
	return OptimizeResponse{
		Strategy:       strategy,
		Weights:        bySymbol,
		ExpectedReturn: expReturn,
		Risk:           risk,
		SharpeRatio:    sharpe,
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func valueOr(v *float64, fallback float64) float64 {
	if v != nil {
		return *v
	}
	return fallback
}
