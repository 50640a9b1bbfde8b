package api

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eugenenazirov/fit-simulator/internal/allocator"
	"github.com/eugenenazirov/fit-simulator/internal/storage"
	"github.com/eugenenazirov/fit-simulator/internal/workload"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Handler wires simulator and storage dependencies into HTTP handlers.
type Handler struct {
	simulator allocator.Simulator
	storage   storage.Storage
	logger    *zap.Logger

	clock   func() time.Time
	newRand func() *rand.Rand

	mu                sync.RWMutex
	workloadUpdatedAt time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithLogger attaches a logger for simulation diagnostics.
func WithLogger(logger *zap.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithRandSource overrides the source used to generate random blocks when a
// request carries no seed.
func WithRandSource(newRand func() *rand.Rand) HandlerOption {
	return func(h *Handler) {
		h.newRand = newRand
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(sim allocator.Simulator, store storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		simulator: sim,
		storage:   store,
		logger:    zap.NewNop(),
		clock: func() time.Time {
			return time.Now().UTC()
		},
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.workloadUpdatedAt = h.clock()
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	_ = r
	policies := allocator.Policies()
	resp := make([]policyResponse, 0, len(policies))
	for _, p := range policies {
		resp = append(resp, policyResponse{Name: string(p), Title: p.Title()})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetWorkload(w http.ResponseWriter, r *http.Request) {
	_ = r
	current, err := h.storage.GetWorkload()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := workloadResponse{
		Blocks:    current.Blocks,
		Processes: current.Processes,
		UpdatedAt: h.currentWorkloadUpdatedAt(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePutWorkload(w http.ResponseWriter, r *http.Request) {
	var req workloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	next := workload.Workload{Blocks: req.Blocks, Processes: req.Processes}
	if err := h.storage.SetWorkload(next); err != nil {
		if errors.Is(err, storage.ErrInvalidWorkload) {
			writeError(w, http.StatusBadRequest, "Invalid workload", err.Error())
			return
		}
		writeInternalError(w, err)
		return
	}

	h.markWorkloadUpdated()

	current, err := h.storage.GetWorkload()
	if err != nil {
		writeInternalError(w, err)
		return
	}

	resp := workloadResponse{
		Blocks:    current.Blocks,
		Processes: current.Processes,
		UpdatedAt: h.currentWorkloadUpdatedAt(),
		Message:   "Workload updated successfully",
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		return
	}

	input, err := h.storage.GetWorkload()
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if req.Blocks != nil {
		input.Blocks = *req.Blocks
	}
	if req.Processes != nil {
		input.Processes = *req.Processes
	}
	if err := input.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid workload", err.Error())
		return
	}

	rng := h.newRand()
	if req.Seed != nil {
		rng = rand.New(rand.NewSource(*req.Seed))
	}
	blocks, err := workload.Resolve(req.NumBlocks, input.Blocks, rng)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid block count", err.Error())
		return
	}

	policies, err := parsePolicies(req.Policies)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid policy", err.Error(), "use one of first-fit, best-fit, worst-fit")
		return
	}

	resp := simulateResponse{
		RunID:     uuid.NewString(),
		Blocks:    blocks,
		Processes: input.Processes,
		Results:   make([]policyResult, 0, len(policies)),
	}
	for _, policy := range policies {
		start := time.Now()
		result, simErr := h.simulator.Simulate(policy, blocks, input.Processes)
		elapsed := time.Since(start)
		if simErr != nil {
			writeInternalError(w, simErr)
			return
		}

		unallocated := result.UnallocatedCount()
		h.logger.Debug("simulation completed",
			zap.String("run_id", resp.RunID),
			zap.String("policy", string(policy)),
			zap.Int("blocks", len(blocks)),
			zap.Int("processes", len(input.Processes)),
			zap.Int("unallocated", unallocated),
			zap.Duration("duration", elapsed),
			zap.String("request_id", requestIDFromContext(r.Context())),
		)

		resp.Results = append(resp.Results, policyResult{
			Policy:           string(policy),
			Title:            policy.Title(),
			SimulationResult: result,
			AllocatedCount:   len(result.Allocations) - unallocated,
			UnallocatedCount: unallocated,
			DurationMs:       float64(elapsed.Microseconds()) / 1000,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func parsePolicies(names []string) ([]allocator.Policy, error) {
	if len(names) == 0 {
		return allocator.Policies(), nil
	}
	out := make([]allocator.Policy, 0, len(names))
	for _, name := range names {
		p, err := allocator.ParsePolicy(name)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (h *Handler) currentWorkloadUpdatedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.workloadUpdatedAt
}

func (h *Handler) markWorkloadUpdated() {
	h.mu.Lock()
	h.workloadUpdatedAt = h.clock()
	h.mu.Unlock()
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type workloadRequest struct {
	Blocks    []int `json:"blocks"`
	Processes []int `json:"processes"`
}

// simulateRequest fields left out of the payload fall back to the stored workload.
type simulateRequest struct {
	Blocks    *[]int   `json:"blocks"`
	Processes *[]int   `json:"processes"`
	NumBlocks int      `json:"numBlocks"`
	Policies  []string `json:"policies"`
	Seed      *int64   `json:"seed"`
}

type simulateResponse struct {
	RunID     string         `json:"runId"`
	Blocks    []int          `json:"blocks"`
	Processes []int          `json:"processes"`
	Results   []policyResult `json:"results"`
}

type policyResult struct {
	Policy string `json:"policy"`
	Title  string `json:"title"`
	allocator.SimulationResult
	AllocatedCount   int     `json:"allocatedCount"`
	UnallocatedCount int     `json:"unallocatedCount"`
	DurationMs       float64 `json:"durationMs"`
}

type policyResponse struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

type workloadResponse struct {
	Blocks    []int     `json:"blocks"`
	Processes []int     `json:"processes"`
	UpdatedAt time.Time `json:"updatedAt"`
	Message   string    `json:"message,omitempty"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
