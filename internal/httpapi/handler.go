package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Ciriera/examboard-scheduler/internal/fitness"
	internaljobs "github.com/Ciriera/examboard-scheduler/internal/jobs"
	appErrors "github.com/Ciriera/examboard-scheduler/pkg/errors"
	"github.com/Ciriera/examboard-scheduler/pkg/response"
)

// Handler exposes the scheduler's three endpoints, adapted from the
// teacher's ScheduleGeneratorHandler: a thin layer that binds/validates a
// request, delegates to the async runner or a synchronous scorer, and
// writes the common response.Envelope.
type Handler struct {
	runner     *internaljobs.Runner
	validate   *validator.Validate
	logger     *zap.Logger
	metrics    *Metrics
	scoreCache *ScoreCache
}

// NewHandler wires handler dependencies, defaulting a nil validator/logger
// the same way the teacher's service constructors do. scoreCache may be nil
// (NewScoreCache(nil, 0)), in which case /v1/score always misses and scores
// fresh.
func NewHandler(runner *internaljobs.Runner, validate *validator.Validate, logger *zap.Logger, metrics *Metrics, scoreCache *ScoreCache) *Handler {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if scoreCache == nil {
		scoreCache = NewScoreCache(nil, 0)
	}
	return &Handler{runner: runner, validate: validate, logger: logger, metrics: metrics, scoreCache: scoreCache}
}

// SubmitRun godoc
// @Summary Submit a scheduling run
// @Description Enqueues a scheduling run against the supplied inputs and returns its run ID immediately.
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body RunRequest true "Run submission payload"
// @Success 202 {object} response.Envelope
// @Router /v1/runs [post]
func (h *Handler) SubmitRun(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid run payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "run payload failed validation"))
		return
	}

	in := req.toDomain()
	if err := in.Validate(); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "insufficient scheduling data"))
		return
	}

	id := uuid.NewString()
	if err := h.runner.Submit(id, in, req.toPipelineConfig()); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to submit run"))
		return
	}

	response.JSON(c, http.StatusAccepted, RunResponse{ID: id, Status: string(internaljobs.StatusQueued)}, nil)
}

// GetRun godoc
// @Summary Poll a scheduling run
// @Tags Scheduler
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Router /v1/runs/{id} [get]
func (h *Handler) GetRun(c *gin.Context) {
	rec, ok := h.runner.Lookup(c.Param("id"))
	if !ok {
		response.Error(c, appErrors.ErrNotFound)
		return
	}

	resp := RunResponse{ID: rec.ID, Status: string(rec.Status)}
	if rec.Err != nil {
		resp.Error = rec.Err.Error()
	}
	if rec.Status == internaljobs.StatusSucceeded {
		resp.Assignments = assignmentsFromDomain(rec.Result.Assignments)
		report := rec.Result.Fitness
		resp.Fitness = &report
		if h.metrics != nil {
			elapsed := rec.Completed.Sub(rec.Submitted)
			h.observeCompletion(elapsed, report)
		}
	}

	response.JSON(c, http.StatusOK, resp, nil)
}

func (h *Handler) observeCompletion(elapsed time.Duration, report fitness.Report) {
	// Engine label isn't carried on RunRecord; metrics are keyed generically
	// here and the per-engine breakdown comes from the pipeline's own log.
	h.metrics.ObserveRun("unknown", "succeeded", elapsed, report.Total)
}

// Score godoc
// @Summary Score a caller-supplied assignment set
// @Description Pure Standard Fitness scoring; no engine runs.
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body ScoreRequest true "Score payload"
// @Success 200 {object} response.Envelope
// @Router /v1/score [post]
func (h *Handler) Score(c *gin.Context) {
	var req ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid score payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "score payload failed validation"))
		return
	}

	in := req.toDomain()
	weights := fitness.DefaultWeights()
	if req.Weights != nil {
		weights = req.Weights.toFitness()
	}
	if err := weights.Validate(); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInvalidWeights, err.Error()))
		return
	}

	effectiveWeights := fitness.WithDefaults(weights)
	if report, hit := h.scoreCache.Get(c.Request.Context(), req.Assignments, effectiveWeights); hit {
		response.JSON(c, http.StatusOK, gin.H{"fitness": report}, nil)
		return
	}

	assignments := assignmentsToDomain(req.Assignments, in)
	report := fitness.Score(assignments, in, effectiveWeights)
	h.scoreCache.Set(c.Request.Context(), req.Assignments, effectiveWeights, report)

	response.JSON(c, http.StatusOK, gin.H{"fitness": report}, nil)
}

// Health responds with a generic OK payload for readiness/liveness usage,
// matching the teacher's MetricsHandler.Health.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *Handler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}
