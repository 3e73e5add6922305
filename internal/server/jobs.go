package server

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/copyleftdev/tspswarm/internal/errors"
	"github.com/copyleftdev/tspswarm/internal/optimization"
	"github.com/copyleftdev/tspswarm/internal/optimization/pso"
	"github.com/copyleftdev/tspswarm/internal/optimization/tour"
)

// Job states.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Job tracks one solve run. All fields are guarded by Server.jobsMu.
type Job struct {
	ID          string
	Status      string
	StartTime   time.Time
	EndTime     *time.Time
	LastUpdated time.Time
	Seed        int64
	Iteration   int
	Budget      int
	BestCost    tour.Cost
	Best        *tour.Tour
	History     []optimization.Evaluation
	Err         string

	cancel context.CancelFunc
	// exited is set once the engine goroutine has returned.
	exited bool
}

func (j *Job) terminal() bool {
	switch j.Status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// JobStatus is the externally visible state of a job.
type JobStatus struct {
	ID         string                    `json:"job_id"`
	Status     string                    `json:"status"`
	Progress   float64                   `json:"progress"`
	Iteration  int                       `json:"iteration"`
	Budget     int                       `json:"budget"`
	Seed       int64                     `json:"seed"`
	BestCost   *float64                  `json:"best_cost,omitempty"`
	BestTour   []int                     `json:"best_tour,omitempty"`
	Tour       string                    `json:"tour,omitempty"`
	History    []optimization.Evaluation `json:"history,omitempty"`
	Error      string                    `json:"error,omitempty"`
	StartTime  string                    `json:"start_time"`
	EndTime    string                    `json:"end_time,omitempty"`
	LastUpdate string                    `json:"last_update"`
}

func (j *Job) status() JobStatus {
	st := JobStatus{
		ID:         j.ID,
		Status:     j.Status,
		Iteration:  j.Iteration,
		Budget:     j.Budget,
		Seed:       j.Seed,
		Error:      j.Err,
		StartTime:  j.StartTime.Format(time.RFC3339),
		LastUpdate: j.LastUpdated.Format(time.RFC3339),
		History:    j.History,
	}
	switch {
	case j.Status == StatusCompleted:
		st.Progress = 1
	case j.Budget > 0:
		st.Progress = float64(j.Iteration) / float64(j.Budget)
	}
	if j.BestCost.Valid {
		v := j.BestCost.Value
		st.BestCost = &v
	}
	if j.Best != nil {
		vs := j.Best.Vertices()
		st.BestTour = make([]int, len(vs))
		for i, v := range vs {
			st.BestTour[i] = int(v)
		}
		st.Tour = j.Best.String()
	}
	if j.EndTime != nil {
		st.EndTime = j.EndTime.Format(time.RFC3339)
	}
	return st
}

// startJob validates req, builds the engine and runs it in the background.
// Validation failures are returned synchronously and no job is created. The
// population is built without holding jobsMu.
func (s *Server) startJob(req SolveRequest) (JobStatus, error) {
	if err := validateRequest(req); err != nil {
		return JobStatus{}, err
	}
	cfg := req.EngineConfig(s.cfg.EngineConfig())
	if err := s.checkLimits(cfg.PopulationSize, cfg.Iterations); err != nil {
		return JobStatus{}, err
	}
	g, _, err := req.Graph(s.cfg.PSO.MaxCities)
	if err != nil {
		return JobStatus{}, err
	}

	s.jobsMu.Lock()
	err = s.admitLocked()
	s.jobsMu.Unlock()
	if err != nil {
		return JobStatus{}, err
	}

	now := time.Now()
	job := &Job{
		ID:          uuid.NewString(),
		Status:      StatusPending,
		StartTime:   now,
		LastUpdated: now,
	}

	opts := []pso.Option{
		pso.WithLogger(s.logger.With(zap.String("job_id", job.ID))),
		pso.WithObserver(s.progressObserver(job)),
	}
	if s.metrics != nil {
		opts = append(opts, pso.WithRecorder(s.metrics))
	}
	engine, err := pso.NewEngine(g, cfg, opts...)
	if err != nil {
		return JobStatus{}, err
	}
	job.Seed = engine.Seed()
	job.Budget = engine.Config().Iterations
	job.BestCost = engine.Best().Cost()

	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	// Other requests may have been admitted while the engine was built.
	if err := s.admitLocked(); err != nil {
		return JobStatus{}, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	job.cancel = cancel
	s.jobs[job.ID] = job

	s.wg.Add(1)
	go s.runJob(ctx, job, engine)

	s.logger.Info("Job started",
		zap.String("job_id", job.ID),
		zap.Int("vertices", g.Order()),
		zap.Int("population", cfg.PopulationSize),
		zap.Int("iterations", job.Budget),
		zap.Int64("seed", job.Seed),
	)
	return job.status(), nil
}

// checkLimits rejects swarm sizes above the configured bounds.
func (s *Server) checkLimits(population, iterations int) error {
	if limit := s.cfg.PSO.MaxPopulation; population > limit {
		return errors.Errorf(errors.ErrBadRequest,
			"population %d exceeds the limit of %d", population, limit)
	}
	if limit := s.cfg.PSO.MaxIterations; iterations > limit {
		return errors.Errorf(errors.ErrBadRequest,
			"iterations %d exceed the limit of %d", iterations, limit)
	}
	return nil
}

func (s *Server) admitLocked() error {
	s.purgeLocked()
	if s.runningLocked() >= s.cfg.Server.MaxJobs {
		return errors.Errorf(errors.ErrUnavailable,
			"%d jobs already running", s.cfg.Server.MaxJobs)
	}
	return nil
}

// progressObserver copies per-iteration progress into the job.
func (s *Server) progressObserver(job *Job) pso.Observer {
	return func(snap pso.Snapshot) {
		s.jobsMu.Lock()
		defer s.jobsMu.Unlock()
		job.Iteration = snap.Iteration
		job.Budget = snap.Budget
		job.BestCost = snap.GlobalBest
		job.LastUpdated = time.Now()
	}
}

func (s *Server) runJob(ctx context.Context, job *Job, engine *pso.Engine) {
	defer s.wg.Done()
	defer job.cancel()

	s.jobsMu.Lock()
	if job.Status == StatusPending {
		job.Status = StatusRunning
	}
	s.jobsMu.Unlock()

	if s.metrics != nil {
		s.metrics.JobsActive.Inc()
		defer s.metrics.JobsActive.Dec()
	}

	res, err := engine.Run(ctx)
	best := engine.Best()
	history := engine.GetHistory()

	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	job.exited = true
	now := time.Now()
	job.Best = best
	job.BestCost = best.Cost()
	job.History = history
	job.LastUpdated = now
	if job.EndTime == nil {
		job.EndTime = &now
	}

	switch {
	case job.Status == StatusCancelled || stderrors.Is(err, context.Canceled):
		job.Status = StatusCancelled
	case err == nil:
		job.Status = StatusCompleted
		job.Iteration = res.Iterations
		s.logger.Info("Job completed",
			zap.String("job_id", job.ID),
			zap.Float64("best_cost", res.Cost.Raw()),
			zap.Duration("elapsed", res.Elapsed),
		)
	default:
		job.Status = StatusFailed
		job.Err = err.Error()
		s.logger.Error("Job failed", zap.String("job_id", job.ID), zap.Error(err))
	}
}

func (s *Server) jobStatus(id string) (JobStatus, error) {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return JobStatus{}, errors.Errorf(errors.ErrNotFound, "job %s", id)
	}
	return job.status(), nil
}

// cancelJob requests cancellation. The job is reported as cancelled at once;
// the engine stops at its next iteration boundary.
func (s *Server) cancelJob(id string) (JobStatus, error) {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return JobStatus{}, errors.Errorf(errors.ErrNotFound, "job %s", id)
	}
	if job.terminal() {
		return JobStatus{}, errors.Errorf(errors.ErrConflict,
			"cannot cancel job with status: %s", job.Status)
	}

	job.cancel()
	now := time.Now()
	job.Status = StatusCancelled
	job.EndTime = &now
	job.LastUpdated = now

	s.logger.Info("Job cancelled", zap.String("job_id", id))
	return job.status(), nil
}

// runningLocked counts jobs whose engine has not returned yet, including
// cancelled jobs still finishing their iteration.
func (s *Server) runningLocked() int {
	n := 0
	for _, j := range s.jobs {
		if !j.exited {
			n++
		}
	}
	return n
}

// purgeLocked forgets jobs that finished more than JobTTL ago.
func (s *Server) purgeLocked() {
	ttl := s.cfg.Server.JobTTL
	if ttl <= 0 {
		return
	}
	cutoff := time.Now().Add(-ttl)
	for id, j := range s.jobs {
		if j.exited && j.EndTime != nil && j.EndTime.Before(cutoff) {
			delete(s.jobs, id)
		}
	}
}
