package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"facecast/internal/api"
	"facecast/internal/config"
	"facecast/internal/jobs"
	"facecast/internal/logging"
	"facecast/internal/services"
	"facecast/internal/workflow"
)

const maxSubmitBodyBytes = 1 << 20

type apiServer struct {
	bind   string
	token  string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, errors.New("api_bind must be configured")
	}

	srv := &apiServer{
		bind:   bind,
		token:  strings.TrimSpace(cfg.Paths.APIToken),
		logger: logger,
		daemon: d,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/jobs", authMiddleware(srv.token, srv.handleJobs))
	mux.HandleFunc("/api/jobs/", authMiddleware(srv.token, srv.handleJob))
	mux.HandleFunc("/api/status", authMiddleware(srv.token, srv.handleStatus))

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// handleJobs serves POST /api/jobs (submit) and GET /api/jobs (list).
func (s *apiServer) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleSubmit(w, r)
	case http.MethodGet:
		s.handleList(w, r)
	case http.MethodDelete:
		s.handleClearTerminal(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleClearTerminal removes all completed and errored jobs.
func (s *apiServer) handleClearTerminal(w http.ResponseWriter, r *http.Request) {
	removed, err := s.daemon.Store().ClearTerminal(r.Context())
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}

func (s *apiServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req api.SubmitRequest
	body := http.MaxBytesReader(w, r.Body, maxSubmitBodyBytes)
	defer func() {
		_, _ = io.Copy(io.Discard, body)
	}()
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, services.Details(err).Message)
		return
	}

	job, err := s.daemon.Orchestrator().StartWorkflow(r.Context(), req.ToJobRequest())
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, api.FromJob(job))
}

func (s *apiServer) handleList(w http.ResponseWriter, r *http.Request) {
	var statuses []jobs.Status
	for _, value := range r.URL.Query()["status"] {
		parsed, ok := jobs.ParseStatus(value)
		if !ok {
			s.writeError(w, http.StatusBadRequest,
				fmt.Sprintf("unknown status %q (valid: %s)", value, knownStatusList()))
			return
		}
		statuses = append(statuses, parsed)
	}

	records, err := s.daemon.Store().List(r.Context(), statuses...)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	views := api.SortJobsNewestFirst(api.FromJobs(records))
	s.writeJSON(w, http.StatusOK, api.JobListResponse{Jobs: views})
}

// handleJob serves GET /api/jobs/{id}, GET /api/jobs/{id}/result, and
// DELETE /api/jobs/{id}.
func (s *apiServer) handleJob(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	jobID, sub, _ := strings.Cut(rest, "/")
	if jobID == "" {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}

	switch {
	case sub == "" && r.Method == http.MethodGet:
		s.handleDescribe(w, r, jobID)
	case sub == "" && r.Method == http.MethodDelete:
		s.handleCancel(w, r, jobID)
	case sub == "result" && r.Method == http.MethodGet:
		s.handleResult(w, r, jobID)
	case sub != "" && sub != "result":
		s.writeError(w, http.StatusNotFound, "job not found")
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleDescribe(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := s.daemon.Store().Get(r.Context(), jobID)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromJob(job))
}

func (s *apiServer) handleResult(w http.ResponseWriter, r *http.Request, jobID string) {
	result, err := s.daemon.Orchestrator().Result(r.Context(), jobID)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	job, err := s.daemon.Store().Get(r.Context(), jobID)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromFinalResult(job, result))
}

func (s *apiServer) handleCancel(w http.ResponseWriter, r *http.Request, jobID string) {
	if err := s.daemon.Orchestrator().Cancel(r.Context(), jobID); err != nil {
		s.writeFailure(w, err)
		return
	}
	job, err := s.daemon.Store().Get(r.Context(), jobID)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromJob(job))
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status, err := s.daemon.Status(r.Context())
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	payload := api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		StoreBackend: status.StoreBackend,
		LockFilePath: status.LockFilePath,
		Workflow:     api.FromStatusSummary(status.Workflow),
	}
	s.writeJSON(w, http.StatusOK, payload)
}

// writeFailure maps domain errors onto HTTP statuses. A completed job with
// no result payload is a server defect and reported as such.
func (s *apiServer) writeFailure(w http.ResponseWriter, err error) {
	var failed *workflow.FailedError
	switch {
	case errors.Is(err, jobs.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "job not found")
	case errors.Is(err, services.ErrValidation):
		s.writeError(w, http.StatusBadRequest, services.Details(err).Message)
	case errors.Is(err, workflow.ErrNotReady):
		s.writeError(w, http.StatusConflict, "job not completed")
	case errors.Is(err, workflow.ErrNotCancelable):
		s.writeError(w, http.StatusConflict, "job already terminal")
	case errors.As(err, &failed):
		s.writeError(w, http.StatusConflict, failed.Error())
	case errors.Is(err, workflow.ErrMissingResult):
		s.writeError(w, http.StatusInternalServerError, "job completed without result payload")
	case errors.Is(err, workflow.ErrNotRunning):
		s.writeError(w, http.StatusServiceUnavailable, "workflow not running")
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

func (s *apiServer) log() *slog.Logger {
	return logging.NewComponentLogger(s.logger, "api-server")
}

func knownStatusList() string {
	known := jobs.AllStatuses()
	names := make([]string, 0, len(known))
	for _, status := range known {
		names = append(names, string(status))
	}
	return strings.Join(names, ", ")
}
