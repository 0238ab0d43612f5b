package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	apperrors "github.com/notegit/notesyncd/internal/errors"
	"github.com/notegit/notesyncd/internal/models"
)

// Syncer is the facade surface the handlers consume; implemented by
// service.Facade and mocked in tests.
type Syncer interface {
	Connect(ctx context.Context, remoteURL, localPath, credential string) error
	ValidateConnection(ctx context.Context, remoteURL, credential string) error
	IsConnected() bool
	TriggerManualSync() (string, error)
	GetSyncStatus() *models.SyncStatus
	GetSyncHistory() []models.HistoryEntry
	StartAutomaticSync(seconds int) error
	StopAutomaticSync()
	IsAutoSyncActive() bool
	DetectConflicts() ([]string, error)
	GetConflictDetails() models.ConflictDetails
	SetConflictResolutionStrategy(strategy string) error
	ResolveConflictsWithStrategy(strategy string) error
	AbortSync() error
	LastErrorDetails() string
}

// Handler exposes the facade over HTTP.
type Handler struct {
	svc    Syncer
	logger *logrus.Logger
}

// NewHandler creates a Handler backed by the given facade.
func NewHandler(svc Syncer, logger *logrus.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// ErrorResponse is the JSON body for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Hint  string `json:"hint,omitempty"`
}

// ConnectRequest carries repository connection details.
type ConnectRequest struct {
	RemoteURL  string `json:"remote_url" binding:"required"`
	LocalPath  string `json:"local_path"`
	Credential string `json:"credential"`
}

// AutoSyncRequest configures the periodic sync loop.
type AutoSyncRequest struct {
	IntervalSeconds int `json:"interval_seconds"`
}

// StrategyRequest names a conflict resolution strategy.
type StrategyRequest struct {
	Strategy string `json:"strategy" binding:"required"`
}

func httpStatus(err error) int {
	switch {
	case apperrors.IsSyncInProgress(err), apperrors.IsMergeConflict(err):
		return http.StatusConflict
	case apperrors.IsPrecondition(err), apperrors.IsInvalidStrategy(err):
		return http.StatusBadRequest
	case apperrors.IsAuthenticationFailed(err):
		return http.StatusUnauthorized
	case apperrors.IsKind(err, apperrors.KindRemoteNotFound):
		return http.StatusNotFound
	case apperrors.IsKind(err, apperrors.KindNetworkIssue):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	resp := ErrorResponse{Error: err.Error()}
	var se *apperrors.SyncError
	if errors.As(err, &se) {
		resp.Kind = string(se.Kind)
		resp.Hint = se.Hint
	}
	c.JSON(httpStatus(err), resp)
}

// Connect opens or clones the configured repository.
func (h *Handler) Connect(c *gin.Context) {
	var req ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	if err := h.svc.Connect(c.Request.Context(), req.RemoteURL, req.LocalPath, req.Credential); err != nil {
		h.logger.WithError(err).Error("Failed to connect repository")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "connected"})
}

// ValidateConnection probes the remote without touching local state.
func (h *Handler) ValidateConnection(c *gin.Context) {
	var req ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	if err := h.svc.ValidateConnection(c.Request.Context(), req.RemoteURL, req.Credential); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ConnectionStatus reports whether a repository is connected.
func (h *Handler) ConnectionStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"connected": h.svc.IsConnected()})
}

// TriggerSync runs one sync pass.
func (h *Handler) TriggerSync(c *gin.Context) {
	status, err := h.svc.TriggerManualSync()
	if err != nil {
		h.logger.WithError(err).Warn("Sync pass failed")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": status})
}

// SyncStatus returns the current sync status snapshot.
func (h *Handler) SyncStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.GetSyncStatus())
}

// SyncHistory returns past sync runs, newest last.
func (h *Handler) SyncHistory(c *gin.Context) {
	history := h.svc.GetSyncHistory()
	if history == nil {
		history = []models.HistoryEntry{}
	}
	c.JSON(http.StatusOK, history)
}

// StartAutoSync begins periodic syncing.
func (h *Handler) StartAutoSync(c *gin.Context) {
	var req AutoSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	if err := h.svc.StartAutomaticSync(req.IntervalSeconds); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "auto sync started"})
}

// StopAutoSync halts periodic syncing.
func (h *Handler) StopAutoSync(c *gin.Context) {
	h.svc.StopAutomaticSync()
	c.Status(http.StatusNoContent)
}

// AutoSyncStatus reports whether the periodic loop is running.
func (h *Handler) AutoSyncStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"active": h.svc.IsAutoSyncActive()})
}

// AbortSync aborts a conflicted or failed sync.
func (h *Handler) AbortSync(c *gin.Context) {
	if err := h.svc.AbortSync(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sync aborted"})
}

// DetectConflicts scans the working copy for conflicted files.
func (h *Handler) DetectConflicts(c *gin.Context) {
	files, err := h.svc.DetectConflicts()
	if err != nil {
		respondError(c, err)
		return
	}
	if files == nil {
		files = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"conflict_files": files})
}

// ConflictDetails describes the current conflict state.
func (h *Handler) ConflictDetails(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.GetConflictDetails())
}

// SetStrategy stores the conflict resolution strategy.
func (h *Handler) SetStrategy(c *gin.Context) {
	var req StrategyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	if err := h.svc.SetConflictResolutionStrategy(req.Strategy); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"strategy": req.Strategy})
}

// ResolveConflicts resolves current conflicts with the named strategy.
func (h *Handler) ResolveConflicts(c *gin.Context) {
	var req StrategyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	if err := h.svc.ResolveConflictsWithStrategy(req.Strategy); err != nil {
		h.logger.WithError(err).Warn("Conflict resolution failed")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "conflicts resolved", "strategy": req.Strategy})
}

// LastError returns the most recent classified error.
func (h *Handler) LastError(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"details": h.svc.LastErrorDetails()})
}
