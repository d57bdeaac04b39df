package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rozx/tsukuyomi-core/internal/core/domain"
	"github.com/rozx/tsukuyomi-core/internal/core/ports/driving"
)

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse represents a simple status response
type StatusResponse struct {
	Status string `json:"status"`
}

// Health endpoints

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports readiness: the database must answer, Redis only when
// configured.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	if s.redisClient != nil {
		if err := s.redisClient.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "redis unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"version": s.version}
	if s.runtime != nil {
		resp["storage"] = s.runtime.StorageDriver()
		resp["chatAvailable"] = s.runtime.ChatAvailable()
		resp["queueAvailable"] = s.runtime.QueueAvailable()
	}
	writeJSON(w, http.StatusOK, resp)
}

// Auth endpoints

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.authService.Authenticate(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, "invalid passphrase")
			return
		}
		writeError(w, http.StatusInternalServerError, "authentication failed")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Library endpoints

func (s *Server) handleListNovels(w http.ResponseWriter, r *http.Request) {
	novels, err := s.libraryService.ListNovels(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list novels")
		return
	}
	writeJSON(w, http.StatusOK, novels)
}

func (s *Server) handleGetNovel(w http.ResponseWriter, r *http.Request) {
	novel, err := s.libraryService.GetNovel(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "novel not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load novel")
		return
	}
	writeJSON(w, http.StatusOK, novel)
}

func (s *Server) handleSaveNovel(w http.ResponseWriter, r *http.Request) {
	var novel domain.Novel
	if err := json.NewDecoder(r.Body).Decode(&novel); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// The path is authoritative for the id.
	novel.ID = r.PathValue("id")

	if err := s.libraryService.SaveNovel(r.Context(), &novel); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "novel id required")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to save novel")
		return
	}
	writeJSON(w, http.StatusOK, novel)
}

func (s *Server) handleDeleteNovel(w http.ResponseWriter, r *http.Request) {
	if err := s.libraryService.DeleteNovel(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "novel not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete novel")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleDeleteChapter(w http.ResponseWriter, r *http.Request) {
	err := s.libraryService.DeleteChapter(r.Context(), r.PathValue("id"), r.PathValue("chapterID"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "chapter not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete chapter")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Translation endpoints

// translateRequest carries optional per-request overrides for a chapter pass.
type translateRequest struct {
	ModelID string `json:"model_id,omitempty"`
}

func (s *Server) handleTranslateChapter(w http.ResponseWriter, r *http.Request) {
	s.runChapterPass(w, r, domain.TaskTypeTranslateChapter)
}

func (s *Server) handleProofreadChapter(w http.ResponseWriter, r *http.Request) {
	s.runChapterPass(w, r, domain.TaskTypeProofreadChapter)
}

// runChapterPass enqueues the pass as a background task when a queue is
// configured, otherwise runs it inline and returns the result.
func (s *Server) runChapterPass(w http.ResponseWriter, r *http.Request, taskType domain.TaskType) {
	var req translateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && r.ContentLength > 0 {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	novelID := r.PathValue("id")
	chapterID := r.PathValue("chapterID")

	if s.taskQueue != nil {
		task := domain.NewTask(taskType, novelID, chapterID, req.ModelID)
		if err := s.taskQueue.Enqueue(r.Context(), task); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to enqueue task")
			return
		}
		writeJSON(w, http.StatusAccepted, task)
		return
	}

	run := s.translationService.TranslateChapter
	if taskType == domain.TaskTypeProofreadChapter {
		run = s.translationService.ProofreadChapter
	}
	result, err := run(r.Context(), novelID, chapterID, req.ModelID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "novel or chapter not found")
		case errors.Is(err, domain.ErrModelNotConfigured):
			writeError(w, http.StatusBadRequest, "no usable ai model configured")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	if s.taskQueue == nil {
		writeError(w, http.StatusServiceUnavailable, "task queue not configured")
		return
	}
	task, err := s.taskQueue.GetTask(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load task")
		return
	}
	if task == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// Model endpoints

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	models, err := s.libraryService.ListModels(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list models")
		return
	}
	writeJSON(w, http.StatusOK, models)
}

func (s *Server) handleSaveModel(w http.ResponseWriter, r *http.Request) {
	var model domain.AIModel
	if err := json.NewDecoder(r.Body).Decode(&model); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	model.ID = r.PathValue("id")

	if err := s.libraryService.SaveModel(r.Context(), &model); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "model id required")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to save model")
		return
	}
	writeJSON(w, http.StatusOK, model)
}

func (s *Server) handleDeleteModel(w http.ResponseWriter, r *http.Request) {
	if err := s.libraryService.DeleteModel(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "model not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete model")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// Settings endpoints

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.settings.Get(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings domain.AppSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	settings.LastEdited = domain.NowMillis()

	if err := s.settings.Save(r.Context(), &settings); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// Sync endpoints

// syncUploadRequest tunes one upload cycle.
type syncUploadRequest struct {
	ForceLocalOnly bool `json:"force_local_only,omitempty"`
}

// restorablesResponse returns entities the merge would have discarded.
type restorablesResponse struct {
	Restorable []domain.RestorableItem `json:"restorable"`
}

func (s *Server) handleSyncUpload(w http.ResponseWriter, r *http.Request) {
	var req syncUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && r.ContentLength > 0 {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := s.syncService.UploadToGist(r.Context(), driving.UploadOptions{
		ForceLocalOnly: req.ForceLocalOnly,
	})
	if err != nil {
		s.writeSyncError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.syncService.Status(r.Context()))
}

func (s *Server) handleSyncDownload(w http.ResponseWriter, r *http.Request) {
	preserveAllRemote := r.URL.Query().Get("preserve_all_remote") == "true"

	restorable, err := s.syncService.DownloadFromGist(r.Context(), preserveAllRemote)
	if err != nil {
		s.writeSyncError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, restorablesResponse{Restorable: restorable})
}

func (s *Server) handleSyncConfirm(w http.ResponseWriter, r *http.Request) {
	if err := s.syncService.ConfirmUploadWithLocalData(r.Context()); err != nil {
		if errors.Is(err, domain.ErrNoPendingUpload) {
			writeError(w, http.StatusNotFound, "no pending upload")
			return
		}
		s.writeSyncError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "uploaded"})
}

func (s *Server) handleSyncCancel(w http.ResponseWriter, r *http.Request) {
	s.syncService.CancelPendingUpload()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) handleSyncRestore(w http.ResponseWriter, r *http.Request) {
	var items []domain.RestorableItem
	if err := json.NewDecoder(r.Body).Decode(&items); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.syncService.RestoreDeletedItems(r.Context(), items); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to restore items")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "restored"})
}

func (s *Server) handleSyncStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.syncService.Status(r.Context()))
}

// writeSyncError maps orchestrator errors to HTTP statuses.
func (s *Server) writeSyncError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSyncInProgress):
		writeError(w, http.StatusConflict, "sync already in progress")
	case errors.Is(err, domain.ErrGistNotConfigured):
		writeError(w, http.StatusBadRequest, "gist sync not configured")
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusBadGateway, "gist token rejected")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
