package controllers

import (
	"errors"
	"net/http"

	"github.com/borkya1/smart-gallery/internal/models"
	"github.com/borkya1/smart-gallery/internal/providers"
	json "github.com/goccy/go-json"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

type limitResponse struct {
	Detail string `json:"detail"`
	Used   int    `json:"used"`
	Limit  int    `json:"limit"`
}

type resultsResponse struct {
	Results []models.GalleryRecord `json:"results"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	gson, err := json.Marshal(body)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// writeServiceError maps domain errors to responses. Infrastructure failures
// are logged and answered without internal detail.
func writeServiceError(w http.ResponseWriter, logger providers.Logger, r *http.Request, err error) {
	var (
		limitErr      *models.LimitExceededError
		validationErr *models.ValidationError
	)
	switch {
	case errors.As(err, &limitErr):
		writeJSON(w, http.StatusTooManyRequests, limitResponse{
			Detail: limitErr.Error(),
			Used:   limitErr.Used,
			Limit:  limitErr.Limit,
		})
	case errors.Is(err, models.ErrUnauthenticated):
		w.Header().Set("WWW-Authenticate", `Bearer realm="smartgallery"`)
		writeDetail(w, http.StatusUnauthorized, "Invalid authentication token")
	case errors.As(err, &validationErr):
		writeDetail(w, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, models.ErrNotFound):
		writeDetail(w, http.StatusNotFound, "Not found")
	default:
		logger.Errorf(providers.GetLogTypeByRequestType(r.Method), "%s %s failed: %s", r.Method, r.URL.Path, err)
		writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
	}
}
