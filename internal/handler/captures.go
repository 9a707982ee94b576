package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"geocapture/internal/dto"
	"geocapture/internal/logger"
	"geocapture/internal/model"
	"geocapture/internal/repository"
)

const maxPageSize = 100

// GetCapturesHandler returns a page of capture metadata records, newest first.
func GetCapturesHandler(repo repository.MetadataRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		limit := atoiDefault(q.Get("limit"), 24)
		if limit > maxPageSize {
			limit = maxPageSize
		}

		totalCount, err := repo.Count(r.Context())
		if err != nil {
			logger.Error("Error counting captures: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if maxPage := totalCount/limit + 1; page > maxPage {
			page = maxPage
		}

		records, err := repo.List(r.Context(), limit, (page-1)*limit)
		if err != nil {
			logger.Error("Error querying captures from database: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []model.CaptureRecord{}
		}

		data := dto.CapturesData{
			Captures:    records,
			Length:      totalCount,
			TotalPages:  (totalCount + limit - 1) / limit,
			CurrentPage: page,
			Limit:       limit,
		}

		writeJSON(w, http.StatusOK, data)
	}
}

// atoiDefault converts string to int or returns a default when conversion fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
