// CapturesData is a paginated response payload for the captures list.
package dto

import "geocapture/internal/model"

type CapturesData struct {
	Captures    []model.CaptureRecord `json:"captures"`
	Length      int                   `json:"length"`
	TotalPages  int                   `json:"totalPages"`
	CurrentPage int                   `json:"currentPage"`
	Limit       int                   `json:"pageSize"`
}
