package handlers

import (
	"net/http"

	"github.com/geocoder89/photohub/internal/classifier"
	"github.com/geocoder89/photohub/internal/domain/submission"
	"github.com/geocoder89/photohub/internal/observability"
	"github.com/gin-gonic/gin"
)

// ClassifyRequest is the body accepted by the classifier service.
type ClassifyRequest struct {
	Name            string  `json:"name" binding:"required,max=120"`
	Age             *int    `json:"age" binding:"required"`
	PlaceOfLiving   string  `json:"place_of_living" binding:"required,max=120"`
	Gender          string  `json:"gender" binding:"required,max=40"`
	CountryOfOrigin string  `json:"country_of_origin" binding:"required,max=120"`
	Description     *string `json:"description"`
}

type ClassifyHandler struct {
	prom *observability.Prom
}

func NewClassifyHandler(prom *observability.Prom) *ClassifyHandler {
	return &ClassifyHandler{prom: prom}
}

func (h *ClassifyHandler) Classify(ctx *gin.Context) {
	var req ClassifyRequest

	if !BindJSON(ctx, &req) {
		return
	}

	label := classifier.Classify(submission.Metadata{
		Name:            req.Name,
		Age:             *req.Age,
		PlaceOfLiving:   req.PlaceOfLiving,
		Gender:          req.Gender,
		CountryOfOrigin: req.CountryOfOrigin,
		Description:     req.Description,
	})

	if h.prom != nil {
		h.prom.SubmissionsTotal.WithLabelValues(label).Inc()
	}

	ctx.JSON(http.StatusOK, gin.H{"label": label})
}
