package api

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "fhir-data-pipeline/docs"
	"fhir-data-pipeline/internal/api/handler"
	"fhir-data-pipeline/pkg/router"
)

func RegisterRoutes(r *router.Router, h *handler.Handler) {
	r.POST("/api/v1/loads", h.CreateLoad)
	r.GET("/api/v1/loads", h.ListLoads)
	r.GET("/api/v1/loads/*/errors", h.GetLoadErrors)
	r.GET("/api/v1/loads/*", h.GetLoad)

	r.GET("/api/v1/patients/*/everything", h.PatientEverything)
	r.POST("/api/v1/patients/*/export", h.ExportPatient)

	r.GET("/api/v1/source/preview", h.PreviewSource)
	r.GET("/api/v1/store/status", h.StoreStatus)

	r.GET("/swagger/*", func(w http.ResponseWriter, req *http.Request) {
		httpSwagger.WrapHandler(w, req)
	})
}
