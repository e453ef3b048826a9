package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/apiclient"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/http/middleware"
)

// ExportFavorites returns every favorite matching ?search= as a PDF download.
func (h *Handler) ExportFavorites(c *gin.Context) {
	token := strings.TrimSpace(strings.TrimPrefix(middleware.Authorization(c), "Bearer "))
	if token == "" {
		RespondError(c, http.StatusUnauthorized, "sign in to export favorites", nil)
		return
	}

	svc := h.Export
	svc.RequestID = middleware.GetRequestID(c)
	if svc.Log == nil {
		svc.Log = h.log()
	}
	api := h.Recipes.WithTokens(apiclient.StaticToken(token))

	pdfBytes, filename, err := svc.FavoritesPDF(c.Request.Context(), api, strings.TrimSpace(c.Query("search")))
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
