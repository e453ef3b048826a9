package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/apiclient"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/domain"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/utils"
)

const usersPath = "/api/v1/users/"

func (h *Handler) GetMe(c *gin.Context) {
	if res, ok := h.forward(c, "fetch user", usersPath, nil); ok {
		relay(c, res)
	}
}

func (h *Handler) UpsertMe(c *gin.Context) {
	body, err := readBody(c)
	if err != nil || len(body) == 0 || !json.Valid(body) {
		body = []byte("{}")
	}
	if res, ok := h.forward(c, "create user", usersPath, body); ok {
		relay(c, res)
	}
}

type profileRequest struct {
	NickName string `json:"nickName"`
	ImageURL string `json:"imageUrl"`
}

// validateProfile trims the fields and checks them: a nickname is required
// and an image URL, when given, must be http(s).
func validateProfile(in profileRequest) (apiclient.ProfileUpdate, error) {
	out := apiclient.ProfileUpdate{
		NickName: utils.TrimOrEmpty(in.NickName),
		ImageURL: utils.TrimOrEmpty(in.ImageURL),
	}
	if out.NickName == "" {
		return out, domain.ValidationError{Field: "nickName", Msg: "nickname is required"}
	}
	if out.ImageURL != "" && !utils.IsHTTPURL(out.ImageURL) {
		return out, domain.ValidationError{Field: "imageUrl", Msg: "must be an http(s) URL"}
	}
	return out, nil
}

func (h *Handler) UpdateMe(c *gin.Context) {
	var in profileRequest
	if !BindJSONOrError(c, &in) {
		return
	}
	upd, err := validateProfile(in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	body, err := json.Marshal(upd)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "encode profile", err)
		return
	}
	if res, ok := h.forward(c, "update user", usersPath, body); ok {
		relay(c, res)
	}
}

func (h *Handler) ListUserRecipes(c *gin.Context) {
	path := "/api/v1/users/" + url.PathEscape(c.Param("id")) + "/food-recipes"
	if res, ok := h.forward(c, "fetch user recipes", path, nil); ok {
		relay(c, res)
	}
}
