package handlers

import (
	"net/http"

	"github.com/odclabs/kiosk/internal/api"
	"github.com/odclabs/kiosk/internal/domain"
)

type LanguageResponse struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Greeting string `json:"greeting"`
}

type LanguagesResponse struct {
	Languages []LanguageResponse `json:"languages"`
	Default   string             `json:"default"`
}

// Languages lists the supported languages for the kiosk's picker.
func Languages(w http.ResponseWriter, r *http.Request) {
	supported := domain.Languages()
	out := make([]LanguageResponse, len(supported))
	for i, l := range supported {
		out[i] = LanguageResponse{Code: l.Code, Name: l.Name, Greeting: l.Greeting}
	}
	api.Success(w, http.StatusOK, LanguagesResponse{Languages: out, Default: domain.DefaultLanguageCode})
}
