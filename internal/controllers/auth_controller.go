package controllers

import (
	"net/http"

	"github.com/borkya1/smart-gallery/internal/models"
	"github.com/borkya1/smart-gallery/internal/providers"
	"github.com/borkya1/smart-gallery/internal/services"
	json "github.com/goccy/go-json"
	"github.com/gookit/validate"
)

const maxRequestBodySize = 1 << 10

type AuthController struct {
	logger  providers.Logger
	service services.OtpServiceInterface
}

func NewAuthController(logger providers.Logger, service services.OtpServiceInterface) *AuthController {
	return &AuthController{
		logger:  logger,
		service: service,
	}
}

// decodeRequest reads a small JSON body into dst and validates its tags.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeDetail(w, http.StatusBadRequest, "Bad Request")
		return false
	}

	v := validate.Struct(dst)
	if !v.Validate() {
		writeDetail(w, http.StatusBadRequest, v.Errors.One())
		return false
	}
	return true
}

func (ac *AuthController) SendOtp(w http.ResponseWriter, r *http.Request) {
	var req models.EmailRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	if err := ac.service.Send(r.Context(), req.Email); err != nil {
		writeServiceError(w, ac.logger, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "OTP sent successfully"})
}

func (ac *AuthController) VerifyOtp(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	ok, err := ac.service.Verify(r.Context(), req.Email, req.Code)
	if err != nil {
		writeServiceError(w, ac.logger, r, err)
		return
	}
	if !ok {
		writeDetail(w, http.StatusBadRequest, "Invalid or expired OTP")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "OTP verified"})
}
