package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/user/accounts-go/apperror"
)

// MaxBodyBytes caps request bodies decoded by the handlers.
const MaxBodyBytes = 1 << 20

// Handlers wraps the Service to provide HTTP handlers.
type Handlers struct {
	service     *Service
	profilePath string // Location of the created resource on register
}

// NewHandlers creates a new Handlers instance. profilePath is the absolute
// path of the profile endpoint, used as the Location of registered users.
func NewHandlers(service *Service, profilePath string) *Handlers {
	return &Handlers{service: service, profilePath: profilePath}
}

// HandleRegister godoc
// @Summary Register a new user
// @Description Creates an account from a username and a confirmed password.
// @Tags Auth
// @Accept json
// @Produce json
// @Param registerBody body auth.RegisterRequest true "User registration details"
// @Success 201 {object} auth.RegisterResponse "User created"
// @Header 201 {string} Location "Profile resource of the new user"
// @Failure 400 {object} apperror.ErrorResponse "Missing fields or passwords do not match"
// @Failure 409 {object} apperror.ErrorResponse "Username already exists"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /auth/register [post]
func (h *Handlers) HandleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := DecodeJSON(w, r, &req); err != nil {
			WriteError(w, r, err)
			return
		}

		resp, err := h.service.Register(r.Context(), req)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		w.Header().Set("Location", h.profilePath)
		WriteJSON(w, http.StatusCreated, resp)
	}
}

// HandleLogin godoc
// @Summary Log in
// @Description Verifies credentials and returns a signed bearer token.
// @Tags Auth
// @Accept json
// @Produce json
// @Param loginBody body auth.LoginRequest true "User login credentials"
// @Success 200 {object} auth.LoginResponse "Login successful"
// @Failure 400 {object} apperror.ErrorResponse "Malformed request body"
// @Failure 401 {object} apperror.ErrorResponse "Invalid credentials"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /auth/login [post]
func (h *Handlers) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := DecodeJSON(w, r, &req); err != nil {
			WriteError(w, r, err)
			return
		}

		resp, err := h.service.Login(r.Context(), req)
		if err != nil {
			WriteError(w, r, err)
			return
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

// DecodeJSON reads a size-limited JSON body into dst.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	defer r.Body.Close()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperror.NewBadRequestError("request body too large", err)
		}
		return apperror.NewBadRequestError("invalid request body", err)
	}
	return nil
}

// WriteJSON serializes `data` to JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		// Headers are already sent; an encode failure can only be dropped.
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteError converts any error into the standard `apperror.ErrorResponse`.
// Errors that are not AppErrors become a generic 500 with no detail.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperror.FromError(err)
	if !ok {
		appErr = apperror.NewInternalError("internal server error", err)
	}
	WriteJSON(w, appErr.StatusCode(), appErr.ToResponse())
}
