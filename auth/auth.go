package auth

import (
	"log"
	"net/http"
	"strings"
	"time"

	"farm2market/errs"
	"farm2market/globals"
	"farm2market/middleware"
	"farm2market/models"
	"farm2market/store"
	"farm2market/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
	"golang.org/x/crypto/bcrypt"
)

const accessTokenTTL = 12 * time.Hour

// CredentialVerifier resolves (email, role, password) to a registered
// identity. The default implementation compares bcrypt hashes over the
// user repository.
type CredentialVerifier interface {
	Verify(email, role, password string) (models.User, bool)
}

type Handler struct {
	Store    *store.Store
	Verifier CredentialVerifier
}

func NewHandler(s *store.Store) *Handler {
	return &Handler{Store: s, Verifier: &bcryptVerifier{store: s}}
}

type bcryptVerifier struct {
	store *store.Store
}

func (v *bcryptVerifier) Verify(email, role, password string) (models.User, bool) {
	user, ok := findByIdentity(v.store, email, role)
	if !ok {
		return models.User{}, false
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return models.User{}, false
	}
	return user, true
}

// findByIdentity looks up the unique (email, role) identity.
func findByIdentity(s *store.Store, email, role string) (models.User, bool) {
	matches := s.Users.Scan(func(u models.User) bool {
		return strings.EqualFold(u.Email, email) && u.Role == role
	})
	if len(matches) == 0 {
		return models.User{}, false
	}
	return matches[0], true
}

// Signup registers a new identity. Signing up an existing (email, role)
// pair with the matching password behaves as a login; a wrong password
// is rejected rather than overwriting the account.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := r.ParseForm(); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid form")
		return
	}

	fullName := r.FormValue("full_name")
	email := r.FormValue("email")
	password := r.FormValue("password")
	role := r.FormValue("role")
	if fullName == "" || email == "" || password == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if role != "farmer" && role != "buyer" {
		utils.RespondWithError(w, http.StatusBadRequest, "Role must be farmer or buyer")
		return
	}

	if existing, ok := findByIdentity(h.Store, email, role); ok {
		if bcrypt.CompareHashAndPassword([]byte(existing.PasswordHash), []byte(password)) != nil {
			utils.RespondWithFailure(w, errs.Conflict("account already exists"))
			return
		}
		h.issueToken(w, http.StatusOK, existing)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Failed to hash password for %s: %v", email, err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	user := models.User{
		UserID:       h.Store.NewID(),
		FullName:     fullName,
		Age:          utils.ParseInt(r.FormValue("age")),
		Email:        email,
		Phone:        r.FormValue("phone"),
		PasswordHash: string(hashed),
		Location:     r.FormValue("location"),
		Role:         role,
		CreatedAt:    h.Store.Now(),
	}
	h.Store.Users.Insert(user.UserID, user)

	h.issueToken(w, http.StatusCreated, user)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := r.ParseForm(); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid form")
		return
	}

	email := r.FormValue("email")
	password := r.FormValue("password")
	role := r.FormValue("role")
	if email == "" || password == "" || role == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Email, password and role are required")
		return
	}

	user, ok := h.Verifier.Verify(email, role, password)
	if !ok {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	h.issueToken(w, http.StatusOK, user)
}

// GetProfile returns a user's public profile, with crops when the user
// is a farmer.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := ps.ByName("userid")
	user, ok := h.Store.Users.Get(userID)
	if !ok {
		utils.RespondWithFailure(w, errs.NotFound("user"))
		return
	}

	var userCrops []models.Crop
	if user.Role == "farmer" {
		userCrops = h.Store.Crops.Scan(func(c models.Crop) bool { return c.FarmerID == userID })
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"success": true,
		"user":    user,
		"crops":   userCrops,
	})
}

func (h *Handler) issueToken(w http.ResponseWriter, status int, user models.User) {
	claims := &middleware.Claims{
		FullName: user.FullName,
		UserID:   user.UserID,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(accessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(globals.JwtSecret)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	utils.RespondWithJSON(w, status, utils.M{
		"success": true,
		"token":   tokenString,
		"user_id": user.UserID,
		"role":    user.Role,
	})
}
