package services

import (
	"context"
	cryptorand "crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"golang.org/x/crypto/argon2"
)

// AuthService manages operator accounts. Operators are identified by their
// 5-digit credential, the same number they stamp into ledger rows.
type AuthService struct {
	db        *sql.DB
	redis     *redis.Client
	validator *ValidationHelper
}

// LoginRequest represents the login request payload
// @Description Login request structure
type LoginRequest struct {
	Credential string `json:"credencial" validate:"required,credencial" example:"55555"` // Operator credential
	Password   string `json:"password" validate:"required,min=6" example:"password123"`  // Operator password
}

// RegisterRequest represents the registration request payload
// @Description Registration request structure
type RegisterRequest struct {
	Credential string `json:"credencial" validate:"required,credencial" example:"55555"` // Operator credential
	Name       string `json:"nombre" validate:"required,min=2" example:"Ana Pérez"`      // Operator full name
	Password   string `json:"password" validate:"required,min=6" example:"password123"`  // Operator password
}

// AuthResponse represents the authentication response
// @Description Authentication response structure
type AuthResponse struct {
	Token    string   `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."` // JWT token
	Operator Operator `json:"operator"`                                                // Operator information
}

// Operator represents operator information
// @Description Operator structure
type Operator struct {
	ID         int    `json:"id" example:"1"`                  // Operator ID
	Credential string `json:"credencial" example:"55555"`      // Operator credential
	Name       string `json:"nombre" example:"Ana Pérez"`      // Operator full name
}

func NewAuthService(db *sql.DB, redisClient *redis.Client) *AuthService {
	return &AuthService{
		db:        db,
		redis:     redisClient,
		validator: NewValidationHelper(),
	}
}

func (s *AuthService) sendValidationError(w http.ResponseWriter, err error) {
	if vErr, ok := err.(*ValidationError); ok {
		SendErrorResponse(w, "Validación fallida", http.StatusBadRequest, vErr.Fields)
		return
	}
	SendErrorResponse(w, "Validación fallida", http.StatusBadRequest, nil)
}

// Register handles operator registration
// @Summary Register a new operator
// @Description Register an operator with credential, name and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration request"
// @Success 200 {object} AuthResponse "Registration successful"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 409 {object} ErrorResponse "Credential already exists"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /auth/register [post]
func (s *AuthService) Register(w http.ResponseWriter, r *http.Request) {
	log.Printf("[AUTH] Registration attempt from IP: %s", r.RemoteAddr)

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req RegisterRequest
	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Solicitud inválida", http.StatusBadRequest, nil)
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "El cuerpo debe contener un único objeto JSON", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		s.sendValidationError(w, err)
		return
	}

	hashedPassword, err := hashPassword(req.Password)
	if err != nil {
		log.Printf("[AUTH] Password hashing failed for %s: %v", req.Credential, err)
		SendErrorResponse(w, "Ocurrió un error interno", http.StatusInternalServerError, nil)
		return
	}

	var operatorID int
	err = s.db.QueryRow(
		"INSERT INTO operators (credential, name, password) VALUES ($1, $2, $3) RETURNING id",
		req.Credential, req.Name, hashedPassword).Scan(&operatorID)
	if err != nil {
		log.Printf("[AUTH] Operator creation failed for %s: %v", req.Credential, err)
		SendErrorResponse(w, "La credencial ya está registrada", http.StatusConflict, nil)
		return
	}

	token, err := generateJWT(req.Credential)
	if err != nil {
		log.Printf("[AUTH] JWT generation failed for %s: %v", req.Credential, err)
		SendErrorResponse(w, "No se pudo generar el token", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[AUTH] Operator registered - ID: %d, Credential: %s", operatorID, req.Credential)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AuthResponse{
		Token:    token,
		Operator: Operator{ID: operatorID, Credential: req.Credential, Name: req.Name},
	})
}

// Login handles operator authentication
// @Summary Login operator
// @Description Authenticate an operator with credential and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} AuthResponse "Login successful"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /auth/login [post]
func (s *AuthService) Login(w http.ResponseWriter, r *http.Request) {
	log.Printf("[AUTH] Login attempt from IP: %s", r.RemoteAddr)

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req LoginRequest
	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Solicitud inválida", http.StatusBadRequest, nil)
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "El cuerpo debe contener un único objeto JSON", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		s.sendValidationError(w, err)
		return
	}

	var op Operator
	var hashedPassword string
	err := s.db.QueryRow("SELECT id, credential, name, password FROM operators WHERE credential = $1",
		req.Credential).Scan(&op.ID, &op.Credential, &op.Name, &hashedPassword)
	if err != nil {
		log.Printf("[AUTH] Operator not found: %s", req.Credential)
		SendErrorResponse(w, "Credenciales inválidas", http.StatusUnauthorized, nil)
		return
	}

	if !verifyPassword(req.Password, hashedPassword) {
		log.Printf("[AUTH] Invalid password for operator: %s", req.Credential)
		SendErrorResponse(w, "Credenciales inválidas", http.StatusUnauthorized, nil)
		return
	}

	token, err := generateJWT(op.Credential)
	if err != nil {
		log.Printf("[AUTH] JWT generation failed for %s: %v", op.Credential, err)
		SendErrorResponse(w, "No se pudo generar el token", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[AUTH] Login successful for operator %s", op.Credential)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AuthResponse{Token: token, Operator: op})
}

// Logout handles operator logout
// @Summary Logout operator
// @Description Logout operator and blacklist token
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string "Logout successful"
// @Router /auth/logout [post]
func (s *AuthService) Logout(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("Authorization")
	if strings.HasPrefix(token, "Bearer ") {
		token = strings.TrimPrefix(token, "Bearer ")

		if s.redis != nil {
			ctx := context.Background()
			key := fmt.Sprintf("blacklist:%s", token)
			expiry := time.Duration(viper.GetInt("jwt.expiry_hours")) * time.Hour
			if err := s.redis.Set(ctx, key, "1", expiry).Err(); err != nil {
				log.Printf("[AUTH] Failed to blacklist token: %v", err)
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Sesión cerrada correctamente"})
}

func generateJWT(credential string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"credential": credential,
		"exp":        time.Now().Add(time.Duration(viper.GetInt("jwt.expiry_hours")) * time.Hour).Unix(),
	})

	return token.SignedString([]byte(viper.GetString("jwt.secret_key")))
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, viper.GetInt("argon2.salt_length"))
	if _, err := cryptorand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt,
		uint32(viper.GetInt("argon2.time")),
		uint32(viper.GetInt("argon2.memory")),
		uint8(viper.GetInt("argon2.threads")),
		uint32(viper.GetInt("argon2.key_length")))
	return fmt.Sprintf("%s$%s", base64.StdEncoding.EncodeToString(salt), base64.StdEncoding.EncodeToString(hash)), nil
}

func verifyPassword(password, hashedPassword string) bool {
	parts := strings.Split(hashedPassword, "$")
	if len(parts) != 2 {
		return false
	}

	salt, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}
	hash, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}

	computedHash := argon2.IDKey([]byte(password), salt,
		uint32(viper.GetInt("argon2.time")),
		uint32(viper.GetInt("argon2.memory")),
		uint8(viper.GetInt("argon2.threads")),
		uint32(viper.GetInt("argon2.key_length")))
	return string(hash) == string(computedHash)
}
