package routes

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"parkspot-server/database"
	"parkspot-server/middleware"
	"parkspot-server/models"
	"parkspot-server/services"
	"parkspot-server/utils"
)

// AuthResponse represents the authentication response
type AuthResponse struct {
	Token        string      `json:"token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int64       `json:"expires_in"`
	User         models.User `json:"user"`
}

// RegisterAuthRoutes registers authentication routes
func RegisterAuthRoutes(router *gin.RouterGroup) {
	jwtService := services.NewJWTService()

	// Sign up endpoint
	router.POST("/signup", func(c *gin.Context) {
		var req struct {
			FullName        string `json:"full_name" binding:"required,min=2,max=100"`
			PhoneNumber     string `json:"phone_number" binding:"required"`
			Password        string `json:"password" binding:"required,min=8,max=128"`
			ConfirmPassword string `json:"confirm_password" binding:"required"`
			Role            string `json:"role" binding:"omitempty,oneof=driver host"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request",
				"message": err.Error(),
			})
			return
		}

		// Sanitize input
		req.FullName = middleware.SanitizeInput(req.FullName)
		req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)

		phoneNumber := utils.FormatPhoneNumber(req.PhoneNumber)
		if !utils.ValidatePhoneNumber(phoneNumber) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid phone number",
				"message": "Phone number must include a valid country code",
			})
			return
		}

		// Validate password strength
		isStrong, problems := middleware.ValidatePasswordStrength(req.Password)
		if !isStrong {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Weak password",
				"message": "Password does not meet security requirements",
				"details": problems,
			})
			return
		}

		if req.Password != req.ConfirmPassword {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Password mismatch",
				"message": "Password and confirmation do not match",
			})
			return
		}

		// Check if user already exists
		var existingUser models.User
		if err := database.DB.Where("phone_number = ?", phoneNumber).First(&existingUser).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{
				"error":   "User already exists",
				"message": "A user with this phone number already exists",
			})
			return
		}

		hashedPassword, err := jwtService.HashPassword(req.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Password hashing failed",
				"message": "Failed to process password",
			})
			return
		}

		role := models.UserRole(req.Role)
		if role == "" {
			role = models.RoleDriver
		}

		user := models.User{
			FullName:     req.FullName,
			PhoneNumber:  phoneNumber,
			PasswordHash: hashedPassword,
			Role:         role,
			IsActive:     true,
		}

		if err := database.DB.Create(&user).Error; err != nil {
			log.Printf("❌ Failed to create user: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "User creation failed",
				"message": "Failed to create user account",
			})
			return
		}

		tokens, err := jwtService.GenerateTokenPair(user.ID, c.GetHeader("X-Device-ID"), c.Request.UserAgent(), c.ClientIP())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Token generation failed",
				"message": "Failed to generate authentication token",
			})
			return
		}

		log.Printf("✅ User %d signed up as %s", user.ID, user.Role)
		c.JSON(http.StatusCreated, AuthResponse{
			Token:        tokens.AccessToken,
			RefreshToken: tokens.RefreshToken,
			ExpiresIn:    tokens.ExpiresIn,
			User:         user,
		})
	})

	// Sign in endpoint
	router.POST("/signin", func(c *gin.Context) {
		var req struct {
			PhoneNumber string `json:"phone_number" binding:"required"`
			Password    string `json:"password" binding:"required"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request",
				"message": err.Error(),
			})
			return
		}

		phoneNumber := utils.FormatPhoneNumber(strings.TrimSpace(req.PhoneNumber))

		var user models.User
		if err := database.DB.Where("phone_number = ?", phoneNumber).First(&user).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid credentials",
				"message": "Phone number or password is incorrect",
			})
			return
		}

		if !jwtService.CheckPasswordHash(req.Password, user.PasswordHash) {
			log.Printf("⚠️ Failed sign in attempt for user %d", user.ID)
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid credentials",
				"message": "Phone number or password is incorrect",
			})
			return
		}

		if !user.IsActive {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "Account deactivated",
				"message": "This account has been deactivated",
			})
			return
		}

		tokens, err := jwtService.GenerateTokenPair(user.ID, c.GetHeader("X-Device-ID"), c.Request.UserAgent(), c.ClientIP())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Token generation failed",
				"message": "Failed to generate authentication token",
			})
			return
		}

		log.Printf("✅ User %d signed in", user.ID)
		c.JSON(http.StatusOK, AuthResponse{
			Token:        tokens.AccessToken,
			RefreshToken: tokens.RefreshToken,
			ExpiresIn:    tokens.ExpiresIn,
			User:         user,
		})
	})

	// Refresh token endpoint
	router.POST("/refresh", func(c *gin.Context) {
		var req struct {
			RefreshToken string `json:"refresh_token" binding:"required"`
		}

		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request",
				"message": err.Error(),
			})
			return
		}

		tokens, err := jwtService.RefreshAccessToken(req.RefreshToken)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid refresh token",
				"message": "Refresh token is invalid or expired",
			})
			return
		}

		c.JSON(http.StatusOK, tokens)
	})

	// Logout endpoint
	router.POST("/logout", logoutHandler(jwtService))
}

// RegisterProtectedAuthRoutes registers auth routes that require a session
func RegisterProtectedAuthRoutes(router *gin.RouterGroup) {
	jwtService := services.NewJWTService()

	// Revoke every refresh token the user holds, on all devices
	router.POST("/auth/logout-all", func(c *gin.Context) {
		userID := c.GetUint("user_id")

		if err := jwtService.RevokeAllUserTokens(userID); err != nil {
			log.Printf("❌ Failed to revoke tokens for user %d: %v", userID, err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Logout failed",
				"message": "Could not revoke sessions",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Logged out on all devices",
		})
	})
}

func logoutHandler(jwtService *services.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			RefreshToken string `json:"refresh_token"`
		}

		// Token in the body is optional; logout succeeds either way
		_ = c.ShouldBindJSON(&req)

		if req.RefreshToken != "" {
			if err := jwtService.RevokeRefreshToken(req.RefreshToken); err != nil {
				log.Printf("⚠️ Could not revoke refresh token on logout: %v", err)
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Logged out successfully",
		})
	}
}
