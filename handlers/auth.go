package handlers

import (
	"net/http"
	"strconv"

	"stockit/errs"
	"stockit/service"

	"github.com/gin-gonic/gin"
)

type signUpRequest struct {
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *Handler) signUp(c *gin.Context) {
	const op = "handlers.signUp"

	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, op, errs.Wrap(errs.ErrValidation, "All fields are required", err))
		return
	}

	res, err := h.auth.SignUp(c.Request.Context(), service.SignUpInput{
		FullName:        req.FullName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		h.respondError(c, op, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":          true,
		"message":          "User created successfully",
		"access_token":     res.Tokens.AccessToken,
		"refresh_token":    res.Tokens.RefreshToken,
		"user_id":          strconv.FormatUint(uint64(res.User.ID), 10),
		"user_email":       res.User.Email,
		"user_fullName":    res.User.FullName,
		"starting_balance": res.Wallet.Balance,
		"timestamp":        h.timestamp(),
	})
}

func (h *Handler) signIn(c *gin.Context) {
	const op = "handlers.signIn"

	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, op, errs.Wrap(errs.ErrValidation, "Email and password are required", err))
		return
	}

	res, err := h.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, op, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       "Login successful",
		"access_token":  res.Tokens.AccessToken,
		"refresh_token": res.Tokens.RefreshToken,
		"user_id":       strconv.FormatUint(uint64(res.User.ID), 10),
		"user_email":    res.User.Email,
		"user_fullName": res.User.FullName,
		"timestamp":     h.timestamp(),
	})
}

func (h *Handler) refresh(c *gin.Context) {
	const op = "handlers.refresh"

	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, op, errs.Wrap(errs.ErrValidation, "Refresh token is required", err))
		return
	}

	tokens, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.respondError(c, op, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"timestamp":     h.timestamp(),
	})
}

func (h *Handler) logout(c *gin.Context) {
	const op = "handlers.logout"

	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, op, errs.Wrap(errs.ErrValidation, "Refresh token is required", err))
		return
	}

	revoked, err := h.auth.Logout(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.respondError(c, op, err)
		return
	}

	message := "Logged out successfully"
	if !revoked {
		message = "Sessions are stateless, the refresh token stays valid until it expires"
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"revoked":   revoked,
		"message":   message,
		"timestamp": h.timestamp(),
	})
}
