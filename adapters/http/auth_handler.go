package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/khoahotran/devconnector/internal/application/usecase/auth"
	"github.com/khoahotran/devconnector/pkg/apperror"
	"github.com/khoahotran/devconnector/pkg/validation"
)

type AuthHandler struct {
	loginUseCase *auth.LoginUseCase
	validator    *validation.StructValidator
}

func NewAuthHandler(loginUC *auth.LoginUseCase, v *validation.StructValidator) *AuthHandler {
	return &AuthHandler{
		loginUseCase: loginUC,
		validator:    v,
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid JSON body for login", err))
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		c.Error(err)
		return
	}

	output, err := h.loginUseCase.Execute(c.Request.Context(), auth.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": output.AccessToken})
}
