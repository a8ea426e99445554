package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	profileUC "github.com/khoahotran/devconnector/internal/application/usecase/profile"
	"github.com/khoahotran/devconnector/pkg/apperror"
	"github.com/khoahotran/devconnector/pkg/validation"
)

const (
	msgNoProfile       = "There is no profile for this user"
	msgProfileNotFound = "Profile not found"
	msgUserDeleted     = "User deleted"
)

type ProfileHandler struct {
	profileUseCase *profileUC.ProfileUseCase
	validator      *validation.StructValidator
}

func NewProfileHandler(uc *profileUC.ProfileUseCase, v *validation.StructValidator) *ProfileHandler {
	return &ProfileHandler{
		profileUseCase: uc,
		validator:      v,
	}
}

// bind decodes and validates the JSON body. It reports whether the handler may go on.
func (h *ProfileHandler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.Error(apperror.NewInvalidInput("invalid JSON body", err).WithMessage("Invalid request body"))
		return false
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		c.Error(err)
		return false
	}
	return true
}

func (h *ProfileHandler) GetMyProfile(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewPermissionDenied("userID not found in context"))
		return
	}

	output, err := h.profileUseCase.ExecuteGetProfile(c.Request.Context(), profileUC.GetProfileInput{UserID: userID})
	if err != nil {
		c.Error(apperror.NotFoundAs(err, http.StatusBadRequest, msgNoProfile))
		return
	}
	c.JSON(http.StatusOK, ToProfileDTO(output.View))
}

func (h *ProfileHandler) UpsertProfile(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewPermissionDenied("userID not found in context"))
		return
	}

	var req UpsertProfileRequest
	if !h.bind(c, &req) {
		return
	}

	output, err := h.profileUseCase.ExecuteUpsertProfile(c.Request.Context(), profileUC.UpsertProfileInput{
		UserID: userID,
		Fields: req.ToFields(),
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToProfileDTO(output.View))
}

func (h *ProfileHandler) ListProfiles(c *gin.Context) {
	output, err := h.profileUseCase.ExecuteListProfiles(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToProfileDTOs(output.Views))
}

func (h *ProfileHandler) GetProfileByUser(c *gin.Context) {
	output, err := h.profileUseCase.ExecuteGetProfileByUser(c.Request.Context(), profileUC.GetProfileByUserInput{
		RawUserID: c.Param("user_id"),
	})
	if err != nil {
		// A malformed id reads the same as an unknown one.
		var appErr *apperror.AppError
		if errors.Is(err, apperror.ErrInvalidInput) && errors.As(err, &appErr) {
			err = appErr.WithMessage(msgProfileNotFound)
		}
		c.Error(apperror.NotFoundAs(err, http.StatusBadRequest, msgProfileNotFound))
		return
	}
	c.JSON(http.StatusOK, ToProfileDTO(output.View))
}

func (h *ProfileHandler) DeleteAccount(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewPermissionDenied("userID not found in context"))
		return
	}

	if _, err := h.profileUseCase.ExecuteDeleteAccount(c.Request.Context(), profileUC.DeleteAccountInput{UserID: userID}); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": msgUserDeleted})
}

func (h *ProfileHandler) AddExperience(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewPermissionDenied("userID not found in context"))
		return
	}

	var req ExperienceRequest
	if !h.bind(c, &req) {
		return
	}

	output, err := h.profileUseCase.ExecuteAddExperience(c.Request.Context(), profileUC.AddExperienceInput{
		UserID:     userID,
		Experience: req.ToDomain(),
	})
	if err != nil {
		c.Error(apperror.NotFoundAs(err, http.StatusBadRequest, msgNoProfile))
		return
	}
	c.JSON(http.StatusOK, ToProfileDTO(output.View))
}

func (h *ProfileHandler) RemoveExperience(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewPermissionDenied("userID not found in context"))
		return
	}

	output, err := h.profileUseCase.ExecuteRemoveExperience(c.Request.Context(), profileUC.RemoveEntryInput{
		UserID:  userID,
		EntryID: c.Param("exp_id"),
	})
	if err != nil {
		c.Error(apperror.NotFoundAs(err, http.StatusBadRequest, msgNoProfile))
		return
	}
	c.JSON(http.StatusOK, ToProfileDTO(output.View))
}

func (h *ProfileHandler) AddEducation(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewPermissionDenied("userID not found in context"))
		return
	}

	var req EducationRequest
	if !h.bind(c, &req) {
		return
	}

	output, err := h.profileUseCase.ExecuteAddEducation(c.Request.Context(), profileUC.AddEducationInput{
		UserID:    userID,
		Education: req.ToDomain(),
	})
	if err != nil {
		c.Error(apperror.NotFoundAs(err, http.StatusBadRequest, msgNoProfile))
		return
	}
	c.JSON(http.StatusOK, ToProfileDTO(output.View))
}

func (h *ProfileHandler) RemoveEducation(c *gin.Context) {
	userID, ok := GetUserIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewPermissionDenied("userID not found in context"))
		return
	}

	output, err := h.profileUseCase.ExecuteRemoveEducation(c.Request.Context(), profileUC.RemoveEntryInput{
		UserID:  userID,
		EntryID: c.Param("edu_id"),
	})
	if err != nil {
		c.Error(apperror.NotFoundAs(err, http.StatusBadRequest, msgNoProfile))
		return
	}
	c.JSON(http.StatusOK, ToProfileDTO(output.View))
}
