package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/devconnector/internal/application"
	"github.com/oksasatya/devconnector/internal/infrastructure/github"
	"github.com/oksasatya/devconnector/internal/interface/middleware"
	"github.com/oksasatya/devconnector/pkg/response"
	"github.com/oksasatya/devconnector/pkg/validation"
)

// ProfileHandler serves the profile aggregate: upsert, directory reads, the
// experience/education lists, cascade delete and the github lookup.
type ProfileHandler struct {
	Profiles *application.ProfileService
	Github   *github.Client
	Logger   *logrus.Logger
}

func NewProfileHandler(profiles *application.ProfileService, gh *github.Client, logger *logrus.Logger) *ProfileHandler {
	return &ProfileHandler{Profiles: profiles, Github: gh, Logger: logger}
}

type upsertProfileRequest struct {
	Company        string `json:"company"`
	Website        string `json:"website"`
	Location       string `json:"location"`
	Bio            string `json:"bio"`
	Status         string `json:"status" binding:"required"`
	GithubUsername string `json:"githubusername"`
	Skills         string `json:"skills" binding:"required"`
	Youtube        string `json:"youtube"`
	Twitter        string `json:"twitter"`
	Facebook       string `json:"facebook"`
	Linkedin       string `json:"linkedin"`
	Instagram      string `json:"instagram"`
}

// Me returns the caller's own profile.
func (h *ProfileHandler) Me(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	p, err := h.Profiles.GetByOwner(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, application.ErrProfileNotFound) {
			response.Msg(c, http.StatusBadRequest, "There is no profile for this user")
			return
		}
		h.Logger.WithError(err).Error("profile me failed")
		response.ServerError(c)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Upsert creates or merges the caller's profile in one idempotent call.
func (h *ProfileHandler) Upsert(c *gin.Context) {
	var req upsertProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Errors(c, http.StatusBadRequest, validation.ToFieldErrors(err)...)
		return
	}

	uid := c.GetString(middleware.CtxUserIDKey)
	p, err := h.Profiles.Upsert(c.Request.Context(), uid, application.ProfileInput{
		Company:        req.Company,
		Website:        req.Website,
		Location:       req.Location,
		Bio:            req.Bio,
		Status:         req.Status,
		GithubUsername: req.GithubUsername,
		Skills:         req.Skills,
		Youtube:        req.Youtube,
		Twitter:        req.Twitter,
		Facebook:       req.Facebook,
		Linkedin:       req.Linkedin,
		Instagram:      req.Instagram,
	})
	if err != nil {
		h.Logger.WithError(err).Error("profile upsert failed")
		response.ServerError(c)
		return
	}
	c.JSON(http.StatusOK, p)
}

// List is the public directory of all profiles.
func (h *ProfileHandler) List(c *gin.Context) {
	all, err := h.Profiles.ListAll(c.Request.Context())
	if err != nil {
		h.Logger.WithError(err).Error("profile list failed")
		response.ServerError(c)
		return
	}
	c.JSON(http.StatusOK, all)
}

// ByUser returns any user's profile by owner id.
func (h *ProfileHandler) ByUser(c *gin.Context) {
	p, err := h.Profiles.GetByOwner(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		if errors.Is(err, application.ErrProfileNotFound) {
			response.Msg(c, http.StatusBadRequest, "Profile not found")
			return
		}
		h.Logger.WithError(err).Error("profile by user failed")
		response.ServerError(c)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Search queries the profile index.
func (h *ProfileHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error(c, http.StatusBadRequest, "Query is required")
		return
	}
	hits, err := h.Profiles.Search(c.Request.Context(), q, 10)
	if err != nil {
		h.Logger.WithError(err).Error("profile search failed")
		response.ServerError(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": hits})
}

// Delete removes the caller's profile and identity together.
func (h *ProfileHandler) Delete(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	if err := h.Profiles.DeleteOwnerCascade(c.Request.Context(), uid); err != nil {
		h.Logger.WithError(err).Error("cascade delete failed")
		response.ServerError(c)
		return
	}
	response.Msg(c, http.StatusOK, "User deleted")
}

type experienceRequest struct {
	Title       string `json:"title" binding:"required"`
	Company     string `json:"company" binding:"required"`
	Location    string `json:"location"`
	From        string `json:"from" binding:"required"`
	To          string `json:"to"`
	Current     bool   `json:"current"`
	Description string `json:"description"`
}

// AddExperience prepends an entry to the caller's experience list.
func (h *ProfileHandler) AddExperience(c *gin.Context) {
	var req experienceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Errors(c, http.StatusBadRequest, validation.ToFieldErrors(err)...)
		return
	}

	uid := c.GetString(middleware.CtxUserIDKey)
	p, err := h.Profiles.AddExperience(c.Request.Context(), uid, application.ExperienceInput{
		Title:       req.Title,
		Company:     req.Company,
		Location:    req.Location,
		From:        req.From,
		To:          req.To,
		Current:     req.Current,
		Description: req.Description,
	})
	if err != nil {
		if errors.Is(err, application.ErrProfileNotFound) {
			response.Msg(c, http.StatusBadRequest, "There is no profile for this user")
			return
		}
		h.Logger.WithError(err).Error("add experience failed")
		response.ServerError(c)
		return
	}
	c.JSON(http.StatusOK, p)
}

// RemoveExperience deletes one entry by id, leaving the rest in order.
func (h *ProfileHandler) RemoveExperience(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	p, err := h.Profiles.RemoveExperience(c.Request.Context(), uid, c.Param("exp_id"))
	if err != nil {
		if errors.Is(err, application.ErrEntryNotFound) {
			response.Msg(c, http.StatusNotFound, "Experience not found")
			return
		}
		h.Logger.WithError(err).Error("remove experience failed")
		response.ServerError(c)
		return
	}
	c.JSON(http.StatusOK, p)
}

type educationRequest struct {
	School       string `json:"school" binding:"required"`
	Degree       string `json:"degree" binding:"required"`
	FieldOfStudy string `json:"fieldofstudy" binding:"required"`
	From         string `json:"from" binding:"required"`
	To           string `json:"to"`
	Current      bool   `json:"current"`
	Description  string `json:"description"`
}

// AddEducation prepends an entry to the caller's education list.
func (h *ProfileHandler) AddEducation(c *gin.Context) {
	var req educationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Errors(c, http.StatusBadRequest, validation.ToFieldErrors(err)...)
		return
	}

	uid := c.GetString(middleware.CtxUserIDKey)
	p, err := h.Profiles.AddEducation(c.Request.Context(), uid, application.EducationInput{
		School:       req.School,
		Degree:       req.Degree,
		FieldOfStudy: req.FieldOfStudy,
		From:         req.From,
		To:           req.To,
		Current:      req.Current,
		Description:  req.Description,
	})
	if err != nil {
		if errors.Is(err, application.ErrProfileNotFound) {
			response.Msg(c, http.StatusBadRequest, "There is no profile for this user")
			return
		}
		h.Logger.WithError(err).Error("add education failed")
		response.ServerError(c)
		return
	}
	c.JSON(http.StatusOK, p)
}

// RemoveEducation deletes one entry by id.
func (h *ProfileHandler) RemoveEducation(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	p, err := h.Profiles.RemoveEducation(c.Request.Context(), uid, c.Param("edu_id"))
	if err != nil {
		if errors.Is(err, application.ErrEntryNotFound) {
			response.Msg(c, http.StatusNotFound, "Education not found")
			return
		}
		h.Logger.WithError(err).Error("remove education failed")
		response.ServerError(c)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GithubRepos lists a user's five most recent public repositories. Every
// upstream failure collapses into the same not-found reply.
func (h *ProfileHandler) GithubRepos(c *gin.Context) {
	repos, err := h.Github.Repos(c.Request.Context(), c.Param("username"))
	if err != nil {
		if errors.Is(err, github.ErrNotFound) {
			response.Msg(c, http.StatusNotFound, "No Github profile found")
			return
		}
		h.Logger.WithError(err).Error("github lookup failed")
		response.ServerError(c)
		return
	}
	c.JSON(http.StatusOK, repos)
}
