package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-account-service/internal/application"
	"github.com/oksasatya/user-account-service/internal/domain/entity"
	"github.com/oksasatya/user-account-service/internal/interface/middleware"
	"github.com/oksasatya/user-account-service/pkg/response"
	"github.com/oksasatya/user-account-service/pkg/validation"
)

type UserHandler struct {
	Users  *application.UserService
	Logger *logrus.Logger
}

func NewUserHandler(users *application.UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Users: users, Logger: logger}
}

type updateUserRequest struct {
	Email       *string `json:"email" binding:"omitempty,email"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	DateOfBirth *string `json:"date_of_birth" binding:"omitempty,datetime=2006-01-02"`
	Gender      *string `json:"gender" binding:"omitempty,gender"`
	Phone       *string `json:"phone" binding:"omitempty,phone"`
}

type listUsersQuery struct {
	Page      int    `form:"page,default=1" binding:"min=1"`
	Limit     int    `form:"limit,default=10" binding:"min=1,max=100"`
	Search    string `form:"search"`
	IsActive  *bool  `form:"is_active"`
	Gender    string `form:"gender" binding:"omitempty,gender"`
	SortBy    string `form:"sort_by,default=created_at" binding:"omitempty,sortfield"`
	SortOrder string `form:"sort_order,default=desc" binding:"omitempty,oneof=asc desc"`
}

// Me GET /api/users/me (auth required)
func (h *UserHandler) Me(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	u, err := h.Users.GetUser(c.Request.Context(), uid)
	if err != nil {
		status, msg := statusFor(err)
		response.Error(c, status, msg, nil)
		return
	}
	response.Success(c, http.StatusOK, u, "profile", nil)
}

// Get GET /api/users/:id (auth + ownership)
func (h *UserHandler) Get(c *gin.Context) {
	u, err := h.Users.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		status, msg := statusFor(err)
		response.Error(c, status, msg, nil)
		return
	}
	response.Success(c, http.StatusOK, u, "user", nil)
}

// Update PUT /api/users/:id (auth + ownership)
func (h *UserHandler) Update(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	in := entity.UserUpdate{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	}
	if req.DateOfBirth != nil {
		dob, err := time.Parse("2006-01-02", *req.DateOfBirth)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "invalid payload", map[string]string{"date_of_birth": "must be a valid date"})
			return
		}
		in.DateOfBirth = &dob
	}
	if req.Gender != nil {
		g := entity.Gender(*req.Gender)
		in.Gender = &g
	}

	u, err := h.Users.UpdateUser(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		status, msg := statusFor(err)
		response.Error(c, status, msg, nil)
		return
	}
	response.Success(c, http.StatusOK, u, "profile updated", nil)
}

// Delete DELETE /api/users/:id (auth + ownership)
// Soft delete: the record is deactivated, not erased.
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.Users.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		status, msg := statusFor(err)
		response.Error(c, status, msg, nil)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "account deactivated", nil)
}

// List GET /api/users (auth required)
func (h *UserHandler) List(c *gin.Context) {
	var q listUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid query", validation.ToDetails(err))
		return
	}
	f := entity.ListFilter{
		Page:      q.Page,
		Limit:     q.Limit,
		Search:    q.Search,
		IsActive:  q.IsActive,
		Gender:    entity.Gender(q.Gender),
		SortBy:    entity.SortField(q.SortBy),
		SortOrder: q.SortOrder,
	}
	res, err := h.Users.ListUsers(c.Request.Context(), f)
	if err != nil {
		status, msg := statusFor(err)
		response.Error(c, status, msg, nil)
		return
	}
	response.Success(c, http.StatusOK, res.Users, "users", gin.H{
		"page":        res.Page,
		"limit":       res.Limit,
		"total":       res.Total,
		"total_pages": res.TotalPages,
	})
}

// Stats GET /api/users/stats (auth required)
func (h *UserHandler) Stats(c *gin.Context) {
	stats, err := h.Users.GetUserStats(c.Request.Context())
	if err != nil {
		status, msg := statusFor(err)
		response.Error(c, status, msg, nil)
		return
	}
	response.Success(c, http.StatusOK, stats, "user stats", nil)
}
