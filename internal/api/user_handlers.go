package api

import (
	"strconv"

	authsvc "f1-penca/internal/service/auth"
	usersvc "f1-penca/internal/service/user"
	"f1-penca/pkg/response"

	"github.com/gin-gonic/gin"
)

type registerBody struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginBody struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type updatePasswordBody struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

type updateProfileBody struct {
	Username *string `json:"username"`
}

type createBetBody struct {
	RaceID   int64 `json:"race_id" binding:"required,min=1"`
	DriverID int64 `json:"driver_id" binding:"required,min=1"`
}

func (h *Handler) Register(c *gin.Context) {
	var body registerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err.Error())
		return
	}
	result, err := h.services.Auth.Register(c.Request.Context(), authsvc.RegisterRequest{
		Username: body.Username,
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, result, "user registered")
}

func (h *Handler) Login(c *gin.Context) {
	var body loginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err.Error())
		return
	}
	result, err := h.services.Auth.Login(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *Handler) Me(c *gin.Context) {
	user, err := h.services.User.GetProfile(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, user)
}

func (h *Handler) UpdatePassword(c *gin.Context) {
	var body updatePasswordBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.services.Auth.UpdatePassword(c.Request.Context(), currentUserID(c), body.CurrentPassword, body.NewPassword); err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMsg(c, gin.H{}, "password updated")
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var body updateProfileBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err.Error())
		return
	}
	user, err := h.services.User.UpdateProfile(c.Request.Context(), currentUserID(c), usersvc.UpdateProfileRequest{
		Username: body.Username,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, user)
}

func (h *Handler) UpcomingRaces(c *gin.Context) {
	races, err := h.services.Race.ListUpcoming(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, races)
}

func (h *Handler) GetRace(c *gin.Context) {
	raceID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	race, err := h.services.Race.Get(c.Request.Context(), currentUserID(c), raceID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, race)
}

func (h *Handler) RaceResults(c *gin.Context) {
	raceID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	results, err := h.services.Race.Results(c.Request.Context(), raceID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, results)
}

// CheckResults runs the synchronizer on demand.
func (h *Handler) CheckResults(c *gin.Context) {
	summary, err := h.services.Sync.Sync(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.SuccessWithMsg(c, summary, "results synchronized")
}

func (h *Handler) CreateBet(c *gin.Context) {
	var body createBetBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err.Error())
		return
	}
	placed, err := h.services.Bet.PlaceBet(c.Request.Context(), currentUserID(c), body.RaceID, body.DriverID)
	if err != nil {
		writeBetError(c, err)
		return
	}
	response.Created(c, placed, "bet placed")
}

func (h *Handler) UserBets(c *gin.Context) {
	bets, err := h.services.Bet.ListForUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, bets)
}

func (h *Handler) ListDrivers(c *gin.Context) {
	drivers, err := h.services.Driver.ListActive(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, drivers)
}

func (h *Handler) Leaderboard(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			badRequest(c, "invalid limit")
			return
		}
		limit = v
	}
	entries, err := h.services.User.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, entries)
}
