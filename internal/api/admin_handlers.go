package api

import (
	"time"

	driversvc "f1-penca/internal/service/driver"
	racesvc "f1-penca/internal/service/race"
	"f1-penca/pkg/response"

	"github.com/gin-gonic/gin"
)

type adminLoginBody struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type raceMutationBody struct {
	Season        int       `json:"season" binding:"required,min=1"`
	Round         *int      `json:"round" binding:"omitempty,min=1"`
	Name          string    `json:"name" binding:"required"`
	Circuit       string    `json:"circuit" binding:"required"`
	Country       string    `json:"country" binding:"required"`
	Date          time.Time `json:"date"`
	BettingCutoff time.Time `json:"betting_cutoff"`
	FlagImage     string    `json:"flag_image"`
	Status        string    `json:"status" binding:"omitempty,oneof=upcoming active completed"`
}

func (b raceMutationBody) toParams() racesvc.MutationParams {
	return racesvc.MutationParams{
		Season:        b.Season,
		Round:         b.Round,
		Name:          b.Name,
		Circuit:       b.Circuit,
		Country:       b.Country,
		Date:          b.Date,
		BettingCutoff: b.BettingCutoff,
		FlagImage:     b.FlagImage,
		Status:        b.Status,
	}
}

type driverMutationBody struct {
	Name   string `json:"name" binding:"required"`
	Team   string `json:"team" binding:"required"`
	Number *int   `json:"number" binding:"omitempty,min=1"`
	Image  string `json:"image"`
	Active *bool  `json:"active"`
}

func (b driverMutationBody) toParams() driversvc.MutationParams {
	active := true
	if b.Active != nil {
		active = *b.Active
	}
	return driversvc.MutationParams{
		Name:   b.Name,
		Team:   b.Team,
		Number: b.Number,
		Image:  b.Image,
		Active: active,
	}
}

type driverMappingBody struct {
	ProviderDriverID string `json:"provider_driver_id" binding:"required"`
}

func (h *Handler) AdminLogin(c *gin.Context) {
	var body adminLoginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err.Error())
		return
	}

	resp, err := h.services.Admin.Login(c.Request.Context(), body.Username, body.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, resp)
}

func (h *Handler) AdminCreateRace(c *gin.Context) {
	var body raceMutationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err.Error())
		return
	}
	race, err := h.services.Race.CreateRace(c.Request.Context(), body.toParams())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, race, "race created")
}

func (h *Handler) AdminUpdateRace(c *gin.Context) {
	raceID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var body raceMutationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err.Error())
		return
	}
	race, err := h.services.Race.UpdateRace(c.Request.Context(), raceID, body.toParams())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, race)
}

func (h *Handler) AdminSettleRace(c *gin.Context) {
	raceID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	report, err := h.services.Settlement.SettleRace(c.Request.Context(), raceID)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.services.Race.MarkCompleted(c.Request.Context(), []int64{raceID}); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, report)
}

func (h *Handler) AdminCreateDriver(c *gin.Context) {
	var body driverMutationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err.Error())
		return
	}
	driver, err := h.services.Driver.Create(c.Request.Context(), body.toParams())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, driver, "driver created")
}

func (h *Handler) AdminUpdateDriver(c *gin.Context) {
	driverID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var body driverMutationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err.Error())
		return
	}
	driver, err := h.services.Driver.Update(c.Request.Context(), driverID, body.toParams())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, driver)
}

func (h *Handler) AdminMapDriver(c *gin.Context) {
	driverID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var body driverMappingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, err.Error())
		return
	}
	mapping, err := h.services.Driver.Map(c.Request.Context(), driverID, body.ProviderDriverID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, mapping)
}

func (h *Handler) AdminSync(c *gin.Context) {
	summary, err := h.services.Sync.Sync(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, summary)
}

func (h *Handler) AdminLastSync(c *gin.Context) {
	run, err := h.services.Sync.LastRun(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, run)
}
