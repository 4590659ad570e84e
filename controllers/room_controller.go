package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/textbin/rooms_backend/cache"
	"github.com/textbin/rooms_backend/metrics"
	"github.com/textbin/rooms_backend/models"
	"github.com/textbin/rooms_backend/retention"
)

type RoomController struct {
	DB    *gorm.DB
	Cache *cache.Cache
}

func NewRoomController(db *gorm.DB, c *cache.Cache) *RoomController {
	return &RoomController{DB: db, Cache: c}
}

type CreateRoomInput struct {
	Topic string `json:"topic" binding:"required" example:"Project Ideas"`
}

// GetRooms godoc
// @Summary List recent rooms
// @Description Returns the most recently created rooms, newest first
// @Tags rooms
// @Accept json
// @Produce json
// @Param limit query int false "Maximum number of rooms to return (default 20)"
// @Success 200 {object} map[string]interface{} "List of rooms"
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/rooms [get]
func (rc *RoomController) GetRooms(c *gin.Context) {
	limit := retention.RoomCeiling
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n < limit {
			limit = n
		}
	}

	ctx := c.Request.Context()
	if rooms, ok := rc.Cache.GetRoomList(ctx, limit); ok {
		c.JSON(http.StatusOK, gin.H{"rooms": rooms})
		return
	}

	var rooms []models.Room
	if err := rc.DB.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&rooms).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch rooms"})
		return
	}

	rc.Cache.SetRoomList(ctx, limit, rooms)
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// GetRoomByTopic godoc
// @Summary Get a room by its topic
// @Description Resolves a room from its unique topic
// @Tags rooms
// @Accept json
// @Produce json
// @Param topic path string true "Room topic"
// @Success 200 {object} map[string]interface{} "Room details"
// @Failure 404 {object} map[string]string "Room not found"
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/rooms/topic/{topic} [get]
func (rc *RoomController) GetRoomByTopic(c *gin.Context) {
	topic := c.Param("topic")

	var room models.Room
	if err := rc.DB.WithContext(c.Request.Context()).Where("topic = ?", topic).First(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch room"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"room": room})
}

// CreateRoom godoc
// @Summary Create a new room
// @Description Creates a room for the given topic, evicting the oldest rooms when the global capacity is reached. Creating an existing topic resolves to that room.
// @Tags rooms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param room body CreateRoomInput true "Room Creation"
// @Success 200 {object} map[string]interface{} "Topic already exists, existing room returned"
// @Success 201 {object} map[string]interface{} "Room created successfully"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/rooms [post]
func (rc *RoomController) CreateRoom(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	var input CreateRoomInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	topic := strings.TrimSpace(input.Topic)
	if topic == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Topic is required"})
		return
	}

	ctx := c.Request.Context()
	db := rc.DB.WithContext(ctx)

	// The global room count is load-bearing; a failed count aborts the
	// creation instead of risking unbounded growth.
	if err := retention.EnsureRoomCapacity(db); err != nil {
		log.Error().Err(err).Msg("failed to count rooms")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count rooms"})
		return
	}

	room := models.Room{
		Topic:   topic,
		OwnerID: &userID,
	}

	if err := db.Create(&room).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent creator won the topic. Route the caller to the
			// existing room instead of failing.
			var existing models.Room
			if err := db.Where("topic = ?", topic).First(&existing).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch room"})
				return
			}
			metrics.DuplicateTopics.Inc()
			rc.Cache.InvalidateRoomList(ctx)
			c.JSON(http.StatusOK, gin.H{
				"message": "Room already exists",
				"room":    existing,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create room"})
		return
	}

	metrics.RoomsCreated.Inc()
	rc.Cache.InvalidateRoomList(ctx)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Room created successfully",
		"room":    room,
	})
}
