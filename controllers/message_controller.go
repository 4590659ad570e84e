package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/textbin/rooms_backend/metrics"
	"github.com/textbin/rooms_backend/models"
	"github.com/textbin/rooms_backend/retention"
	"github.com/textbin/rooms_backend/storage"
	"github.com/textbin/rooms_backend/utils"
)

type MessageController struct {
	DB    *gorm.DB
	Blobs storage.BlobStore
}

func NewMessageController(db *gorm.DB, blobs storage.BlobStore) *MessageController {
	return &MessageController{DB: db, Blobs: blobs}
}

// GetMessages godoc
// @Summary Get messages for a room
// @Description Returns the room's messages with id greater than the given watermark, oldest first. Poll with the highest id seen so far to fetch only new messages.
// @Tags messages
// @Accept json
// @Produce json
// @Param id path string true "Room ID"
// @Param after query int false "Only return messages with id greater than this (default 0)"
// @Success 200 {object} map[string]interface{} "List of messages"
// @Failure 400 {object} map[string]string "Invalid room ID"
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/rooms/{id}/messages [get]
func (mc *MessageController) GetMessages(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room ID"})
		return
	}

	after, err := strconv.ParseUint(c.DefaultQuery("after", "0"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid watermark"})
		return
	}

	var messages []models.Message
	if err := mc.DB.WithContext(c.Request.Context()).
		Where("room_id = ? AND id > ?", roomID, after).
		Order("created_at ASC, id ASC").
		Find(&messages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// CreateMessage godoc
// @Summary Send a message to a room
// @Description Stores a message with optional file attachment, evicting the room's oldest messages (and their files) when the per-room capacity is reached. A request with neither content nor file is a no-op.
// @Tags messages
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param id path string true "Room ID"
// @Param content formData string false "Message content (markdown)"
// @Param file formData file false "File attachment"
// @Success 201 {object} map[string]interface{} "Message sent successfully"
// @Success 204 "Empty message, nothing stored"
// @Failure 400 {object} map[string]string "Invalid room ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Room not found"
// @Failure 500 {object} map[string]string "Server error"
// @Router /api/rooms/{id}/messages [post]
func (mc *MessageController) CreateMessage(c *gin.Context) {
	userID := c.MustGet("userID").(uint)

	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room ID"})
		return
	}

	ctx := c.Request.Context()
	db := mc.DB.WithContext(ctx)

	var room models.Room
	if err := db.First(&room, "id = ?", roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch room"})
		return
	}

	content := c.PostForm("content")
	fileHeader, fileErr := c.FormFile("file")
	hasFile := fileErr == nil && fileHeader != nil && fileHeader.Size > 0

	if strings.TrimSpace(content) == "" && !hasFile {
		// Nothing to store; the client treats this as a silent no-op.
		c.Status(http.StatusNoContent)
		return
	}

	var fileURL, filePath *string
	if hasFile {
		if mc.Blobs == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "File storage is not configured"})
			return
		}

		f, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
			return
		}
		defer f.Close()

		contentType := fileHeader.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		key := utils.ObjectKey(userID, roomID.String(), fileHeader.Filename)
		if err := mc.Blobs.Upload(ctx, key, f, fileHeader.Size, contentType); err != nil {
			log.Error().Err(err).Str("key", key).Msg("failed to upload file")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload file"})
			return
		}

		url := mc.Blobs.PublicURL(key)
		fileURL = &url
		filePath = &key
	}

	// The upload above already happened, so the new blob is never a
	// candidate for this round's eviction.
	if err := retention.EnsureMessageCapacity(ctx, db, roomID, mc.Blobs); err != nil {
		// Availability over strict capacity: a failed count never blocks
		// the send. The ceiling catches up on a later write.
		log.Error().Err(err).Stringer("room_id", roomID).Msg("failed to count messages")
	}

	message := models.Message{
		RoomID:   roomID,
		Content:  content,
		FileURL:  fileURL,
		FilePath: filePath,
		OwnerID:  &userID,
	}

	if err := db.Create(&message).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	metrics.MessagesPosted.Inc()

	c.JSON(http.StatusCreated, gin.H{
		"message": "Message sent successfully",
		"data":    message,
	})
}
