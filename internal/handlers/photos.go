package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"photo-versions-backend/internal/middleware"
	"photo-versions-backend/internal/models"
	"photo-versions-backend/internal/services"
)

type PhotoHandler struct {
	service *services.PhotoService
}

func NewPhotoHandler(service *services.PhotoService) *PhotoHandler {
	return &PhotoHandler{service: service}
}

// Register mounts the photo routes. uploadLimit, when non-nil, guards the
// two routes that hand out write handles.
func (h *PhotoHandler) Register(group *gin.RouterGroup, uploadLimit gin.HandlerFunc) {
	writes := []gin.HandlerFunc{}
	if uploadLimit != nil {
		writes = append(writes, uploadLimit)
	}

	group.POST("/photos/upload", append(writes, h.RequestUpload)...)
	group.GET("/photos", h.ListPhotos)
	group.GET("/photos/:photo_id", h.RequestDownload)
	group.PUT("/photos/:photo_id/edit", append(writes, h.RequestEditUpload)...)
	group.POST("/photos/:photo_id/complete", h.ConfirmUpload)
	group.GET("/photos/:photo_id/metadata", h.GetMetadata)
	group.PATCH("/photos/:photo_id/metadata", h.UpdateAttributes)
	group.DELETE("/photos/:photo_id", h.DeletePhoto)
}

// RequestUpload godoc
// @Summary     Request an upload URL for a new photo
// @Description Registers a photo in pending_upload and returns a presigned PUT URL for the original.
// @Description Accepts image/jpeg files between 5 MiB and 20 MiB. expires_at is now plus PRESIGN_TTL;
// @Description with the Supabase blob backend the upload URL itself stays valid for the lifetime Supabase assigns.
// @Tags        photos
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.UploadRequest true "File to upload"
// @Success     200 {object} models.UploadResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     429 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /photos/upload [post]
func (h *PhotoHandler) RequestUpload(c *gin.Context) {
	var req models.UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	res, err := h.service.RequestUpload(c.Request.Context(), middleware.CallerID(c), services.UploadInput{
		Filename:    req.Filename,
		ContentType: req.ContentType,
		SizeBytes:   req.FileSize,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.uploadResponse(res, "Upload the file using the provided presigned URL"))
}

// RequestEditUpload godoc
// @Summary     Request an upload URL for an edited version
// @Description Returns a presigned PUT URL for the edited version of a photo. A later edit
// @Description overwrites the same key; previous_version names the key being replaced.
// @Description With the Supabase blob backend expires_at is advisory, as for the original upload.
// @Tags        photos
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       photo_id path string true "Photo ID"
// @Param       request body models.EditRequest true "Edited file"
// @Success     200 {object} models.UploadResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     429 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /photos/{photo_id}/edit [put]
func (h *PhotoHandler) RequestEditUpload(c *gin.Context) {
	var req models.EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	res, err := h.service.RequestEditUpload(c.Request.Context(), middleware.CallerID(c), c.Param("photo_id"), services.UploadInput{
		Filename:    req.Filename,
		ContentType: req.ContentType,
		SizeBytes:   req.FileSize,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	response := h.uploadResponse(res, "Upload the edited file using the provided presigned URL")
	if res.Photo.Edited != nil {
		response.EditCount = res.Photo.Edited.EditCount
	}
	if res.PreviousKey != "" {
		response.Note = "This will replace the previous edited version"
		response.PreviousVersion = res.PreviousKey
	}
	c.JSON(http.StatusOK, response)
}

func (h *PhotoHandler) uploadResponse(res *services.UploadResult, message string) models.UploadResponse {
	return models.UploadResponse{
		PhotoID:      res.Photo.ID,
		UploadURL:    res.Handle.URL,
		UploadMethod: res.Handle.Method,
		ExpiresIn:    int(h.service.PresignTTL().Seconds()),
		ExpiresAt:    res.Handle.ExpiresAt,
		S3Key:        res.BlobKey,
		Status:       string(res.Photo.Status),
		Message:      message,
	}
}

// RequestDownload godoc
// @Summary     Get a download URL
// @Description Returns a presigned GET URL for the original (default) or edited version.
// @Tags        photos
// @Produce     json
// @Security    Bearer
// @Param       photo_id path string true "Photo ID"
// @Param       version query string false "original or edited" default(original)
// @Success     200 {object} models.DownloadResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /photos/{photo_id} [get]
func (h *PhotoHandler) RequestDownload(c *gin.Context) {
	res, err := h.service.RequestDownload(c.Request.Context(), middleware.CallerID(c), c.Param("photo_id"), c.Query("version"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.DownloadResponse{
		PhotoID:     res.Photo.ID,
		VersionType: string(res.Version),
		DownloadURL: res.Handle.URL,
		ExpiresIn:   int(h.service.PresignTTL().Seconds()),
		ExpiresAt:   res.Handle.ExpiresAt,
		Metadata: models.VersionMetadata{
			Filename:    res.Info.Filename,
			ContentType: res.Info.ContentType,
			FileSize:    res.Info.SizeBytes,
			CreatedAt:   res.Photo.CreatedAt,
			UpdatedAt:   res.Photo.UpdatedAt,
		},
	})
}

// ListPhotos godoc
// @Summary     List photos
// @Description Lists the caller's photos, newest first. Pass the returned last_evaluated_key
// @Description as cursor to fetch the next page.
// @Tags        photos
// @Produce     json
// @Security    Bearer
// @Param       version_type query string false "original or edited"
// @Param       limit query int false "Page size, 1-100" default(50)
// @Param       cursor query string false "Pagination token"
// @Success     200 {object} models.PhotoListResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /photos [get]
func (h *PhotoHandler) ListPhotos(c *gin.Context) {
	in := services.ListInput{VersionType: c.Query("version_type")}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "limit must be an integer")
			return
		}
		in.Limit = limit
	}

	in.Cursor = c.Query("cursor")
	if in.Cursor == "" {
		in.Cursor = c.Query("last_evaluated_key")
	}

	res, err := h.service.ListPhotos(c.Request.Context(), middleware.CallerID(c), in)
	if err != nil {
		respondError(c, err)
		return
	}

	summaries := make([]models.PhotoSummary, 0, len(res.Photos))
	for _, p := range res.Photos {
		summaries = append(summaries, toSummary(p))
	}
	c.JSON(http.StatusOK, models.PhotoListResponse{
		Photos:           summaries,
		Count:            len(summaries),
		HasMore:          res.Cursor != "",
		LastEvaluatedKey: res.Cursor,
	})
}

func toSummary(p *models.Photo) models.PhotoSummary {
	return models.PhotoSummary{
		PhotoID:          p.ID,
		Filename:         p.Original.Filename,
		VersionType:      string(p.VersionType()),
		ContentType:      p.Original.ContentType,
		FileSize:         p.Original.SizeBytes,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
		HasEditedVersion: p.HasEditedVersion(),
		Status:           string(p.Status),
		Geolocation:      p.Attrs["geolocation"],
		Tags:             p.Attrs["tags"],
	}
}

// GetMetadata godoc
// @Summary     Get photo metadata
// @Description Returns the stored record for both versions. edited is null when no edit exists.
// @Tags        photos
// @Produce     json
// @Security    Bearer
// @Param       photo_id path string true "Photo ID"
// @Success     200 {object} models.MetadataResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /photos/{photo_id}/metadata [get]
func (h *PhotoHandler) GetMetadata(c *gin.Context) {
	photo, err := h.service.GetMetadata(c.Request.Context(), middleware.CallerID(c), c.Param("photo_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toMetadata(photo))
}

// UpdateAttributes godoc
// @Summary     Replace photo attributes
// @Description Replaces caller-defined attributes such as tags, description or geolocation.
// @Tags        photos
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       photo_id path string true "Photo ID"
// @Param       request body models.UpdateAttributesRequest true "Attributes"
// @Success     200 {object} models.MetadataResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /photos/{photo_id}/metadata [patch]
func (h *PhotoHandler) UpdateAttributes(c *gin.Context) {
	var req models.UpdateAttributesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}

	photo, err := h.service.UpdateAttributes(c.Request.Context(), middleware.CallerID(c), c.Param("photo_id"), req.Attributes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toMetadata(photo))
}

// ConfirmUpload godoc
// @Summary     Confirm an upload
// @Description Marks a pending photo as uploaded once the client has PUT the file.
// @Tags        photos
// @Produce     json
// @Security    Bearer
// @Param       photo_id path string true "Photo ID"
// @Success     200 {object} models.MetadataResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /photos/{photo_id}/complete [post]
func (h *PhotoHandler) ConfirmUpload(c *gin.Context) {
	photo, err := h.service.ConfirmUpload(c.Request.Context(), middleware.CallerID(c), c.Param("photo_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toMetadata(photo))
}

func toMetadata(p *models.Photo) models.MetadataResponse {
	response := models.MetadataResponse{
		PhotoID:          p.ID,
		UserID:           p.OwnerID,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
		Status:           string(p.Status),
		HasEditedVersion: p.HasEditedVersion(),
		Original: models.OriginalInfo{
			Filename:    p.Original.Filename,
			ContentType: p.Original.ContentType,
			FileSize:    p.Original.SizeBytes,
			S3Key:       p.Original.BlobKey,
			Bucket:      p.Original.BucketID,
		},
		Attributes: p.Attrs,
	}
	if e := p.Edited; e != nil {
		response.Edited = &models.EditedInfo{
			Filename:    e.Filename,
			ContentType: e.ContentType,
			FileSize:    e.SizeBytes,
			S3Key:       e.BlobKey,
			Bucket:      e.BucketID,
			EditCount:   e.EditCount,
		}
	}
	return response
}

// DeletePhoto godoc
// @Summary     Delete a photo
// @Description Deletes the original blob, the edited blob and the record. deleted_items lists
// @Description only blobs that existed and were removed.
// @Tags        photos
// @Produce     json
// @Security    Bearer
// @Param       photo_id path string true "Photo ID"
// @Success     200 {object} models.DeleteResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /photos/{photo_id} [delete]
func (h *PhotoHandler) DeletePhoto(c *gin.Context) {
	res, err := h.service.DeletePhoto(c.Request.Context(), middleware.CallerID(c), c.Param("photo_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.DeleteResponse{
		PhotoID:      res.PhotoID,
		Message:      "Photo and all versions deleted successfully",
		DeletedItems: res.Deleted,
	})
}
