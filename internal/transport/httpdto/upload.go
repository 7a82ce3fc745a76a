package httpdto

// CreateUploadRequest is used for POST /v1/rooms/:id/uploads
type CreateUploadRequest struct {
	ContentType string `json:"content_type" binding:"required"`
	FileSize    int64  `json:"file_size" binding:"required"`
}
