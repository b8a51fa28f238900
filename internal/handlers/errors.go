package handlers

// Error codes
const (
	ErrCodeInternalError     = "INTERNAL_ERROR"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeInvalidJSON       = "INVALID_JSON"
	ErrCodeValidationErr     = "VALIDATION_ERROR"
	ErrCodeUnknownTemplate   = "UNKNOWN_TEMPLATE"
	ErrCodeUnknownPaperSize  = "UNKNOWN_PAPER_SIZE"
	ErrCodeImageUnavailable  = "IMAGE_UNAVAILABLE"
	ErrCodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	ErrCodeRenderFailed      = "RENDER_FAILED"
	ErrCodeTimeout           = "TIMEOUT"
	ErrCodeSerialUnavailable = "SERIAL_UNAVAILABLE"
	ErrCodePayloadTooLarge   = "PAYLOAD_TOO_LARGE"
	ErrCodeUnsupportedMedia  = "UNSUPPORTED_MEDIA_TYPE"
)

// Error messages used in HTTP handlers
const (
	MsgInternalServerError = "internal server error"
	MsgInvalidRequestBody  = "invalid request body"
	MsgValidationFailed    = "request validation failed"
	MsgRequestTooLarge     = "request body too large"
	MsgRenderTimeout       = "document rendering timed out"

	// Letterhead messages
	MsgInvalidMultipart = "invalid multipart form"
	MsgInvalidLogoField = "invalid logo upload"
	MsgUnsupportedMedia = "content type must be application/json or multipart/form-data"

	// Serial messages
	MsgSerialUnavailable = "serial number could not be allocated, retry later"
)
