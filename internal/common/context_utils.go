package common

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserIDKey contextKey = "user_id"
	OrgIDKey  contextKey = "org_id"
	RoleKey   contextKey = "role"
)

// Principal is the identity supplied by the identity/session provider for
// every request.
type Principal struct {
	UserID uuid.UUID
	OrgID  uuid.UUID
	Role   string
}

// GetUserIDFromContext extracts the user ID from the request context.
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}

// GetOrgIDFromContext extracts the organization ID from the request context.
func GetOrgIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	orgID, ok := ctx.Value(OrgIDKey).(uuid.UUID)
	return orgID, ok
}

// GetRoleFromContext extracts the caller role from the request context.
func GetRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(RoleKey).(string)
	return role, ok
}

// GetPrincipalFromContext assembles the full principal, failing if any part
// of the identity is missing.
func GetPrincipalFromContext(ctx context.Context) (Principal, bool) {
	userID, ok := GetUserIDFromContext(ctx)
	if !ok {
		return Principal{}, false
	}
	orgID, ok := GetOrgIDFromContext(ctx)
	if !ok {
		return Principal{}, false
	}
	role, ok := GetRoleFromContext(ctx)
	if !ok {
		return Principal{}, false
	}
	return Principal{UserID: userID, OrgID: orgID, Role: role}, true
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// CreateErrorResponse creates a standardized error response
func CreateErrorResponse(code string, message string, details map[string]string) *ErrorResponse {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.Details = details
	return &resp
}

// RespondError writes an error response using the domain taxonomy: the kind
// becomes the code and the status, the message stays human-readable.
func RespondError(c echo.Context, err error) error {
	kind := KindOf(err)
	return c.JSON(HTTPStatus(kind), CreateErrorResponse(string(kind), MessageOf(err), nil))
}

// SendClientError sends a bad request error response
func SendClientError(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, CreateErrorResponse(string(KindBadRequest), message, nil))
}

// SendUnauthorizedError sends an unauthorized error response
func SendUnauthorizedError(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, CreateErrorResponse(string(KindUnauthorized), "Unauthorized access", nil))
}

// ValidateUUID validates UUID format
func ValidateUUID(idStr string, fieldName string) (uuid.UUID, error) {
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		return uuid.Nil, Errorf(KindBadRequest, "%s is required", fieldName)
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.Nil, Errorf(KindBadRequest, "%s is not a valid UUID", fieldName)
	}
	return id, nil
}

// SafeString safely handles string pointer operations
func SafeString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// TrimmedOrNil trims a string and normalizes empty-after-trim to nil.
func TrimmedOrNil(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
