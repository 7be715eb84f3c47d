package models

// Request models
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type CreateTabRequest struct {
	Name string `json:"name" binding:"required"`
}

// TabUpdate is one element of the bulk tab replace payload. OrderIndex is not
// accepted from the client; it is derived from the element's position.
type TabUpdate struct {
	ID   int64  `json:"id" binding:"required"`
	Name string `json:"name" binding:"required"`
}

type UpdateTabsRequest struct {
	Tabs []TabUpdate `json:"tabs" binding:"required"`
}

type ChangePasswordRequest struct {
	NewPassword string `json:"newPassword" binding:"required"`
}

type ChangeRoleRequest struct {
	NewRole string `json:"newRole" binding:"required"`
}

type ResetDefaultPasswordsRequest struct {
	Confirmation string `json:"confirmation"`
}

// Response models
type LoginResponse struct {
	Token string   `json:"token"`
	User  AuthUser `json:"user"`
}

type VerifyResponse struct {
	Valid bool     `json:"valid"`
	User  AuthUser `json:"user"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type UsersResponse struct {
	Users []User `json:"users"`
}

type AffectedUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type ResetDefaultPasswordsResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Users   []AffectedUser `json:"users"`
}

type AuditLogsResponse struct {
	Logs   []AuditLogEntry `json:"logs"`
	Total  int64           `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

type UserActivityResponse struct {
	User  AffectedUser    `json:"user"`
	Logs  []AuditLogEntry `json:"logs"`
	Total int             `json:"total"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
