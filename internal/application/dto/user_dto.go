package dto

import "time"

// CreateUserRequest entrada para crear un usuario dentro de una clínica.
// Permissions vacío = permisos por defecto del rol.
type CreateUserRequest struct {
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions,omitempty"`
}

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID          string    `json:"id"`
	ClinicID    string    `json:"clinic_id,omitempty"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Role        string    `json:"role"`
	Permissions []string  `json:"permissions"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserListResponse usuarios de una clínica.
type UserListResponse struct {
	Items []UserResponse `json:"items"`
}

// LoginRequest entrada para login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse token JWT y actor autenticado.
type LoginResponse struct {
	Token       string   `json:"token"`
	UserID      string   `json:"user_id"`
	Role        string   `json:"role"`
	ClinicID    string   `json:"clinic_id,omitempty"`
	Permissions []string `json:"permissions"`
}
