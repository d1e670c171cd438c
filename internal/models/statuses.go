package models

type UserRole string

const (
	UserRoleAdmin     UserRole = "admin"
	UserRoleStaff     UserRole = "staff"
	UserRoleVolunteer UserRole = "volunteer"
	UserRoleScholar   UserRole = "scholar"
)

type UserStatus string

const (
	UserStatusPending   UserStatus = "pending"
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
)
