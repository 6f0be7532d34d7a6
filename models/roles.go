package models

const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

type EnsureRoleResponse struct {
	OK bool `json:"ok"`
}
