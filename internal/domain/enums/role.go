package enums

type Role string

const (
	RoleReader Role = "READER"
	RoleAdmin  Role = "ADMIN"
)
