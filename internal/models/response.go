package models

type ProjectListResponse struct {
	Projects []Project `json:"projects"`
}

type SkillListResponse struct {
	Skills []Skill `json:"skills"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
}
