package models

// ProjectForm is the add/edit project dialog. Technologies arrive as one
// comma separated field.
type ProjectForm struct {
	Title        string `form:"title" json:"title"`
	Description  string `form:"description" json:"description"`
	Technologies string `form:"technologies" json:"technologies"`
	ImageURL     string `form:"image_url" json:"image_url"`
	Link         string `form:"link" json:"link"`
}

func (f ProjectForm) Fields() ProjectFields {
	return ProjectFields{
		Title:        f.Title,
		Description:  f.Description,
		Technologies: ParseTechnologies(f.Technologies),
		ImageURL:     f.ImageURL,
		Link:         f.Link,
	}
}

type SkillForm struct {
	Name     string `form:"name" json:"name"`
	Category string `form:"category" json:"category"`
}

func (f SkillForm) Fields() SkillFields {
	return SkillFields{Name: f.Name, Category: f.Category}
}

type LoginForm struct {
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required"`
}

type ContactForm struct {
	Name    string `form:"name" binding:"required"`
	Email   string `form:"email" binding:"required,email"`
	Message string `form:"message" binding:"required"`
}

// ProjectRequest is the JSON body of the project API. Technologies are
// already a list here.
type ProjectRequest struct {
	Title        string   `json:"title" binding:"required"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies" binding:"required,min=1"`
	ImageURL     string   `json:"image_url"`
	Link         string   `json:"link"`
}

func (r ProjectRequest) Fields() ProjectFields {
	techs := make([]string, 0, len(r.Technologies))
	for _, tech := range r.Technologies {
		techs = append(techs, ParseTechnologies(tech)...)
	}
	return ProjectFields{
		Title:        r.Title,
		Description:  r.Description,
		Technologies: techs,
		ImageURL:     r.ImageURL,
		Link:         r.Link,
	}
}

type SkillRequest struct {
	Name     string `json:"name" binding:"required"`
	Category string `json:"category"`
}

func (r SkillRequest) Fields() SkillFields {
	return SkillFields{Name: r.Name, Category: r.Category}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
