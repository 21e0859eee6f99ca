package memory

import "github.com/google/uuid"

// demoProjects and demoSkills are the showcase records the site launched with.
var demoProjects = []map[string]interface{}{
	{
		"title":        "System rezerwacji online",
		"description":  "System rezerwacji dla restauracji umożliwiający zarządzanie stolikami i przyjmowanie rezerwacji online.",
		"technologies": []interface{}{"React", "Next.js", "PostgreSQL", "Stripe"},
		"image_url":    "https://images.unsplash.com/photo-1488590528505-98d2b5aba04b?auto=format&fit=crop&w=1200&h=800&q=80",
		"link":         "#",
	},
	{
		"title":        "Aplikacja do zarządzania wydatkami",
		"description":  "Aplikacja webowa pomagająca śledzić wydatki osobiste i tworzyć budżety miesięczne.",
		"technologies": []interface{}{"Vue.js", "Node.js", "Express", "MongoDB"},
		"image_url":    "https://images.unsplash.com/photo-1498050108023-c5249f4df085?auto=format&fit=crop&w=1200&h=800&q=80",
		"link":         "#",
	},
	{
		"title":        "E-commerce Dashboard",
		"description":  "Panel administracyjny dla sklepu internetowego z analizą danych sprzedażowych i zarządzaniem produktami.",
		"technologies": []interface{}{"React", "TypeScript", "Tailwind CSS", "Firebase"},
		"image_url":    "https://images.unsplash.com/photo-1486312338219-ce68d2c6f44d?auto=format&fit=crop&w=1200&h=800&q=80",
		"link":         "#",
	},
}

var demoSkills = []map[string]interface{}{
	{"name": "HTML5", "category": "Frontend"},
	{"name": "CSS3", "category": "Frontend"},
	{"name": "JavaScript", "category": "Frontend"},
	{"name": "TypeScript", "category": "Frontend"},
	{"name": "React", "category": "Frontend"},
	{"name": "Node.js", "category": "Backend"},
	{"name": "Express", "category": "Backend"},
	{"name": "PostgreSQL", "category": "Backend"},
	{"name": "MongoDB", "category": "Backend"},
	{"name": "Git", "category": "Narzędzia"},
	{"name": "Docker", "category": "Narzędzia"},
	{"name": "Figma", "category": "Design"},
}

// Seed loads the demo records into the projects and skills tables.
// Projects are inserted oldest first so the newest one lists first.
func (b *Backend) Seed() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, row := range demoProjects {
		b.seedLocked("projects", row)
	}
	for _, row := range demoSkills {
		b.seedLocked("skills", row)
	}
}

func (b *Backend) seedLocked(table string, row map[string]interface{}) {
	fields := cloneRow(row)
	stamp := b.stampLocked()
	fields["id"] = uuid.NewString()
	fields["created_at"] = stamp
	fields["updated_at"] = stamp
	b.tables[table] = append(b.tables[table], fields)
}
