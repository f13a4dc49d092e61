package database

import "ResumeForge-backend/internal/model"

// Built-in resume templates inserted on first migration. The HTML bodies are
// html/template documents executed with the saved resume data.
var defaultTemplates = []model.ResumeTemplate{
	{
		Slug:        "classic",
		Name:        "Classic",
		Description: "Single column, serif, ATS friendly",
		Premium:     false,
		HTML: `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><style>
body { font-family: Georgia, serif; margin: 40px; color: #1f2937; }
h1 { margin-bottom: 0; }
.headline { color: #4b5563; margin-top: 2px; }
h2 { border-bottom: 1px solid #d1d5db; padding-bottom: 2px; margin-top: 24px; }
.entry { margin-bottom: 10px; }
.entry .title { font-weight: bold; }
.entry .period { color: #6b7280; font-size: 0.9em; }
.skills span { display: inline-block; margin-right: 8px; }
</style></head>
<body>
<h1>{{.personal.full_name}}</h1>
<p class="headline">{{.personal.headline}}</p>
<p>{{.personal.email}}{{if .personal.phone}} &middot; {{.personal.phone}}{{end}}{{if .personal.location}} &middot; {{.personal.location}}{{end}}</p>
{{if .summary}}<h2>Summary</h2><p>{{.summary}}</p>{{end}}
{{if .experience}}<h2>Experience</h2>
{{range .experience}}<div class="entry">
<div class="title">{{.title}} — {{.company}}</div>
<div class="period">{{.period}}</div>
<div>{{.description}}</div>
</div>{{end}}{{end}}
{{if .education}}<h2>Education</h2>
{{range .education}}<div class="entry">
<div class="title">{{.degree}} — {{.institution}}</div>
<div class="period">{{.period}}</div>
</div>{{end}}{{end}}
{{if .skills}}<h2>Skills</h2><div class="skills">{{range .skills}}<span>{{.}}</span>{{end}}</div>{{end}}
</body>
</html>`,
	},
	{
		Slug:        "modern",
		Name:        "Modern",
		Description: "Two tone header, sans serif",
		Premium:     true,
		HTML: `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><style>
body { font-family: Helvetica, Arial, sans-serif; margin: 0; color: #111827; }
header { background: #0f172a; color: #f8fafc; padding: 32px 40px; }
header h1 { margin: 0; }
header .headline { color: #94a3b8; }
main { padding: 24px 40px; }
h2 { color: #0f172a; text-transform: uppercase; font-size: 0.9em; letter-spacing: 0.1em; margin-top: 24px; }
.entry { margin-bottom: 12px; }
.entry .title { font-weight: 600; }
.entry .period { color: #64748b; font-size: 0.85em; }
.skills span { background: #e2e8f0; border-radius: 4px; padding: 2px 8px; margin-right: 6px; display: inline-block; margin-bottom: 4px; }
</style></head>
<body>
<header>
<h1>{{.personal.full_name}}</h1>
<p class="headline">{{.personal.headline}}</p>
<p>{{.personal.email}}{{if .personal.phone}} &middot; {{.personal.phone}}{{end}}{{if .personal.location}} &middot; {{.personal.location}}{{end}}</p>
</header>
<main>
{{if .summary}}<h2>Summary</h2><p>{{.summary}}</p>{{end}}
{{if .experience}}<h2>Experience</h2>
{{range .experience}}<div class="entry">
<div class="title">{{.title}} — {{.company}}</div>
<div class="period">{{.period}}</div>
<div>{{.description}}</div>
</div>{{end}}{{end}}
{{if .education}}<h2>Education</h2>
{{range .education}}<div class="entry">
<div class="title">{{.degree}} — {{.institution}}</div>
<div class="period">{{.period}}</div>
</div>{{end}}{{end}}
{{if .skills}}<h2>Skills</h2><div class="skills">{{range .skills}}<span>{{.}}</span>{{end}}</div>{{end}}
</main>
</body>
</html>`,
	},
}

// seedTemplates inserts the built-in templates when the gallery is empty.
func (d *DBinstanceStruct) seedTemplates() error {
	var count int64
	if err := d.Model(&model.ResumeTemplate{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return d.Create(&defaultTemplates).Error
}
