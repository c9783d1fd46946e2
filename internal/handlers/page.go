package handlers

import (
	"embed"
	"html/template"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/codebuildervaibhav/call-analyzer/internal/types"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

const pageTitle = "Customer Call Analyzer"

type pageData struct {
	Title      string
	Accept     string
	FormatList string
	Notice     string
	Error      string
	Result     *types.AnalysisResult
}

func newPageData(formats []string) pageData {
	return pageData{
		Title:      pageTitle,
		Accept:     strings.Join(formats, ","),
		FormatList: strings.Join(formats, " or "),
	}
}

func renderPage(c *fiber.Ctx, status int, data pageData) error {
	c.Status(status)
	c.Type("html", "utf-8")
	return indexTemplate.Execute(c, data)
}
