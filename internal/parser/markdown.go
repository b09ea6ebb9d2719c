// Package parser reads markdown task briefs: optional YAML frontmatter
// for run settings, the task prompt as the body, and an optional
// "## Context" section whose content seeds the environment.
package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/harrison/roundtable/internal/models"
)

// MarkdownParser parses task brief files into tasks.
type MarkdownParser struct {
	markdown goldmark.Markdown
}

// briefFrontmatter is the optional YAML frontmatter of a brief.
type briefFrontmatter struct {
	Roles  int  `yaml:"roles"`
	Search bool `yaml:"search"`
}

// NewMarkdownParser creates a parser with default goldmark settings.
func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{
		markdown: goldmark.New(),
	}
}

// Parse reads a brief and produces the task it describes. The prompt is
// everything before the Context heading; a missing Context section leaves
// the task context empty.
func (p *MarkdownParser) Parse(r io.Reader) (*models.Task, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}

	task := &models.Task{}
	content, frontmatter := extractFrontmatter(content)
	if frontmatter != nil {
		var fm briefFrontmatter
		if err := yaml.Unmarshal(frontmatter, &fm); err != nil {
			return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
		}
		if fm.Roles < 0 {
			return nil, fmt.Errorf("frontmatter roles must not be negative, got %d", fm.Roles)
		}
		task.NumRoles = fm.Roles
		task.SearchEnabled = fm.Search
	}

	doc := p.markdown.Parser().Parse(text.NewReader(content))

	contextStart := findContextHeading(doc, content)
	if contextStart < 0 {
		task.Prompt = strings.TrimSpace(string(content))
	} else {
		task.Prompt = strings.TrimSpace(string(content[:contextStart]))
		task.Context = strings.TrimSpace(stripHeadingLine(string(content[contextStart:])))
	}

	if err := task.Validate(); err != nil {
		return nil, fmt.Errorf("invalid brief: %w", err)
	}
	return task, nil
}

// findContextHeading walks the AST for a level 2 "Context" heading and
// returns the byte offset of its line, or -1 when absent.
func findContextHeading(doc ast.Node, source []byte) int {
	offset := -1
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok || heading.Level != 2 {
			return ast.WalkContinue, nil
		}
		if !strings.EqualFold(extractText(heading, source), "Context") {
			return ast.WalkContinue, nil
		}
		if heading.Lines().Len() == 0 {
			return ast.WalkContinue, nil
		}

		// The segment starts after the "## " marker; back up to the
		// beginning of the line.
		start := heading.Lines().At(0).Start
		for start > 0 && source[start-1] != '\n' {
			start--
		}
		offset = start
		return ast.WalkStop, nil
	})
	return offset
}

// stripHeadingLine drops the first line of a section, the heading itself.
func stripHeadingLine(section string) string {
	if idx := strings.Index(section, "\n"); idx >= 0 {
		return section[idx+1:]
	}
	return ""
}

// extractText extracts plain text from an AST node
func extractText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if text, ok := c.(*ast.Text); ok {
			buf.Write(text.Segment.Value(source))
		}
	}
	return buf.String()
}

// extractFrontmatter extracts YAML frontmatter from markdown content
// Returns the content without frontmatter and the frontmatter bytes
func extractFrontmatter(content []byte) ([]byte, []byte) {
	lines := bytes.Split(content, []byte("\n"))

	// Check if starts with ---
	if len(lines) < 3 || !bytes.Equal(bytes.TrimSpace(lines[0]), []byte("---")) {
		return content, nil
	}

	// Find closing ---
	for i := 1; i < len(lines); i++ {
		if bytes.Equal(bytes.TrimSpace(lines[i]), []byte("---")) {
			frontmatter := bytes.Join(lines[1:i], []byte("\n"))
			body := bytes.Join(lines[i+1:], []byte("\n"))
			return body, frontmatter
		}
	}

	// No closing delimiter found
	return content, nil
}
