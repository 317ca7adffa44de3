package cms

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"gopkg.in/yaml.v3"
)

// ErrNotFound indicates no blocks exist for the requested kind and language.
var ErrNotFound = errors.New("cms: not found")

// Block is one short Markdown-authored content card, such as the
// Authenticity / Collectibility / Environmental blurbs on the landing page.
type Block struct {
	Slug  string
	Title string
	Order int
	// Body is sanitised HTML rendered from the Markdown source.
	Body template.HTML
}

type blockFrontMatter struct {
	Title string `yaml:"title"`
	Order int    `yaml:"order"`
}

// Library reads blocks from {kind}/{lang}/*.md inside an fs.FS and caches
// the rendered result per kind and language.
type Library struct {
	fsys     fs.FS
	fallback string
	md       goldmark.Markdown
	policy   *bluemonday.Policy

	mu    sync.RWMutex
	cache map[string][]Block
}

// NewLibrary constructs a Library; fallback is the language used when a
// kind has no directory for the requested one.
func NewLibrary(fsys fs.FS, fallback string) *Library {
	if fallback == "" {
		fallback = "en"
	}
	return &Library{
		fsys:     fsys,
		fallback: fallback,
		md:       goldmark.New(),
		policy:   newBlockPolicy(),
		cache:    map[string][]Block{},
	}
}

func newBlockPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").OnElements("p", "span")
	policy.RequireNoFollowOnLinks(true)
	return policy
}

// Blocks returns the blocks of kind for lang ordered by their front-matter
// order, then slug.
func (l *Library) Blocks(kind, lang string) ([]Block, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	key := kind + "/" + lang
	l.mu.RLock()
	cached, ok := l.cache[key]
	l.mu.RUnlock()
	if ok {
		return cloneBlocks(cached), nil
	}

	blocks, err := l.read(kind, lang)
	if errors.Is(err, ErrNotFound) && lang != l.fallback {
		blocks, err = l.read(kind, l.fallback)
	}
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.cache[key] = blocks
	l.mu.Unlock()
	return cloneBlocks(blocks), nil
}

func (l *Library) read(kind, lang string) ([]Block, error) {
	dir := path.Join(kind, lang)
	entries, err := fs.ReadDir(l.fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("cms: read %s: %w", dir, err)
	}
	var blocks []Block
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		file := path.Join(dir, e.Name())
		data, err := fs.ReadFile(l.fsys, file)
		if err != nil {
			return nil, fmt.Errorf("cms: read %s: %w", file, err)
		}
		block, err := l.parse(strings.TrimSuffix(e.Name(), ".md"), data)
		if err != nil {
			return nil, fmt.Errorf("cms: parse %s: %w", file, err)
		}
		blocks = append(blocks, block)
	}
	if len(blocks) == 0 {
		return nil, ErrNotFound
	}
	sort.SliceStable(blocks, func(i, j int) bool {
		if blocks[i].Order == blocks[j].Order {
			return blocks[i].Slug < blocks[j].Slug
		}
		return blocks[i].Order < blocks[j].Order
	})
	return blocks, nil
}

func (l *Library) parse(slug string, data []byte) (Block, error) {
	fm, body := splitFrontMatter(string(data))
	front := blockFrontMatter{}
	if strings.TrimSpace(fm) != "" {
		if err := yaml.Unmarshal([]byte(fm), &front); err != nil {
			return Block{}, err
		}
	}
	html, err := l.RenderMarkdown(body)
	if err != nil {
		return Block{}, err
	}
	title := strings.TrimSpace(front.Title)
	if title == "" {
		title = prettifySlug(slug)
	}
	return Block{Slug: slug, Title: title, Order: front.Order, Body: html}, nil
}

// RenderMarkdown converts Markdown to sanitised HTML safe for templates.
func (l *Library) RenderMarkdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := l.md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(l.policy.SanitizeBytes(buf.Bytes())), nil
}

func splitFrontMatter(input string) (string, string) {
	input = strings.TrimLeft(input, "\ufeff")
	lines := strings.Split(input, "\n")
	if len(lines) == 0 {
		return "", ""
	}
	if strings.TrimSpace(lines[0]) != "---" {
		return "", input
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			fm := strings.Join(lines[1:i], "\n")
			body := strings.Join(lines[i+1:], "\n")
			return fm, strings.TrimLeft(body, "\n\r")
		}
	}
	return "", input
}

func prettifySlug(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' })
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func cloneBlocks(in []Block) []Block {
	return append([]Block(nil), in...)
}
