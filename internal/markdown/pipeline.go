package markdown

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// PostProcessor rewrites the rendered document after core conversion.
type PostProcessor func(doc *Element) error

// CodeBlockProcessor owns rendering for one fenced-code language. It
// receives the block's source text and the block's parent element.
type CodeBlockProcessor func(source string, parent *Element) error

const languageClassPrefix = "language-"

// Pipeline is the markdown post-processing extension point. Registered
// post-processors run in registration order over the converted document;
// afterward each fenced code block is dispatched to the processor
// registered for its language tag (case-insensitively).
type Pipeline struct {
	mu sync.RWMutex

	converter Converter
	log       *slog.Logger

	post       []postEntry
	codeBlocks map[string]*codeEntry // lowercase language -> entry

	nextSerial uint64
}

type postEntry struct {
	fn     PostProcessor
	serial uint64
}

type codeEntry struct {
	fn     CodeBlockProcessor
	serial uint64
}

// NewPipeline creates a pipeline over the given converter.
func NewPipeline(conv Converter, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		converter:  conv,
		log:        log.With("component", "markdown"),
		codeBlocks: make(map[string]*codeEntry),
	}
}

// RegisterPostProcessor appends a post-processor to the pipeline and
// returns an idempotent unregister closure.
func (p *Pipeline) RegisterPostProcessor(fn PostProcessor) func() {
	p.mu.Lock()
	p.nextSerial++
	serial := p.nextSerial
	p.post = append(p.post, postEntry{fn: fn, serial: serial})
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		for i, e := range p.post {
			if e.serial == serial {
				p.post = append(p.post[:i], p.post[i+1:]...)
				return
			}
		}
	}
}

// RegisterCodeBlockProcessor registers a processor for a fenced-code
// language. Registering the same language twice replaces the previous
// processor. The language match is case-insensitive.
func (p *Pipeline) RegisterCodeBlockProcessor(language string, fn CodeBlockProcessor) func() {
	key := strings.ToLower(strings.TrimSpace(language))

	p.mu.Lock()
	if _, ok := p.codeBlocks[key]; ok {
		p.log.Warn("code block processor replaced", "language", key)
	}
	p.nextSerial++
	serial := p.nextSerial
	p.codeBlocks[key] = &codeEntry{fn: fn, serial: serial}
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if current, ok := p.codeBlocks[key]; ok && current.serial == serial {
			delete(p.codeBlocks, key)
		}
	}
}

// PostProcessorCount returns the number of registered post-processors.
func (p *Pipeline) PostProcessorCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.post)
}

// Render converts markdown to HTML and runs the full pipeline over the
// result. Processor failures are logged and skipped; only conversion or
// serialization failures are returned.
func (p *Pipeline) Render(source string) (string, error) {
	fragment, err := p.converter.Convert(source)
	if err != nil {
		return "", fmt.Errorf("markdown conversion failed: %w", err)
	}

	doc, err := ParseFragment(fragment)
	if err != nil {
		return "", fmt.Errorf("failed to parse rendered fragment: %w", err)
	}

	p.mu.RLock()
	post := make([]postEntry, len(p.post))
	copy(post, p.post)
	p.mu.RUnlock()

	for _, e := range post {
		if err := p.safePost(e.fn, doc); err != nil {
			p.log.Error("post-processor failed", "error", err)
		}
	}

	p.processCodeBlocks(doc)

	return doc.Render()
}

// processCodeBlocks matches every <pre><code class="language-X"> block
// against a registered processor for X and invokes it with the block's
// source text and the block's parent element.
func (p *Pipeline) processCodeBlocks(doc *Element) {
	for _, code := range doc.QuerySelectorAll("code") {
		parent := code.Parent()
		if parent == nil || parent.Tag() != "pre" {
			continue
		}

		lang := blockLanguage(code)
		if lang == "" {
			continue
		}

		p.mu.RLock()
		entry, ok := p.codeBlocks[lang]
		p.mu.RUnlock()
		if !ok {
			continue
		}

		if err := p.safeCode(entry.fn, code.Text(), parent); err != nil {
			p.log.Error("code block processor failed", "language", lang, "error", err)
		}
	}
}

// blockLanguage extracts the lowercase language tag from a code element's
// class list, or "" if the block is untagged.
func blockLanguage(code *Element) string {
	for _, class := range strings.Fields(code.Attr("class")) {
		if rest, ok := strings.CutPrefix(strings.ToLower(class), languageClassPrefix); ok {
			return rest
		}
	}
	return ""
}

func (p *Pipeline) safePost(fn PostProcessor, doc *Element) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("post-processor panic: %v", rec)
		}
	}()
	return fn(doc)
}

func (p *Pipeline) safeCode(fn CodeBlockProcessor, source string, parent *Element) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("code block processor panic: %v", rec)
		}
	}()
	return fn(source, parent)
}
