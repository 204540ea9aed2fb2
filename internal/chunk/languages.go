package chunk

import (
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// LanguageRegistry maps source-path extensions to a LanguageConfig,
// dispatching the code-aware strategy per §4.2.3. Go, TypeScript/TSX,
// JavaScript/JSX and Python are backed by vendored tree-sitter grammars;
// Rust, Java, C/C++ headers, Ruby and PHP are backed by line-anchored
// declaration regexes since no grammar for them is vendored in this
// module's dependency set.
type LanguageRegistry struct {
	mu          sync.RWMutex
	configs     map[string]*LanguageConfig
	extToLang   map[string]string
	tsLanguages map[string]*sitter.Language
}

// NewLanguageRegistry builds a registry with every language tag named
// in §4.2.3 registered.
func NewLanguageRegistry() *LanguageRegistry {
	r := &LanguageRegistry{
		configs:     make(map[string]*LanguageConfig),
		extToLang:   make(map[string]string),
		tsLanguages: make(map[string]*sitter.Language),
	}

	r.registerGo()
	r.registerTypeScript()
	r.registerJavaScript()
	r.registerPython()
	r.registerRust()
	r.registerJava()
	r.registerC()
	r.registerRuby()
	r.registerPHP()

	return r
}

// GetByExtension returns the language configuration for a file extension
// (with or without a leading dot).
func (r *LanguageRegistry) GetByExtension(ext string) (*LanguageConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	langName, ok := r.extToLang[ext]
	if !ok {
		return nil, false
	}
	config, ok := r.configs[langName]
	return config, ok
}

// GetByName returns the language configuration by its tag.
func (r *LanguageRegistry) GetByName(name string) (*LanguageConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	config, ok := r.configs[name]
	return config, ok
}

// GetTreeSitterLanguage returns the tree-sitter grammar for a tag, if any.
func (r *LanguageRegistry) GetTreeSitterLanguage(name string) (*sitter.Language, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lang, ok := r.tsLanguages[name]
	return lang, ok
}

// SupportedExtensions returns every registered extension.
func (r *LanguageRegistry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.extToLang))
	for ext := range r.extToLang {
		exts = append(exts, ext)
	}
	return exts
}

func (r *LanguageRegistry) registerLanguage(config *LanguageConfig, tsLang *sitter.Language) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[config.Name] = config
	if tsLang != nil {
		r.tsLanguages[config.Name] = tsLang
	}
	for _, ext := range config.Extensions {
		r.extToLang[ext] = config.Name
	}
}

func (r *LanguageRegistry) registerGo() {
	r.registerLanguage(&LanguageConfig{
		Name:       "go",
		Extensions: []string{".go"},
		DeclNodeTypes: []string{
			"function_declaration", "method_declaration", "type_declaration",
			"const_declaration", "var_declaration",
		},
	}, golang.GetLanguage())
}

func (r *LanguageRegistry) registerTypeScript() {
	tsConfig := &LanguageConfig{
		Name:       "ts",
		Extensions: []string{".ts"},
		DeclNodeTypes: []string{
			"function_declaration", "method_definition", "class_declaration",
			"interface_declaration", "type_alias_declaration", "lexical_declaration",
		},
	}
	r.registerLanguage(tsConfig, typescript.GetLanguage())

	r.registerLanguage(&LanguageConfig{
		Name:          "tsx",
		Extensions:    []string{".tsx"},
		DeclNodeTypes: tsConfig.DeclNodeTypes,
	}, tsx.GetLanguage())
}

func (r *LanguageRegistry) registerJavaScript() {
	jsConfig := &LanguageConfig{
		Name:       "js",
		Extensions: []string{".js", ".mjs"},
		DeclNodeTypes: []string{
			"function_declaration", "method_definition", "class_declaration",
			"lexical_declaration", "variable_declaration",
		},
	}
	r.registerLanguage(jsConfig, javascript.GetLanguage())

	r.registerLanguage(&LanguageConfig{
		Name:          "jsx",
		Extensions:    []string{".jsx"},
		DeclNodeTypes: jsConfig.DeclNodeTypes,
	}, javascript.GetLanguage())
}

func (r *LanguageRegistry) registerPython() {
	r.registerLanguage(&LanguageConfig{
		Name:       "py",
		Extensions: []string{".py"},
		DeclNodeTypes: []string{
			"function_definition", "class_definition",
		},
	}, python.GetLanguage())
}

func (r *LanguageRegistry) registerRust() {
	r.registerLanguage(&LanguageConfig{
		Name:       "rs",
		Extensions: []string{".rs"},
		DeclRegexes: []string{
			`^\s*(pub(\([^)]*\))?\s+)?fn\s+\w+`,
			`^\s*(pub\s+)?impl(\s*<[^>]*>)?\s+`,
			`^\s*(pub\s+)?struct\s+\w+`,
			`^\s*(pub\s+)?enum\s+\w+`,
			`^\s*(pub\s+)?trait\s+\w+`,
			`^\s*(pub\s+)?mod\s+\w+`,
		},
	}, nil)
}

func (r *LanguageRegistry) registerJava() {
	r.registerLanguage(&LanguageConfig{
		Name:       "java",
		Extensions: []string{".java"},
		DeclRegexes: []string{
			`^\s*(public|private|protected)?\s*(static\s+)?(final\s+)?class\s+\w+`,
			`^\s*(public|private|protected)?\s*interface\s+\w+`,
			`^\s*(public|private|protected)?\s*enum\s+\w+`,
			`^\s*(public|private|protected)?\s*(static\s+)?(final\s+)?\w[\w<>\[\],\s]*\s+\w+\s*\([^;{]*\)\s*\{?\s*$`,
		},
	}, nil)
}

func (r *LanguageRegistry) registerC() {
	config := &LanguageConfig{
		Name:       "c",
		Extensions: []string{".c", ".h", ".cpp", ".hpp", ".cc", ".cxx"},
		DeclRegexes: []string{
			`^\s*(static\s+|inline\s+)*[\w:<>,\s\*&]+\s+\w+\s*\([^;]*\)\s*\{?\s*$`,
			`^\s*(struct|class|enum|union)\s+\w+`,
			`^\s*namespace\s+\w+`,
		},
	}
	r.registerLanguage(config, nil)
}

func (r *LanguageRegistry) registerRuby() {
	r.registerLanguage(&LanguageConfig{
		Name:       "rb",
		Extensions: []string{".rb"},
		DeclRegexes: []string{
			`^\s*def\s+\w+`,
			`^\s*class\s+\w+`,
			`^\s*module\s+\w+`,
		},
	}, nil)
}

func (r *LanguageRegistry) registerPHP() {
	r.registerLanguage(&LanguageConfig{
		Name:       "php",
		Extensions: []string{".php"},
		DeclRegexes: []string{
			`^\s*(public|private|protected)?\s*(static\s+)?function\s+\w+`,
			`^\s*class\s+\w+`,
			`^\s*interface\s+\w+`,
			`^\s*trait\s+\w+`,
		},
	}, nil)
}

// defaultRegistry is the process-wide language registry used when a
// caller does not supply its own (§9 reserves the singleton concern for
// the database handle; a read-only language table has no lifecycle to
// inject and is safe to share).
var defaultRegistry = NewLanguageRegistry()

// DefaultRegistry returns the shared language registry.
func DefaultRegistry() *LanguageRegistry {
	return defaultRegistry
}

// LanguageForPath derives a language tag from a source path's extension.
func LanguageForPath(path string) (string, bool) {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 {
		return "", false
	}
	cfg, ok := DefaultRegistry().GetByExtension(path[idx:])
	if !ok {
		return "", false
	}
	return cfg.Name, true
}
