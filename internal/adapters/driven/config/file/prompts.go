package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/reinfect/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads the explanation prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to built-in defaults.
// A template missing a required placeholder is rejected in favour of the default.
//
// The store uses lazy initialisation - files are only created when first accessed,
// not in the constructor. This makes testing easier and avoids unexpected I/O.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains the built-in templates. They are used when user
// files don't exist and as the initial content for new files.
var defaultPrompts = driven.DefaultPrompts()

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.reinfect/prompts/.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		dir, err := DefaultConfigDir()
		if err != nil {
			return nil, err
		}
		promptDir = filepath.Join(dir, "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default files.
// Returns cached value if available, otherwise loads from file.
// Falls back to embedded default if file doesn't exist.
func (s *PromptStore) Load(name string) (string, error) {
	// Ensure directory and defaults exist (lazy init)
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		// Fall back to embedded defaults if init failed
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	// Check cache first (read lock)
	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	// Load from file (no lock held during I/O)
	prompt, err := s.loadFromFile(name)
	if err == nil {
		err = checkPlaceholders(name, prompt)
	}
	if err != nil {
		// Fall back to embedded default
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	// Cache the result (write lock)
	// Use double-check pattern to avoid overwriting concurrent loads
	s.mu.Lock()
	if _, ok := s.cache[name]; !ok {
		s.cache[name] = prompt
	} else {
		// Another goroutine loaded it first, use their value
		prompt = s.cache[name]
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and default files.
// Called once via sync.Once on first Load().
func (s *PromptStore) initialise() {
	// Create directory
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	// Create default prompt files (only if they don't exist)
	for _, name := range driven.PromptNames() {
		content := defaultPrompts[name]
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	// Create README
	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.promptDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// requiredPlaceholders lists the placeholders each template must keep.
var requiredPlaceholders = map[string][]string{
	driven.PromptExplain:           {driven.PlaceholderContext, driven.PlaceholderQuestion},
	driven.PromptExplainIntegrated: {driven.PlaceholderPrediction, driven.PlaceholderContext, driven.PlaceholderQuestion},
	driven.PromptChat:              {driven.PlaceholderContext, driven.PlaceholderQuestion},
}

// checkPlaceholders reports the first required placeholder missing from prompt.
func checkPlaceholders(name, prompt string) error {
	for _, ph := range requiredPlaceholders[name] {
		if !strings.Contains(prompt, ph) {
			return fmt.Errorf("prompt %q is missing placeholder %s", name, ph)
		}
	}
	return nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil // Already exists or stat error (ignore)
	}

	content := `# Reinfect Prompts

This directory contains the prompts used to explain reinfection risk.

## Files

- ` + "`explain.txt`" + ` - Explains risk from the literature alone
- ` + "`explain_integrated.txt`" + ` - Explains risk alongside the classifier's prediction
- ` + "`chat.txt`" + ` - Answers free-form questions from the literature

## Customisation

Edit any file to customise the wording. A running server picks up changes
without a restart. Delete a file to restore its default on next start.

## Placeholders

- ` + "`{{context}}`" + ` - Retrieved evidence passages
- ` + "`{{question}}`" + ` - The patient question or user question
- ` + "`{{prediction}}`" + ` - The classifier label (explain_integrated only)

A prompt missing a required placeholder is ignored and the default is used.
Keep the "Based on the research, the risk level is **...**" line so the
risk level can be read back from the answer.
`
	return os.WriteFile(path, []byte(content), 0600)
}
