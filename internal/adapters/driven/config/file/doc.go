// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data under the reinfect config directory (~/.reinfect).
//
// Adapters:
//   - ConfigStore: TOML-based settings storage
//   - PromptStore: user-editable explanation prompt templates
//   - PromptWatcher: reloads prompt templates when files change
package file
