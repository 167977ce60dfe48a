// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data under the bookwise config directory (~/.bookwise).
//
// Adapters:
//   - ConfigStore: TOML-based settings storage (config.toml)
//   - PromptStore: user-editable LLM prompt templates (prompts/*.txt)
package file
