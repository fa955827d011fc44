// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data under the groundwork home directory
// ($GROUNDWORK_HOME or ~/.groundwork).
//
// Adapters:
//   - ConfigStore: TOML-based configuration storage
//   - PromptStore: user-editable prompt templates
package file
