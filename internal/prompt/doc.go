// Package prompt reads operator input from the terminal.
//
// Terminal wraps an input and output stream. Lines are read with their line
// ending removed; secrets are read without echo when the input is a TTY.
// AskYesNo implements the confirmation loop and ReadCredentials the login
// prompt.
package prompt
