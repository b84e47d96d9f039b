package prompt

import "strings"

const (
	answerYes = "yes"
	answerNo  = "no"

	// confirmPrompt is repeated until the operator answers yes or no.
	confirmPrompt = "Please enter YES or NO: "
)

// LineReader reads one prompted line.
type LineReader interface {
	ReadLine(prompt string) (string, error)
}

// SecretReader reads prompted lines and secrets.
type SecretReader interface {
	LineReader
	ReadSecret(prompt string) (string, error)
}

// AskYesNo prompts until the answer is "yes" or "no", case-insensitively.
// Any other answer, including surrounding spaces, re-prompts.
func AskYesNo(r LineReader) (bool, error) {
	for {
		answer, err := r.ReadLine(confirmPrompt)
		if err != nil {
			return false, err
		}

		switch strings.ToLower(answer) {
		case answerYes:
			return true, nil
		case answerNo:
			return false, nil
		}
	}
}

// ReadCredentials prompts for the login email and password.
func ReadCredentials(r SecretReader) (email, password string, err error) {
	email, err = r.ReadLine("email: ")
	if err != nil {
		return "", "", err
	}

	password, err = r.ReadSecret("password: ")
	if err != nil {
		return "", "", err
	}

	return strings.TrimSpace(email), password, nil
}
