package tokenizer

import (
	"errors"
)

// CountResult captures the outcome of counting a piece of content.
type CountResult struct {
	Tokens  int
	Counted bool
}

// CountContent estimates tokens for already decoded text.
// A nil counter yields an uncounted result rather than an error.
func CountContent(counter Counter, content string) (CountResult, error) {
	if counter == nil {
		return CountResult{}, nil
	}
	tokens, err := counter.CountString(content)
	if err != nil {
		return CountResult{}, err
	}
	if tokens < 0 {
		return CountResult{}, errors.New("negative token count")
	}
	return CountResult{Tokens: tokens, Counted: true}, nil
}
