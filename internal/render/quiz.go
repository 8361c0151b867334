package render

import (
	"fmt"
	"strconv"
	"strings"

	"uichat/internal/uitag"
)

// Option is one lettered quiz choice.
type Option struct {
	Letter string
	Text   string
}

// Letter returns the label for the i-th option: A, B, ... Z, then 27, 28, ...
func Letter(i int) string {
	if i < 26 {
		return string(rune('A' + i))
	}
	return strconv.Itoa(i + 1)
}

// QuizOptions splits a quiz tag's options into lettered choices. Non-quiz
// tags have none.
func QuizOptions(t uitag.Tag) []Option {
	texts := t.Options()
	out := make([]Option, 0, len(texts))
	for i, s := range texts {
		out = append(out, Option{Letter: Letter(i), Text: s})
	}
	return out
}

// ResolveChoice maps user input to an option's text. It accepts a letter
// ("b"), a 1-based number ("2") or the option text itself, case-insensitively.
func ResolveChoice(t uitag.Tag, input string) (string, error) {
	input = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(input), "."))
	if input == "" {
		return "", fmt.Errorf("no answer given")
	}
	opts := QuizOptions(t)
	if len(opts) == 0 {
		return "", fmt.Errorf("not a quiz")
	}
	for _, o := range opts {
		if strings.EqualFold(o.Letter, input) {
			return o.Text, nil
		}
	}
	if n, err := strconv.Atoi(input); err == nil {
		if n >= 1 && n <= len(opts) {
			return opts[n-1].Text, nil
		}
		return "", fmt.Errorf("choice %d out of range (1-%d)", n, len(opts))
	}
	for _, o := range opts {
		if strings.EqualFold(o.Text, input) {
			return o.Text, nil
		}
	}
	return "", fmt.Errorf("%q is not one of the options", input)
}

// CheckAnswer reports whether choice is the quiz's answer. The comparison is
// literal; an answer that matches none of the options can never be chosen.
func CheckAnswer(t uitag.Tag, choice string) bool {
	return t.Kind == uitag.KindQuiz && choice == t.Attr(uitag.AttrAnswer)
}

// Feedback is the message shown after the user picks choice.
func Feedback(t uitag.Tag, choice string) string {
	if CheckAnswer(t, choice) {
		return "Correct! ✅"
	}
	return "Not quite. The correct answer is: " + t.Attr(uitag.AttrAnswer)
}
