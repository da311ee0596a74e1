package extract

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/neurosnap/sentences"
	sentencesdata "github.com/neurosnap/sentences/data"
)

var (
	// punktOnce ensures the Punkt model is loaded once per process.
	punktOnce      sync.Once
	punktTokenizer *sentences.DefaultSentenceTokenizer
	punktErr       error
)

func punkt() (*sentences.DefaultSentenceTokenizer, error) {
	punktOnce.Do(func() {
		b, err := sentencesdata.Asset("data/english.json")
		if err != nil {
			punktErr = fmt.Errorf("load english punkt data: %w", err)
			return
		}
		training, err := sentences.LoadTraining(b)
		if err != nil {
			punktErr = fmt.Errorf("parse english punkt data: %w", err)
			return
		}
		punktTokenizer = sentences.NewSentenceTokenizer(training)
	})
	if punktErr != nil {
		return nil, punktErr
	}
	return punktTokenizer, nil
}

// sentenceSpan is one detected sentence as [Start, End) code point offsets
// into the text handed to sentenceSpans.
type sentenceSpan struct {
	Start int
	End   int
}

// sentenceSpans runs Punkt sentence detection and anchors each sentence
// back into the input text. Sentences the tokenizer mangles beyond
// recognition are dropped rather than guessed at.
func sentenceSpans(text string) ([]sentenceSpan, error) {
	tok, err := punkt()
	if err != nil {
		return nil, err
	}

	raw := tok.Tokenize(text)

	var spans []sentenceSpan
	byteCursor := 0
	runeCursor := 0
	for _, sent := range raw {
		t := strings.TrimSpace(sent.Text)
		if t == "" {
			continue
		}
		idx := strings.Index(text[byteCursor:], t)
		if idx < 0 {
			continue
		}
		startByte := byteCursor + idx
		endByte := startByte + len(t)

		runeCursor += utf8.RuneCountInString(text[byteCursor:startByte])
		start := runeCursor
		runeCursor += utf8.RuneCountInString(text[startByte:endByte])
		byteCursor = endByte

		spans = append(spans, sentenceSpan{Start: start, End: runeCursor})
	}
	return spans, nil
}
