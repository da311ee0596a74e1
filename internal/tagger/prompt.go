package tagger

import "fmt"

// entityPrompt is the instruction both language-model backends send. The
// JSON contract matches parseEntityJSON; offsets the model gets wrong are
// repaired afterwards by anchorSpans.
func entityPrompt(text string) string {
	return fmt.Sprintf(`You are a named entity recognition system for historical documents from the Canadian prairies (1800s-1940s). Find every named entity in the text below.

Entity types:
- LOC: places (settlements, forts, rivers, lakes, regions)
- PER: people (including honorifics as part of the name where customary)
- ORG: organizations (companies, churches, government bodies, police forces)
- MISC: peoples, nations, treaties, events, laws

Respond with ONLY a JSON array, no commentary:
[{"text": "<exact text as it appears>", "start": <character offset>, "end": <character offset past the last character>, "type": "LOC|PER|ORG|MISC"}]

Offsets count characters from the start of the text. The "text" value must appear verbatim in the text. Return [] if there are no entities.

TEXT:
%s`, text)
}
