package generator

import (
	"strconv"
	"strings"
)

// Prompt 表示发送给 LLM 的消息。模板只产出一条用户消息。
type Prompt struct {
	System string
	User   string
}

const bookTemplate = `
You are a highly creative and skilled novelist, known for crafting engaging and riveting stories across various genres such as romance, thriller, fantasy, and more. Your task today is to generate a complete book based on the details provided by the user.

The user will provide you with the following details:
- Theme: {theme}
- General Introduction: {intro}
- Number of Pages: {pages}
- Type of Book (Romance, Thriller, etc): {type}

Please ensure the book you create is cohesive, compelling, and aligns with the user's provided information. Your story should captivate readers from start to finish, keeping in mind the genre specifications and desired length.

In your writing, remember to:
- Develop vibrant and relatable characters with unique personalities and motivations.
- Structure the plot with a clear beginning, middle, and end, including significant turning points and climax.
- Incorporate intricate plot twists to maintain intrigue and suspense throughout the story.
- Create an immersive narrative that resonates with the chosen theme and genre, making readers eager to turn the next page.

Aim to provide an immersive reading experience that transports the reader into the world you create. Let your creativity flow and produce a story that leaves a lasting impression on the reader.
`

// editTemplate keeps the original wording verbatim, indentation included.
const editTemplate = `
    You’re an editor, and your task today is to edit the content provided by the user to improve its readability, coherence, and overall quality.

    The user has uploaded a PDF with the following content:
    {pdf_text}

    The user wants to edit the following:
    {edit_instruction}

    Edit the content accordingly to make it more engaging and polished.
    `

// fill substitutes every {key} in tmpl in a single pass, so values are
// never re-scanned for placeholders.
func fill(tmpl string, fields map[string]string) string {
	pairs := make([]string, 0, len(fields)*2)
	for k, v := range fields {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// FormatGenerationPrompt builds the book outline prompt.
func FormatGenerationPrompt(req GenerationRequest) Prompt {
	return Prompt{
		User: fill(bookTemplate, map[string]string{
			"theme": req.Theme,
			"intro": req.Intro,
			"pages": strconv.Itoa(req.Pages),
			"type":  req.Genre,
		}),
	}
}

// FormatEditPrompt builds the editing prompt from the extracted document
// text and the user's instruction.
func FormatEditPrompt(documentText, instruction string) Prompt {
	return Prompt{
		User: fill(editTemplate, map[string]string{
			"pdf_text":         documentText,
			"edit_instruction": instruction,
		}),
	}
}
