// Package prompt builds the prompts sent to the translation providers.
package prompt

import (
	"bytes"
	"text/template"
)

const translatePromptText = `You are a professional culinary translator.
Translate the text below from {{.SourceLang}} to {{.TargetLang}}.
Keep dish names natural for the target language, keep units and quantities as written, and preserve line breaks.
Respond with the translated text only, no quotes and no commentary.

Text:
{{.Text}}`

var translateTemplate *template.Template

func init() {
	tmpl, err := template.New("translate").Parse(translatePromptText)
	if err != nil {
		panic(err)
	}
	translateTemplate = tmpl
}

type TranslateVars struct {
	SourceLang string
	TargetLang string
	Text       string
}

func BuildTranslate(vars TranslateVars) (string, error) {
	var buf bytes.Buffer
	if err := translateTemplate.Execute(&buf, vars); err != nil {
		return "", err
	}

	return buf.String(), nil
}
