package domain

// Language describes one supported response language. The kiosk front end
// selects a language explicitly; that selection is authoritative for the
// whole session, whatever language the corpus or the visitor's phrasing
// happens to be in.
type Language struct {
	Code      string
	Name      string
	Greeting  string
	Apology   string
	Directive string
}

const DefaultLanguageCode = "en"

var languages = []Language{
	{
		Code:      "en",
		Name:      "English",
		Greeting:  "Hello! I'm the Digital Center assistant. How can I help you?",
		Apology:   "Sorry, I'm having trouble answering right now. Please try again in a moment.",
		Directive: "Respond only in English.",
	},
	{
		Code:      "fr",
		Name:      "Français",
		Greeting:  "Bonjour ! Je suis l'assistant du Digital Center. Comment puis-je vous aider ?",
		Apology:   "Désolé, je n'arrive pas à répondre pour le moment. Veuillez réessayer dans un instant.",
		Directive: "Respond only in French, even if the source material is in another language. Translate, do not mention the translation.",
	},
	{
		Code:      "ar",
		Name:      "الدارجة",
		Greeting:  "مرحبا! أنا مساعد المركز الرقمي. كيفاش نقدر نعاونك؟",
		Apology:   "سمح ليا، ما قدرتش نجاوب دابا. عاود حاول من بعد عافاك.",
		Directive: "Respond only in Moroccan Darija using Arabic script, even if the source material is in another language. Translate, do not mention the translation.",
	},
}

// Languages returns the fixed supported set in display order.
func Languages() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}

// LanguageByCode resolves a language code. Unknown codes return
// ErrUnsupportedLanguage; callers decide whether to fall back to the
// default or reject the request.
func LanguageByCode(code string) (Language, error) {
	for _, l := range languages {
		if l.Code == code {
			return l, nil
		}
	}
	return Language{}, ErrUnsupportedLanguage
}

// DefaultLanguage returns the English descriptor.
func DefaultLanguage() Language {
	l, _ := LanguageByCode(DefaultLanguageCode)
	return l
}
