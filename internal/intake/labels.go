package intake

// Labeler translates a categorical answer's opaque option id into its human
// label. Answers without a known mapping pass through untouched.
type Labeler interface {
	Label(fieldKey, optionID string) (string, bool)
}

// StaticLabeler is a fixed table of question key -> option id -> label.
type StaticLabeler map[string]map[string]string

// Label implements Labeler.
func (l StaticLabeler) Label(fieldKey, optionID string) (string, bool) {
	options, ok := l[fieldKey]
	if !ok {
		return "", false
	}
	label, ok := options[optionID]
	return label, ok
}

// DefaultLabeler carries the dropdown tables of the live forms.
var DefaultLabeler = StaticLabeler{
	// Fitness goal
	"question_7KljZA": {
		"15ac77be-80c4-4020-8e06-6cc9058eb826": "Gain muscle mass",
		"aa5e8858-f6e1-4535-9ce1-8b02cc652e28": "Cut (fat loss)",
		"d441804a-2a44-4812-b505-41f63c80d50c": "Recomp (build muscle / lose fat)",
		"e3a2a823-67ae-4f69-a2b0-8bca4effb500": "Strength & power",
		"839e27ce-c311-4a7c-adbb-88ce03488614": "Athletic performance",
		"6b61091e-cecd-4a9b-ad9f-1e871bff8ebd": "Endurance / fitness",
		"2912e3f7-6122-4a82-91e3-2d5c81f7e89f": "Toning & sculpting",
		"bce9ebca-f750-4516-99df-44c1e9dc5a03": "General health & fitness",
	},
	// Equipment access
	"question_6KJ4xB": {
		"68fb3388-c809-4c91-8aa0-edecc63cba67": "Full gym access",
		"67e66192-f0be-4db6-98a8-a8c3f18364bc": "Home dumbbells / bands",
		"0a2111b9-efcd-4e52-9ef0-22f104c7d3ca": "Body-weight only",
	},
}
