package quizimages

import "testing"

func TestImagePolicyFor(t *testing.T) {
	tests := []struct {
		name    string
		q       Question
		subject string
		want    ImagePolicy
	}{
		{"grammar drill", Question{Type: "multiple_choice", Text: "Wat is de accusativus enkelvoud van rosa?"}, "latijn", PolicyNone},
		{"translation", Question{Type: "open", Text: "Vertaal: puella rosam amat"}, "latijn", PolicyNone},
		{"which case", Question{Text: "In welke naamval staat 'dominum'?"}, "latijn", PolicyNone},
		{"culture", Question{Type: "multiple_choice", Text: "Wie was Romulus?"}, "latijn", PolicyRequired},
		{"greek drill naming the language", Question{Type: "multiple_choice", Text: "Wat is de genitivus enkelvoud in het Grieks?"}, "grieks", PolicyNone},
		{"greek culture", Question{Type: "multiple_choice", Text: "Welke goden vereerden de Grieken?"}, "grieks", PolicyRequired},
		{"cultural word inside another word", Question{Text: "Wat is de dativus van marsupium?"}, "latijn", PolicyNone},
		{"grammar word outside language subject", Question{Text: "Wat is het onderwerp van dit hoofdstuk over botten?"}, "biologie", PolicyRequired},
		{"matching", Question{Type: "matching", Text: "Koppel de botten"}, "biologie", PolicyNone},
		{"table", Question{Type: "table", Text: "Vul de tabel in"}, "biologie", PolicyNone},
		{"fill blank", Question{Type: "fill_blank", Text: "Het ... is het grootste bot"}, "biologie", PolicyNone},
		{"ordering", Question{Type: "ordering", Text: "Zet de stappen op volgorde"}, "biologie", PolicyOptional},
		{"open", Question{Type: "open", Text: "Leg uit hoe een gewricht werkt"}, "biologie", PolicyOptional},
		{"multiple choice", Question{Type: "multiple_choice", Text: "Welk bot is het langst?"}, "biologie", PolicyRequired},
		{"type casing", Question{Type: " Matching ", Text: "Koppel"}, "biologie", PolicyNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ImagePolicyFor(tt.q, tt.subject); got != tt.want {
				t.Errorf("ImagePolicyFor = %s, want %s", got, tt.want)
			}
		})
	}
}
