package quizimages

import (
	"errors"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"bare array", `[1,2]`, `[1,2]`},
		{"prose around", "Here you go:\n[{\"a\":1}]\nHope this helps!", `[{"a":1}]`},
		{"code fence", "```json\n{\"a\":[1,2]}\n```", `{"a":[1,2]}`},
		{"brackets in strings", `{"q":"what is [x]?","b":"}"}`, `{"q":"what is [x]?","b":"}"}`},
		{"escaped quote", `{"q":"say \"hi\" [now]"}`, `{"q":"say \"hi\" [now]"}`},
		{"prose bracket first", `[note] the answer is {"a":true}`, `{"a":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.in)
			if err != nil {
				t.Fatalf("ExtractJSON: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestExtractJSONErrors(t *testing.T) {
	if _, err := ExtractJSON("no json here"); !errors.Is(err, ErrNoJSON) {
		t.Errorf("plain text: got %v, want ErrNoJSON", err)
	}

	_, err := ExtractJSON(`{"a": [1, 2}`)
	var extractErr *JSONExtractError
	if !errors.As(err, &extractErr) {
		t.Fatalf("malformed: got %v, want *JSONExtractError", err)
	}
}

func TestExtractJSONInto(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	if err := ExtractJSONInto("Sure! {\"name\": \"skelet\"}", &v); err != nil {
		t.Fatalf("ExtractJSONInto: %v", err)
	}
	if v.Name != "skelet" {
		t.Errorf("name = %q", v.Name)
	}
}
