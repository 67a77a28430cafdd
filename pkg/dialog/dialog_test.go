package dialog

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "Hello there!", "Hello there!"},
		{"line breaks collapse", "OAK: Hello there!\nWelcome to the\nworld of POKEMON!", "OAK: Hello there! Welcome to the world of POKEMON!"},
		{"continue arrow stripped", "I like shorts!▼", "I like shorts!"},
		{"runs of spaces", "PIDGEY   was\t caught!", "PIDGEY was caught!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestContains(t *testing.T) {
	tests := []struct {
		name string
		text string
		sub  string
		want bool
	}{
		{"exact", "OAK: Hello there!", "hello there", true},
		{"across line break", "Do you want to\nbuy a POKE BALL?", "want to buy", true},
		{"case insensitive", "RIVAL: Smell ya later!", "SMELL YA", true},
		{"absent", "OAK: Hello there!", "goodbye", false},
		{"empty substring never fires", "any text at all", "", false},
		{"empty dialog", "", "hello", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Contains(tt.text, tt.sub); got != tt.want {
				t.Errorf("Contains(%q, %q) = %v, want %v", tt.text, tt.sub, got, tt.want)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("PIDGEY"); got != "Pidgey" {
		t.Errorf("DisplayName = %q, want Pidgey", got)
	}
	if got := DisplayName("  POKE BALL "); got != "Poke Ball" {
		t.Errorf("DisplayName = %q, want Poke Ball", got)
	}
}
