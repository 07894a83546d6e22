package textnorm

import "testing"

func TestNormalizeField(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "trims and collapses whitespace",
			input:    "  This is a   test.  \n\r",
			expected: "This is a test.",
		},
		{
			name:     "joins lines",
			input:    "Mamani\nQuispe,\r\n Juan",
			expected: "Mamani Quispe, Juan",
		},
		{
			name:     "transliterates accents",
			input:    "Tesis de Maestría en Ingeniería Electrónica",
			expected: "Tesis de Maestria en Ingenieria Electronica",
		},
		{
			name:     "plain quotes",
			input:    "“Sistema” ‘web’",
			expected: "\"Sistema\" 'web'",
		},
		{
			name:     "non-breaking space separates words",
			input:    "Juan\u00a0Pérez",
			expected: "Juan Perez",
		},
		{
			name:     "ligatures",
			input:    "Oﬁcina de Planiﬁcación ﬂuvial",
			expected: "Oficina de Planificacion fluvial",
		},
		{
			name:     "full-width letters",
			input:    "ＴＥＳＩＳ　２０１５",
			expected: "TESIS 2015",
		},
		{
			name:     "whitespace only",
			input:    " \t\n\r ",
			expected: "",
		},
		{
			name:     "empty",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeField(tt.input)
			if result != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestNormalizeFieldIdempotent(t *testing.T) {
	inputs := []string{
		"  This is a   test.  \n\r",
		"Ñandú  “quoted” word — dash",
		"Año 2019 – Gestión  II",
		"日本語 mixed ascii",
		"Oﬁcina ＴＥＳＩＳ",
		"",
	}

	for _, input := range inputs {
		once := NormalizeField(input)
		twice := NormalizeField(once)
		if once != twice {
			t.Errorf("NormalizeField not idempotent for %q: %q != %q", input, once, twice)
		}
	}
}

func TestNormalizeBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "keeps blank lines and converts quotes",
			input:    "This is a  test. \n\n\n”This is another test.”\n",
			expected: "This is a test.\n\n\n\"This is another test.\"\n",
		},
		{
			name:     "strips carriage returns",
			input:    "UNIVERSIDAD MAYOR\r\nDE SAN ANDRÉS\r\n",
			expected: "UNIVERSIDAD MAYOR\nDE SAN ANDRES\n",
		},
		{
			name:     "whitespace only lines become empty",
			input:    "   \n\t",
			expected: "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeBlock(tt.input)
			if result != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestNormalizeFields(t *testing.T) {
	result := NormalizeFields([]string{" Doe,  John ", "Gómez, María"})
	expected := []string{"DOE, JOHN", "GOMEZ, MARIA"}

	if len(result) != len(expected) {
		t.Fatalf("Expected %d values, got %d", len(expected), len(result))
	}
	for i := range expected {
		if result[i] != expected[i] {
			t.Errorf("Expected %q at %d, got %q", expected[i], i, result[i])
		}
	}
}
