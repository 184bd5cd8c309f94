package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToSlug(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Nossa Primeira Carta!", "nossa-primeira-carta"},
		{"  Coração de Mãe  ", "coracao-de-mae"},
		{"Ano 2024 / Dia 1", "ano-2024-dia-1"},
		{"já-é--nosso", "ja-e-nosso"},
		{"---", ""},
		{"", ""},
		{"ÉRAMOS SÓ NÓS", "eramos-so-nos"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ToSlug(tt.in))
		})
	}
}
