package markup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/reinfect/internal/core/domain"
)

func TestProcessor_Name(t *testing.T) {
	assert.Equal(t, "markup", New().Name())
}

func TestProcessor_Clean(t *testing.T) {
	p := New()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "Reinfection  was\nrare.", "Reinfection was rare."},
		{"inline italics", "<i>SARS-CoV-2</i> reinfection", "SARS-CoV-2 reinfection"},
		{"superscript", "IgG<sup>+</sup> titres", "IgG+ titres"},
		{"entities", "risk &lt; 1% &amp; falling", "risk < 1% & falling"},
		{"section break", "Background<p>Methods</p>", "Background Methods"},
		{"comment", "a<!-- note -->b", "ab"},
		{"mathml dropped", "n = <mml:math><mml:mi>x</mml:mi></mml:math> cases", "n = cases"},
		{"comparison kept", "age < 65 and > 18", "age < 65 and > 18"},
		{"only markup", "<b></b>", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Clean(tt.input))
		})
	}
}

func TestProcessor_Clean_KeepMath(t *testing.T) {
	p := New(WithKeepMath(true))

	assert.Equal(t, "n = x cases", p.Clean("n = <mml:math><mml:mi>x</mml:mi></mml:math> cases"))
}

func TestProcessor_Process(t *testing.T) {
	chunks := []domain.Chunk{
		{ID: "a", PMID: "1", Content: "<i>Omicron</i> escape", Position: 0},
		{ID: "b", PMID: "1", Content: "<sup></sup>", Position: 1},
		{ID: "c", PMID: "1", Content: "booster &amp; prior infection", Position: 2},
	}

	got, err := New().Process(context.Background(), &domain.Abstract{PMID: "1"}, chunks)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Omicron escape", got[0].Content)
	assert.Equal(t, "c", got[1].ID)
	assert.Equal(t, "booster & prior infection", got[1].Content)
	assert.Equal(t, 1, got[1].Position)
}

func TestProcessor_Process_Empty(t *testing.T) {
	got, err := New().Process(context.Background(), &domain.Abstract{}, nil)

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestProcessor_Process_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Process(ctx, &domain.Abstract{}, []domain.Chunk{{Content: "x"}})

	assert.ErrorIs(t, err, context.Canceled)
}
