package usecase_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamdani2020/EdAgent-sub002/internal/domain"
	"github.com/hamdani2020/EdAgent-sub002/internal/usecase"
)

type scorePayload struct {
	OverallScore float64  `json:"overall_score"`
	Strengths    []string `json:"strengths"`
}

func TestExtractJSONObject(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		in      string
		want    scorePayload
		wantErr bool
	}{
		{
			name: "plain json",
			in:   `{"overall_score": 72, "strengths": ["clarity"]}`,
			want: scorePayload{OverallScore: 72, Strengths: []string{"clarity"}},
		},
		{
			name: "markdown fenced",
			in:   "```json\n{\"overall_score\": 55, \"strengths\": []}\n```",
			want: scorePayload{OverallScore: 55, Strengths: []string{}},
		},
		{
			name: "prose around object",
			in:   `Sure! Here is the evaluation: {"overall_score": 80, "strengths": ["depth"]} Hope it helps.`,
			want: scorePayload{OverallScore: 80, Strengths: []string{"depth"}},
		},
		{
			name: "trailing comma repaired",
			in:   `{"overall_score": 40, "strengths": ["focus",],}`,
			want: scorePayload{OverallScore: 40, Strengths: []string{"focus"}},
		},
		{
			name: "braces inside string values",
			in:   `{"overall_score": 65, "strengths": ["knows {} literals"]}`,
			want: scorePayload{OverallScore: 65, Strengths: []string{"knows {} literals"}},
		},
		{
			name:    "no object at all",
			in:      "I'm sorry, I can't produce JSON right now.",
			wantErr: true,
		},
		{
			name:    "unbalanced braces",
			in:      `{"overall_score": 10, "strengths": ["truncated"`,
			wantErr: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var got scorePayload
			err := usecase.ExtractJSONObject(tc.in, &got)
			if tc.wantErr {
				require.ErrorIs(t, err, domain.ErrMalformedAIOutput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
