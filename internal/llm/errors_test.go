package llm

import (
	"errors"
	"strings"
	"testing"
)

func TestUnwrapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "plain error passes through",
			err:  errors.New("connection refused"),
			want: "connection refused",
		},
		{
			name: "json message field",
			err:  errors.New(`API returned {"message":"model not found"}`),
			want: "model not found",
		},
		{
			name: "nested error envelope",
			err:  errors.New(`{"success":false,"error":{"message":"invalid request"}}`),
			want: "invalid request",
		},
		{
			name: "permission denied guidance",
			err:  errors.New(`{"error":{"message":"Permission denied for model gpt-5"}}`),
			want: "Permission denied by the AI provider",
		},
		{
			name: "rate limit guidance",
			err:  errors.New("429: rate limit exceeded"),
			want: "usage limit was reached",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UnwrapError(tt.err)
			if !strings.Contains(got, tt.want) {
				t.Errorf("UnwrapError() = %q, want it to contain %q", got, tt.want)
			}
		})
	}

	if got := UnwrapError(nil); got != "" {
		t.Errorf("UnwrapError(nil) = %q, want empty", got)
	}
}
