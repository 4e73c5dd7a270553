package integrationtests

import (
	"testing"

	"github.com/specialistvlad/buildmodels/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeChecks(t *testing.T) {
	testCases := []struct {
		name       string
		hcl        string
		wantErr    string
		wantInLogs string
	}{
		{
			name: "consumer requests another type",
			hcl: `
				model "versions" {
				  type   = list(string)
				  value  = ["1.0"]
				  marker = "versions realized"
				}
				project "a" {
				  consume "versions" {
				    type = map(string)
				  }
				}
			`,
			wantErr:    "1 of 1 projects failed",
			wantInLogs: "model type mismatch",
		},
		{
			name: "value does not fit declared type",
			hcl: `
				model "count" {
				  type  = number
				  value = "many"
				}
				project "a" {
				  consume "count" {
				    type = number
				  }
				}
			`,
			wantErr:    "1 of 1 projects failed",
			wantInLogs: "model computation failed",
		},
		{
			name: "unsupported model type",
			hcl: `
				model "anything" {
				  type  = any
				  value = 1
				}
			`,
			wantErr: "'any' is not supported",
		},
		{
			name: "same name posted twice",
			hcl: `
				model "x" {
				  type  = string
				  value = "a"
				}
				model "x" {
				  type  = number
				  value = 1
				}
			`,
			wantErr: "duplicate model key",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Act ---
			result := testutil.RunIntegrationTest(t, map[string]string{"main.hcl": tc.hcl})

			// --- Assert ---
			require.Error(t, result.Err)
			assert.Contains(t, result.Err.Error(), tc.wantErr)
			if tc.wantInLogs != "" {
				assert.Contains(t, result.LogOutput, tc.wantInLogs)
			}
		})
	}

	t.Run("mismatched request does not realize the model", func(t *testing.T) {
		result := testutil.RunIntegrationTest(t, map[string]string{"main.hcl": testCases[0].hcl})
		assert.Equal(t, 0, testutil.CountLines(result, "versions realized"))
	})
}
